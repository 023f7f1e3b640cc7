package favorites

import (
	"github.com/a-h/templ"

	"github.com/codr1/Lodgeicious/internal/models"
	catalogtempl "github.com/codr1/Lodgeicious/internal/templates/components/catalog"
	"github.com/codr1/Lodgeicious/internal/templates/components/ui"
)

type PageData struct {
	Accommodations []models.Accommodation
	Activities     []models.Activity
	Currency       string
}

func (d PageData) Empty() bool {
	return len(d.Accommodations) == 0 && len(d.Activities) == 0
}

func FavoritesPage(data PageData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Raw(`<section id="favorites"><h1>Saved</h1>`)
		if data.Empty() {
			b.Raw(`<p class="empty">Nothing saved yet. Tap the heart on a <a href="/accommodations">stay</a> or <a href="/activities">activity</a> to keep it here.</p></section>`)
			return
		}
		if len(data.Accommodations) > 0 {
			b.Raw(`<h2>Stays</h2><div class="grid">`)
			for _, acc := range data.Accommodations {
				b.Render(catalogtempl.AccommodationCard(acc, true, true, data.Currency))
			}
			b.Raw(`</div>`)
		}
		if len(data.Activities) > 0 {
			b.Raw(`<h2>Activities</h2><div class="grid">`)
			for _, act := range data.Activities {
				b.Render(catalogtempl.ActivityCard(act, true, true, data.Currency))
			}
			b.Raw(`</div>`)
		}
		b.Raw(`</section>`)
	})
}
