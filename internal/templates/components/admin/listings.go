package admin

import (
	"fmt"

	"github.com/a-h/templ"

	"github.com/codr1/Lodgeicious/internal/models"
	"github.com/codr1/Lodgeicious/internal/templates/components/ui"
)

func statusToggle(path string, id int64, status string) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		next, label := models.StatusInactive, "Deactivate"
		if status != models.StatusActive {
			next, label = models.StatusActive, "Activate"
		}
		b.Printf(`<form method="post" action="%s/%d/status">`, path, id)
		b.Printf(`<input type="hidden" name="status" value="%s"><button type="submit">%s</button></form>`, next, label)
	})
}

func AccommodationsPage(data AccommodationsData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Render(nav("/admin/accommodations"))
		b.Raw(`<section id="admin-accommodations"><h1>Accommodations</h1><a class="button" href="/admin/accommodations/new">New accommodation</a>`)
		b.Render(searchForm("/admin/accommodations", "#admin-accommodations", data.Search, "status", data.Status, listingStatusOptions))
		if len(data.Page.Items) == 0 {
			b.Raw(`<p class="empty">No accommodations match.</p></section>`)
			return
		}
		b.Raw(`<table><thead><tr><th>Name</th><th>Type</th><th>Sleeps</th><th>Units</th><th>Nightly</th><th>Status</th><th></th></tr></thead><tbody>`)
		for _, acc := range data.Page.Items {
			b.Printf(`<tr id="row-%d"><td><a href="/admin/accommodations/%d/edit">%s</a></td><td>%s</td><td>%d</td><td>%d</td><td>%s</td><td>%s</td><td>`,
				acc.ID, acc.ID, acc.Name, acc.UnitType, acc.MaxGuests, acc.Units, ui.Money(acc.NightlyRateCents, data.Currency), acc.Status)
			b.Render(statusToggle("/admin/accommodations", acc.ID, acc.Status))
			b.Raw(`</td></tr>`)
		}
		b.Raw(`</tbody></table>`)
		b.Render(ui.Pagination(ui.Pager{
			Page:       data.Page.Page,
			TotalPages: data.Page.TotalPages(),
			Total:      data.Page.Total,
			BaseURL:    "/admin/accommodations",
			Query:      filterQuery(data.Search, data.Status),
			Target:     "#admin-accommodations",
		}))
		b.Raw(`</section>`)
	})
}

func formOpen(b *ui.Writer, base string, form Form) {
	action := base
	if !form.IsNew() {
		action = fmt.Sprintf("%s/%d", base, form.ID)
	}
	b.Printf(`<form id="listing-form" method="post" action="%s" hx-post="%s" hx-target="#listing-form" hx-select="#listing-form" hx-swap="outerHTML">`, action, action)
	b.Render(ui.Alert("error", form.Error))
	b.Render(ui.FieldErrors(form.Errors))
}

func textarea(b *ui.Writer, label, name, value string) {
	b.Printf(`<label>%s <textarea name="%s" rows="5">%s</textarea></label>`, label, name, value)
}

func AccommodationFormPage(form Form) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		title := "New accommodation"
		if !form.IsNew() {
			title = "Edit accommodation"
		}
		v := form.Values
		b.Render(nav("/admin/accommodations"))
		b.Printf(`<section><h1>%s</h1>`, title)
		formOpen(b, "/admin/accommodations", form)
		b.Render(ui.Input("Name", "text", "name", v.Get("name"), true))
		b.Render(ui.Input("Slug", "text", "slug", v.Get("slug"), false))
		textarea(b, "Description", "description", v.Get("description"))
		b.Render(ui.Input("Unit type", "text", "unit_type", v.Get("unit_type"), true))
		b.Render(ui.Input("Sleeps", "number", "max_guests", v.Get("max_guests"), true))
		b.Render(ui.Input("Bedrooms", "number", "bedrooms", v.Get("bedrooms"), true))
		b.Render(ui.Input("Nightly rate", "text", "nightly_rate", v.Get("nightly_rate"), true))
		b.Render(ui.Input("Cleaning fee", "text", "cleaning_fee", v.Get("cleaning_fee"), true))
		b.Render(ui.Input("Units", "number", "units", v.Get("units"), true))
		b.Render(ui.Input("Minimum nights", "number", "min_nights", v.Get("min_nights"), true))
		b.Render(ui.Input("Image URL", "url", "image_url", v.Get("image_url"), false))
		b.Render(ui.Select("Status", "status", v.Get("status"), listingStatusOptions[1:]))
		b.Raw(`<button type="submit">Save</button> <a href="/admin/accommodations">Back</a></form></section>`)
	})
}

func ActivitiesPage(data ActivitiesData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Render(nav("/admin/activities"))
		b.Raw(`<section id="admin-activities"><h1>Activities</h1><a class="button" href="/admin/activities/new">New activity</a>`)
		b.Render(searchForm("/admin/activities", "#admin-activities", data.Search, "status", data.Status, listingStatusOptions))
		if len(data.Page.Items) == 0 {
			b.Raw(`<p class="empty">No activities match.</p></section>`)
			return
		}
		b.Raw(`<table><thead><tr><th>Name</th><th>Category</th><th>Duration</th><th>Capacity</th><th>Price</th><th>Status</th><th></th></tr></thead><tbody>`)
		for _, act := range data.Page.Items {
			b.Printf(`<tr id="row-%d"><td><a href="/admin/activities/%d/edit">%s</a></td><td>%s</td><td>%d min</td><td>%d</td><td>%s</td><td>%s</td><td>`,
				act.ID, act.ID, act.Name, act.Category, act.DurationMinutes, act.Capacity, ui.Money(act.PriceCents, data.Currency), act.Status)
			b.Printf(`<a href="/admin/activities/%d/slots">Slots</a> `, act.ID)
			b.Render(statusToggle("/admin/activities", act.ID, act.Status))
			b.Raw(`</td></tr>`)
		}
		b.Raw(`</tbody></table>`)
		b.Render(ui.Pagination(ui.Pager{
			Page:       data.Page.Page,
			TotalPages: data.Page.TotalPages(),
			Total:      data.Page.Total,
			BaseURL:    "/admin/activities",
			Query:      filterQuery(data.Search, data.Status),
			Target:     "#admin-activities",
		}))
		b.Raw(`</section>`)
	})
}

func ActivityFormPage(form Form) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		title := "New activity"
		if !form.IsNew() {
			title = "Edit activity"
		}
		v := form.Values
		b.Render(nav("/admin/activities"))
		b.Printf(`<section><h1>%s</h1>`, title)
		formOpen(b, "/admin/activities", form)
		b.Render(ui.Input("Name", "text", "name", v.Get("name"), true))
		b.Render(ui.Input("Slug", "text", "slug", v.Get("slug"), false))
		textarea(b, "Description", "description", v.Get("description"))
		b.Render(ui.Input("Category", "text", "category", v.Get("category"), true))
		b.Render(ui.Input("Duration (minutes)", "number", "duration_minutes", v.Get("duration_minutes"), true))
		b.Render(ui.Input("Price per person", "text", "price", v.Get("price"), true))
		b.Render(ui.Input("Default capacity", "number", "capacity", v.Get("capacity"), true))
		b.Render(ui.Input("Image URL", "url", "image_url", v.Get("image_url"), false))
		b.Render(ui.Select("Status", "status", v.Get("status"), listingStatusOptions[1:]))
		b.Raw(`<button type="submit">Save</button> <a href="/admin/activities">Back</a></form></section>`)
	})
}

// SlotsPanel lists an activity's upcoming slots with the add form. Adding
// or removing a slot swaps the panel.
func SlotsPanel(data SlotsData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Printf(`<section id="activity-slots"><h1>Slots for %s</h1>`, data.Activity.Name)
		b.Render(ui.Alert("error", data.Error))
		b.Render(ui.FieldErrors(data.Errors))
		if len(data.Slots) == 0 {
			b.Raw(`<p class="empty">No upcoming slots.</p>`)
		} else {
			b.Raw(`<table><thead><tr><th>Starts</th><th>Capacity</th><th>Held</th><th></th></tr></thead><tbody>`)
			for _, slot := range data.Slots {
				b.Printf(`<tr><td>%s</td><td>%d</td><td>%d</td><td>`, ui.DateTime(localTime(slot.StartsAt, data.Location)), slot.Capacity, slot.Held)
				if slot.Held == 0 {
					b.Printf(`<form method="post" action="/admin/activities/%d/slots/%d/delete" hx-post="/admin/activities/%d/slots/%d/delete" hx-target="#activity-slots" hx-swap="outerHTML" hx-confirm="Remove this slot?"><button type="submit">Remove</button></form>`,
						data.Activity.ID, slot.ID, data.Activity.ID, slot.ID)
				}
				b.Raw(`</td></tr>`)
			}
			b.Raw(`</tbody></table>`)
		}
		capacity := data.Values.Get("capacity")
		if capacity == "" {
			capacity = ui.Itoa(data.Activity.Capacity)
		}
		b.Printf(`<form method="post" action="/admin/activities/%d/slots" hx-post="/admin/activities/%d/slots" hx-target="#activity-slots" hx-swap="outerHTML">`,
			data.Activity.ID, data.Activity.ID)
		b.Render(ui.Input("Starts at", "datetime-local", "starts_at", data.Values.Get("starts_at"), true))
		b.Render(ui.Input("Capacity", "number", "capacity", capacity, true))
		b.Raw(`<button type="submit">Add slot</button></form><a href="/admin/activities">Back</a></section>`)
	})
}

func SlotsPage(data SlotsData) templ.Component {
	return ui.Component(func(b *ui.Writer) {
		b.Render(nav("/admin/activities"))
		b.Render(SlotsPanel(data))
	})
}
