package catalog

import (
	"net/url"

	"github.com/codr1/Lodgeicious/internal/catalog"
	"github.com/codr1/Lodgeicious/internal/models"
)

type HomeData struct {
	Featured  catalog.Featured
	Favorites catalog.Favorites
	LoggedIn  bool
	Currency  string
}

type AccommodationListData struct {
	Page      models.Page[models.Accommodation]
	Query     url.Values
	Filter    catalog.ListFilter
	UnitTypes []string
	Favorites catalog.Favorites
	LoggedIn  bool
	Currency  string
}

type ActivityListData struct {
	Page       models.Page[models.Activity]
	Query      url.Values
	Filter     catalog.ListFilter
	Categories []string
	Favorites  catalog.Favorites
	LoggedIn   bool
	Currency   string
}

type AccommodationDetailData struct {
	Accommodation models.Accommodation
	Favorite      bool
	LoggedIn      bool
	Currency      string
	// MinDate and MaxDate bound the date pickers (YYYY-MM-DD).
	MinDate string
	MaxDate string
}

type ActivityDetailData struct {
	Activity models.Activity
	Slots    []models.ActivitySlot
	Favorite bool
	LoggedIn bool
	Currency string
}

// QuoteData is the booking widget's answer for one set of dates.
type QuoteData struct {
	AccommodationID int64
	CheckIn         string
	CheckOut        string
	Guests          int64
	Available       bool
	Message         string
	Nights          int64
	LineCents       int64
	Currency        string
}
