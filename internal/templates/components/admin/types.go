package admin

import (
	"net/url"
	"time"

	"github.com/codr1/Lodgeicious/internal/booking"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
	"github.com/codr1/Lodgeicious/internal/models"
)

type DashboardData struct {
	BookingsToday         int64
	BookingsThisMonth     int64
	RevenueThisMonthCents int64
	PendingHolds          int64
	Arrivals              []dbgen.Booking
	Currency              string
	Location              *time.Location
}

// Form carries submitted values back into a listing form. ID is zero for a
// new listing.
type Form struct {
	ID     int64
	Values url.Values
	Errors map[string]string
	Error  string
}

func (f Form) IsNew() bool { return f.ID == 0 }

type AccommodationsData struct {
	Page     models.Page[models.Accommodation]
	Search   string
	Status   string
	Currency string
}

type ActivitiesData struct {
	Page     models.Page[models.Activity]
	Search   string
	Status   string
	Currency string
}

type SlotsData struct {
	Activity models.Activity
	Slots    []models.ActivitySlot
	Location *time.Location
	Values   url.Values
	Errors   map[string]string
	Error    string
}

type BookingsData struct {
	Page     models.Page[dbgen.Booking]
	Status   string
	Search   string
	Location *time.Location
}

// BookingAction is a status change offered on the booking detail page.
type BookingAction struct {
	Value  string
	Label  string
	Danger bool
}

type BookingDetailData struct {
	Detail   booking.Detail
	Payments []dbgen.Payment
	Actions  []BookingAction
	Location *time.Location
	Message  string
	Error    string
}

type UsersData struct {
	Page          models.Page[dbgen.User]
	Search        string
	CurrentUserID int64
	Message       string
	Error         string
}
