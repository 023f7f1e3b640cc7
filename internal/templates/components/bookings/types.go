package bookings

import (
	"time"

	"github.com/codr1/Lodgeicious/internal/booking"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
	"github.com/codr1/Lodgeicious/internal/models"
)

type ListData struct {
	Page     models.Page[dbgen.Booking]
	Location *time.Location
}

type DetailData struct {
	Detail   booking.Detail
	Location *time.Location
	// Email is echoed into the cancel form for guests who looked the
	// booking up without signing in.
	Email            string
	CanCancel        bool
	CancellableUntil time.Time
	Message          string
	Error            string
}

type LookupData struct {
	Number string
	Email  string
	Error  string
}
