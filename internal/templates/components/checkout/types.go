package checkout

import (
	"time"

	"github.com/codr1/Lodgeicious/internal/booking"
	"github.com/codr1/Lodgeicious/internal/cart"
)

type DetailsData struct {
	Details cart.Details
	Errors  map[string]string
	Error   string
}

type GatewayOption struct {
	Name  string
	Label string
}

type ReviewData struct {
	View     cart.View
	Gateways []GatewayOption
	Selected string
	Error    string
}

// Outcomes shown on the confirmation page.
const (
	OutcomePaid    = "paid"
	OutcomePending = "pending"
	OutcomeFailed  = "failed"
	OutcomeRefund  = "refund"
)

type ConfirmationData struct {
	Detail   booking.Detail
	Location *time.Location
	Outcome  string
	Message  string
	// Gateways are offered for another attempt while the hold lasts.
	Gateways []GatewayOption
}

type SimulateData struct {
	Reference     string
	BookingNumber string
	AmountCents   int64
	Currency      string
}
