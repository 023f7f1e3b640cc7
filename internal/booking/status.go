package booking

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"

	PaymentUnpaid        = "unpaid"
	PaymentPaid          = "paid"
	PaymentFailed        = "failed"
	PaymentRefundPending = "refund_pending"
	PaymentRefunded      = "refunded"
)

var Statuses = []string{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusExpired}

var transitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusExpired, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsKnownStatus(status string) bool {
	for _, s := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}
