package payments

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/codr1/Lodgeicious/internal/config"
)

type simulatedAttempt struct {
	amountCents int64
	currency    string
	decision    string
}

// Simulated is the development gateway. Guests pay on an in-app page that
// records an approve or decline decision.
type Simulated struct {
	baseURL string

	mu       sync.Mutex
	attempts map[string]*simulatedAttempt
}

func NewSimulated(baseURL string) *Simulated {
	return &Simulated{
		baseURL:  strings.TrimRight(baseURL, "/"),
		attempts: make(map[string]*simulatedAttempt),
	}
}

func (s *Simulated) Name() string { return config.GatewaySimulated }

func (s *Simulated) Initiate(_ context.Context, req PaymentRequest) (PaymentSession, error) {
	reference := req.Reference
	if reference == "" {
		reference = "sim_" + uuid.NewString()
	}

	s.mu.Lock()
	s.attempts[reference] = &simulatedAttempt{
		amountCents: req.AmountCents,
		currency:    strings.ToUpper(req.Currency),
		decision:    VerificationPending,
	}
	s.mu.Unlock()

	q := url.Values{}
	q.Set("reference", reference)
	q.Set("booking", req.BookingNumber)
	return PaymentSession{
		Reference:   reference,
		RedirectURL: s.baseURL + "/checkout/simulate?" + q.Encode(),
	}, nil
}

// Decide records the guest's choice on the simulate page.
func (s *Simulated) Decide(reference string, approve bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempt, ok := s.attempts[reference]
	if !ok {
		return fmt.Errorf("unknown simulated payment %q", reference)
	}
	if approve {
		attempt.decision = VerificationSucceeded
	} else {
		attempt.decision = VerificationFailed
	}
	return nil
}

func (s *Simulated) Verify(_ context.Context, reference string) (Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempt, ok := s.attempts[reference]
	if !ok {
		return Verification{}, fmt.Errorf("unknown simulated payment %q", reference)
	}
	// A decided attempt is settled by this call and never verified again.
	if attempt.decision != VerificationPending {
		delete(s.attempts, reference)
	}
	return Verification{
		Reference:   reference,
		Status:      attempt.decision,
		AmountCents: attempt.amountCents,
		Currency:    attempt.currency,
	}, nil
}
