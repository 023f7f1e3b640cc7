package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"

	"github.com/codr1/Lodgeicious/internal/config"
)

// Stripe pays through hosted Checkout Sessions.
type Stripe struct {
	sessions *session.Client
}

// NewStripe builds the gateway. A nil backend uses the live Stripe API.
func NewStripe(secretKey string, backend stripe.Backend) *Stripe {
	if backend == nil {
		backend = stripe.GetBackend(stripe.APIBackend)
	}
	return &Stripe{sessions: &session.Client{B: backend, Key: secretKey}}
}

func (s *Stripe) Name() string { return config.GatewayStripe }

func (s *Stripe) Initiate(ctx context.Context, req PaymentRequest) (PaymentSession, error) {
	currency := strings.ToLower(req.Currency)
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(req.BookingNumber),
		// Stripe substitutes the session id into the return URL.
		SuccessURL: stripe.String(req.ReturnURL + "&reference={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.AddMetadata("booking_number", req.BookingNumber)

	for _, line := range req.Lines {
		if line.AmountCents <= 0 {
			continue
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Description),
				},
				UnitAmount: stripe.Int64(line.AmountCents),
			},
			Quantity: stripe.Int64(1),
		})
	}

	cs, err := s.sessions.New(params)
	if err != nil {
		return PaymentSession{}, fmt.Errorf("create stripe checkout session: %w", err)
	}
	return PaymentSession{Reference: cs.ID, RedirectURL: cs.URL}, nil
}

func (s *Stripe) Verify(ctx context.Context, reference string) (Verification, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	cs, err := s.sessions.Get(reference, params)
	if err != nil {
		return Verification{}, fmt.Errorf("retrieve stripe checkout session: %w", err)
	}

	v := Verification{
		Reference:   cs.ID,
		AmountCents: cs.AmountTotal,
		Currency:    strings.ToUpper(string(cs.Currency)),
		Status:      VerificationPending,
	}
	switch {
	case cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid:
		v.Status = VerificationSucceeded
	case cs.Status == stripe.CheckoutSessionStatusExpired:
		v.Status = VerificationFailed
	}
	return v, nil
}
