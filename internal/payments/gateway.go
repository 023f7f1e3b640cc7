// Package payments delegates booking payments to the enabled gateways and
// records each attempt.
package payments

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/codr1/Lodgeicious/internal/config"
)

const (
	VerificationPending   = "pending"
	VerificationSucceeded = "succeeded"
	VerificationFailed    = "failed"
)

var (
	ErrUnknownGateway = errors.New("unknown payment gateway")
	ErrNotConfigured  = errors.New("payment gateway is not configured")
)

// LineItem is one priced line shown on the gateway's payment page.
type LineItem struct {
	Description string
	AmountCents int64
}

// PaymentRequest describes what a guest is about to pay for.
type PaymentRequest struct {
	BookingNumber string
	Reference     string
	AmountCents   int64
	Currency      string
	CustomerEmail string
	CustomerName  string
	CustomerPhone string
	Lines         []LineItem
	ReturnURL     string
	CancelURL     string
}

// PaymentSession is where the guest is sent to pay.
type PaymentSession struct {
	Reference   string
	RedirectURL string
}

// Verification is the gateway's view of a payment attempt.
type Verification struct {
	Reference   string
	Status      string
	AmountCents int64
	Currency    string
}

// Covers reports whether a successful verification paid at least amountCents
// in currency.
func (v Verification) Covers(amountCents int64, currency string) bool {
	return v.Status == VerificationSucceeded &&
		strings.EqualFold(v.Currency, currency) &&
		v.AmountCents >= amountCents
}

// Gateway is a payment provider.
type Gateway interface {
	Name() string
	Initiate(ctx context.Context, req PaymentRequest) (PaymentSession, error)
	Verify(ctx context.Context, reference string) (Verification, error)
}

// Registry holds the gateways enabled in configuration.
type Registry struct {
	gateways       map[string]Gateway
	defaultGateway string
}

func NewRegistry(defaultGateway string, gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[string]Gateway, len(gateways)), defaultGateway: defaultGateway}
	for _, g := range gateways {
		r.gateways[g.Name()] = g
	}
	return r
}

// RegistryFromConfig builds the enabled gateways. The simulated gateway is
// returned separately so the checkout simulate page can record decisions.
func RegistryFromConfig(cfg *config.Config) (*Registry, *Simulated, error) {
	var (
		gateways  []Gateway
		simulated *Simulated
	)
	for _, name := range cfg.Payments.Enabled {
		switch name {
		case config.GatewayStripe:
			if cfg.Payments.StripeSecretKey == "" {
				return nil, nil, fmt.Errorf("%w: STRIPE_SECRET_KEY is empty", ErrNotConfigured)
			}
			gateways = append(gateways, NewStripe(cfg.Payments.StripeSecretKey, nil))
		case config.GatewayFlutterwave:
			if cfg.Payments.FlutterwaveSecret == "" {
				return nil, nil, fmt.Errorf("%w: FLUTTERWAVE_SECRET_KEY is empty", ErrNotConfigured)
			}
			gateways = append(gateways, NewFlutterwave(FlutterwaveConfig{
				BaseURL:   cfg.Payments.FlutterwaveBaseURL,
				SecretKey: cfg.Payments.FlutterwaveSecret,
				Title:     cfg.App.Name,
			}))
		case config.GatewaySimulated:
			simulated = NewSimulated(cfg.App.BaseURL)
			gateways = append(gateways, simulated)
		default:
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownGateway, name)
		}
	}
	return NewRegistry(cfg.Payments.DefaultGateway, gateways...), simulated, nil
}

func (r *Registry) Get(name string) (Gateway, error) {
	g, ok := r.gateways[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGateway, name)
	}
	return g, nil
}

func (r *Registry) Default() string {
	return r.defaultGateway
}

// Names lists enabled gateways with the default first.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.gateways))
	for name := range r.gateways {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if names[i] == r.defaultGateway {
			return true
		}
		if names[j] == r.defaultGateway {
			return false
		}
		return names[i] < names[j]
	})
	return names
}

// Label is the human name shown on the review page.
func Label(gateway string) string {
	switch gateway {
	case config.GatewayStripe:
		return "Card (Stripe)"
	case config.GatewayFlutterwave:
		return "Card, bank or mobile money (Flutterwave)"
	case config.GatewaySimulated:
		return "Test payment"
	default:
		return gateway
	}
}
