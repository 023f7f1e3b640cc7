package payments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stripe/stripe-go/v76"
)

func newStripeBackend(t *testing.T, handler http.HandlerFunc) stripe.Backend {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
	})
}

func TestStripeInitiate(t *testing.T) {
	var form map[string][]string
	backend := newStripeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_123","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_123"}`))
	})

	s := NewStripe("sk_test_123", backend)
	session, err := s.Initiate(context.Background(), PaymentRequest{
		BookingNumber: "LDG-ABCDEFGH",
		AmountCents:   12000,
		Currency:      "USD",
		CustomerEmail: "ada@example.com",
		Lines: []LineItem{
			{Description: "Cabin pine", AmountCents: 11000},
			{Description: "Tax", AmountCents: 1000},
			{Description: "Free extra", AmountCents: 0},
		},
		ReturnURL: "http://lodge.test/checkout/return?booking=LDG-ABCDEFGH&gateway=stripe",
		CancelURL: "http://lodge.test/checkout/review",
	})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if session.Reference != "cs_test_123" || session.RedirectURL != "https://checkout.stripe.com/c/pay/cs_test_123" {
		t.Fatalf("unexpected session %+v", session)
	}
	if got := form["client_reference_id"]; len(got) != 1 || got[0] != "LDG-ABCDEFGH" {
		t.Fatalf("expected booking number as client reference, got %v", got)
	}
	if got := form["line_items[1][price_data][unit_amount]"]; len(got) != 1 || got[0] != "1000" {
		t.Fatalf("expected tax line, got %v", got)
	}
	if _, ok := form["line_items[2][price_data][unit_amount]"]; ok {
		t.Fatalf("expected zero-amount lines to be skipped")
	}
	if got := form["line_items[0][price_data][currency]"]; len(got) != 1 || got[0] != "usd" {
		t.Fatalf("expected lower-case currency, got %v", got)
	}
}

func TestStripeVerify(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"paid", `{"id":"cs_1","object":"checkout.session","payment_status":"paid","status":"complete","amount_total":12000,"currency":"usd"}`, VerificationSucceeded},
		{"open", `{"id":"cs_1","object":"checkout.session","payment_status":"unpaid","status":"open","amount_total":12000,"currency":"usd"}`, VerificationPending},
		{"expired", `{"id":"cs_1","object":"checkout.session","payment_status":"unpaid","status":"expired","amount_total":12000,"currency":"usd"}`, VerificationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newStripeBackend(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/checkout/sessions/cs_1" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			})
			v, err := NewStripe("sk_test_123", backend).Verify(context.Background(), "cs_1")
			if err != nil {
				t.Fatalf("verify: %v", err)
			}
			if v.Status != tt.want || v.AmountCents != 12000 || v.Currency != "USD" {
				t.Fatalf("unexpected verification %+v", v)
			}
		})
	}
}
