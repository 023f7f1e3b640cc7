package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/codr1/Lodgeicious/internal/config"
	"github.com/codr1/Lodgeicious/internal/pricing"
)

const defaultFlutterwaveURL = "https://api.flutterwave.com"

type FlutterwaveConfig struct {
	BaseURL   string
	SecretKey string
	Title     string
	Timeout   time.Duration
}

// Flutterwave pays through the Standard hosted payment link.
type Flutterwave struct {
	baseURL    string
	secretKey  string
	title      string
	httpClient *http.Client
}

func NewFlutterwave(cfg FlutterwaveConfig) *Flutterwave {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultFlutterwaveURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &Flutterwave{
		baseURL:    baseURL,
		secretKey:  cfg.SecretKey,
		title:      cfg.Title,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (f *Flutterwave) Name() string { return config.GatewayFlutterwave }

type flutterwaveCustomer struct {
	Email       string `json:"email"`
	Name        string `json:"name,omitempty"`
	PhoneNumber string `json:"phonenumber,omitempty"`
}

type flutterwavePaymentRequest struct {
	TxRef          string              `json:"tx_ref"`
	Amount         json.Number         `json:"amount"`
	Currency       string              `json:"currency"`
	RedirectURL    string              `json:"redirect_url"`
	Customer       flutterwaveCustomer `json:"customer"`
	Customizations struct {
		Title       string `json:"title,omitempty"`
		Description string `json:"description,omitempty"`
	} `json:"customizations"`
	Meta map[string]string `json:"meta,omitempty"`
}

// Initiate creates a payment link. The caller supplies the tx_ref as
// req.Reference so every attempt gets its own reference.
func (f *Flutterwave) Initiate(ctx context.Context, req PaymentRequest) (PaymentSession, error) {
	if req.Reference == "" {
		return PaymentSession{}, fmt.Errorf("flutterwave payment needs a tx_ref")
	}
	payload := flutterwavePaymentRequest{
		TxRef:       req.Reference,
		Amount:      json.Number(pricing.MajorUnits(req.AmountCents).StringFixed(2)),
		Currency:    strings.ToUpper(req.Currency),
		RedirectURL: req.ReturnURL + "&reference=" + url.QueryEscape(req.Reference),
		Customer: flutterwaveCustomer{
			Email:       req.CustomerEmail,
			Name:        req.CustomerName,
			PhoneNumber: req.CustomerPhone,
		},
		Meta: map[string]string{"booking_number": req.BookingNumber},
	}
	payload.Customizations.Title = f.title
	payload.Customizations.Description = "Booking " + req.BookingNumber

	body, err := f.do(ctx, http.MethodPost, "/v3/payments", payload)
	if err != nil {
		return PaymentSession{}, err
	}
	if gjson.GetBytes(body, "status").String() != "success" {
		return PaymentSession{}, fmt.Errorf("flutterwave refused payment: %s", gjson.GetBytes(body, "message").String())
	}
	link := gjson.GetBytes(body, "data.link").String()
	if link == "" {
		return PaymentSession{}, fmt.Errorf("flutterwave response has no payment link")
	}
	return PaymentSession{Reference: req.Reference, RedirectURL: link}, nil
}

func (f *Flutterwave) Verify(ctx context.Context, reference string) (Verification, error) {
	body, err := f.do(ctx, http.MethodGet, "/v3/transactions/verify_by_reference?tx_ref="+url.QueryEscape(reference), nil)
	if err != nil {
		return Verification{}, err
	}

	data := gjson.GetBytes(body, "data")
	v := Verification{
		Reference: reference,
		Currency:  strings.ToUpper(data.Get("currency").String()),
		Status:    VerificationPending,
	}
	if amount := data.Get("amount"); amount.Exists() {
		major, err := decimal.NewFromString(amount.Raw)
		if err != nil {
			return Verification{}, fmt.Errorf("flutterwave amount %q: %w", amount.Raw, err)
		}
		v.AmountCents = major.Shift(2).Round(0).IntPart()
	}
	if tx := data.Get("tx_ref").String(); tx != "" && tx != reference {
		return Verification{}, fmt.Errorf("flutterwave verified %q, expected %q", tx, reference)
	}
	switch data.Get("status").String() {
	case "successful":
		v.Status = VerificationSucceeded
	case "failed", "cancelled":
		v.Status = VerificationFailed
	}
	return v, nil
}

func (f *Flutterwave) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal flutterwave request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, f.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create flutterwave request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+f.secretKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send flutterwave request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read flutterwave response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		msg := gjson.GetBytes(body, "message").String()
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("flutterwave %s %s failed: %s", method, path, msg)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("flutterwave returned invalid JSON")
	}
	return body, nil
}
