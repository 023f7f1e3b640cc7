// Package pricing turns nightly rates and per-person prices into cart and
// booking totals. All amounts are integer cents.
package pricing

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/codr1/Lodgeicious/internal/config"
)

const DateLayout = "2006-01-02"

var ErrInvalidDates = errors.New("check-out must be after check-in")

// Rates are fractions of the subtotal.
type Rates struct {
	TaxRate        decimal.Decimal
	ServiceFeeRate decimal.Decimal
}

// Breakdown is the derived money summary shown in the cart, at review and
// stored on the booking.
type Breakdown struct {
	SubtotalCents   int64 `json:"subtotal_cents"`
	TaxCents        int64 `json:"tax_cents"`
	ServiceFeeCents int64 `json:"service_fee_cents"`
	TotalCents      int64 `json:"total_cents"`
}

// Line is a single priced cart or booking entry.
type Line struct {
	UnitPriceCents int64
	Quantity       int64
	TotalCents     int64
}

func RatesFromConfig(cfg *config.Config) (Rates, error) {
	tax, err := cfg.TaxRate()
	if err != nil {
		return Rates{}, err
	}
	fee, err := cfg.ServiceFeeRate()
	if err != nil {
		return Rates{}, err
	}
	return Rates{TaxRate: tax, ServiceFeeRate: fee}, nil
}

// ParseDate parses a YYYY-MM-DD stay date as a calendar day in UTC.
func ParseDate(raw string) (time.Time, error) {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	return parsed, nil
}

// Nights counts whole calendar days between check-in and check-out.
func Nights(checkIn, checkOut time.Time) (int64, error) {
	in := dateOnly(checkIn)
	out := dateOnly(checkOut)
	if !out.After(in) {
		return 0, ErrInvalidDates
	}
	return int64(out.Sub(in).Hours() / 24), nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StayLine prices an accommodation stay: nightly rate times nights plus one
// cleaning fee.
func StayLine(rateCents, cleaningFeeCents, nights int64) Line {
	return Line{
		UnitPriceCents: rateCents,
		Quantity:       nights,
		TotalCents:     rateCents*nights + cleaningFeeCents,
	}
}

// ActivityLine prices a slot reservation per participant.
func ActivityLine(priceCents, participants int64) Line {
	return Line{
		UnitPriceCents: priceCents,
		Quantity:       participants,
		TotalCents:     priceCents * participants,
	}
}

// Totals applies tax and service fee to the subtotal, each rounded half away
// from zero to whole cents.
func Totals(lines []Line, rates Rates) Breakdown {
	subtotal := lo.SumBy(lines, func(l Line) int64 { return l.TotalCents })
	if subtotal == 0 {
		return Breakdown{}
	}
	base := decimal.NewFromInt(subtotal)
	tax := base.Mul(rates.TaxRate).Round(0).IntPart()
	fee := base.Mul(rates.ServiceFeeRate).Round(0).IntPart()
	return Breakdown{
		SubtotalCents:   subtotal,
		TaxCents:        tax,
		ServiceFeeCents: fee,
		TotalCents:      subtotal + tax + fee,
	}
}

// FormatCents renders cents in major units with the currency symbol when one
// is known, otherwise with the ISO code.
func FormatCents(cents int64, currency string) string {
	amount := decimal.New(cents, -2).StringFixed(2)
	if strings.HasPrefix(amount, "-") {
		return "-" + FormatCents(-cents, currency)
	}
	switch strings.ToUpper(currency) {
	case "USD", "":
		return "$" + amount
	case "EUR":
		return "€" + amount
	case "GBP":
		return "£" + amount
	case "NGN":
		return "₦" + amount
	default:
		return strings.ToUpper(currency) + " " + amount
	}
}

// MajorUnits converts cents to a decimal amount in major units.
func MajorUnits(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// ParseMajorUnits reads an amount such as "120.50" into cents. More than two
// decimal places is an error.
func ParseMajorUnits(raw string) (int64, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", raw)
	}
	cents := amount.Shift(2)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has more than two decimal places", raw)
	}
	return cents.IntPart(), nil
}
