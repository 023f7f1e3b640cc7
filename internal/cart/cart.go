// Package cart keeps a guest's pending stays and activity places in the
// database, keyed by an opaque cookie token.
package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/codr1/Lodgeicious/internal/availability"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
	"github.com/codr1/Lodgeicious/internal/models"
	"github.com/codr1/Lodgeicious/internal/pricing"
)

const (
	ItemStay     = "stay"
	ItemActivity = "activity"
)

var (
	ErrNotFound  = errors.New("cart item not found")
	ErrCartEmpty = errors.New("cart is empty")
	ErrNoCart    = errors.New("cart not found")
)

// Item is a cart line resolved against the catalog.
type Item struct {
	ID              int64     `json:"id"`
	Kind            string    `json:"kind"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	AccommodationID int64     `json:"accommodation_id,omitempty"`
	ActivityID      int64     `json:"activity_id,omitempty"`
	SlotID          int64     `json:"slot_id,omitempty"`
	CheckIn         string    `json:"check_in,omitempty"`
	CheckOut        string    `json:"check_out,omitempty"`
	StartsAt        time.Time `json:"starts_at,omitempty"`
	Guests          int64     `json:"guests"`
	Nights          int64     `json:"nights,omitempty"`
	UnitPriceCents  int64     `json:"unit_price_cents"`
	LineTotalCents  int64     `json:"line_total_cents"`
}

func (i Item) IsStay() bool { return i.Kind == ItemStay }

func (i Item) Line() pricing.Line {
	return pricing.Line{UnitPriceCents: i.UnitPriceCents, Quantity: i.Quantity(), TotalCents: i.LineTotalCents}
}

func (i Item) Quantity() int64 {
	if i.IsStay() {
		return i.Nights
	}
	return i.Guests
}

// Details are the guest contact fields collected at checkout.
type Details struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	SpecialRequests string `json:"special_requests"`
}

func (d Details) Complete() bool {
	return d.FirstName != "" && d.LastName != "" && d.Email != ""
}

// View is a cart with its derived totals.
type View struct {
	Cart      dbgen.Cart        `json:"-"`
	Items     []Item            `json:"items"`
	Breakdown pricing.Breakdown `json:"breakdown"`
	Currency  string            `json:"currency"`
	Details   Details           `json:"details"`
}

func (v View) Count() int { return len(v.Items) }

func (v View) Empty() bool { return len(v.Items) == 0 }

type Service struct {
	Checker  *availability.Checker
	Rates    pricing.Rates
	Currency string
	Location *time.Location
}

func NewService(checker *availability.Checker, rates pricing.Rates, currency string, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{Checker: checker, Rates: rates, Currency: currency, Location: loc}
}

// NewToken returns a fresh opaque cart token.
func NewToken() string {
	return uuid.NewString()
}

// Load returns the cart for token, or ErrNoCart.
func (s *Service) Load(ctx context.Context, q dbgen.Querier, token string) (dbgen.Cart, error) {
	if token == "" {
		return dbgen.Cart{}, ErrNoCart
	}
	c, err := q.GetCartByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbgen.Cart{}, ErrNoCart
		}
		return dbgen.Cart{}, fmt.Errorf("load cart: %w", err)
	}
	return c, nil
}

// Ensure loads the cart for token, creating one when the token is unknown.
// The returned bool reports whether a new cart was created.
func (s *Service) Ensure(ctx context.Context, q dbgen.Querier, token string, userID int64) (dbgen.Cart, bool, error) {
	c, err := s.Load(ctx, q, token)
	if err == nil {
		return c, false, nil
	}
	if !errors.Is(err, ErrNoCart) {
		return dbgen.Cart{}, false, err
	}
	c, err = q.CreateCart(ctx, dbgen.CreateCartParams{
		Token:  NewToken(),
		UserID: sql.NullInt64{Int64: userID, Valid: userID > 0},
	})
	if err != nil {
		return dbgen.Cart{}, false, fmt.Errorf("create cart: %w", err)
	}
	return c, true, nil
}

// AddStay adds an accommodation stay. A stay on the same accommodation with
// overlapping dates is replaced.
func (s *Service) AddStay(ctx context.Context, q dbgen.Querier, c dbgen.Cart, accommodationID int64, checkIn, checkOut time.Time, guests int64) (dbgen.CartItem, error) {
	row, err := q.GetAccommodation(ctx, accommodationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbgen.CartItem{}, ErrNotFound
		}
		return dbgen.CartItem{}, fmt.Errorf("load accommodation: %w", err)
	}
	acc := models.AccommodationFromDB(row)
	if _, err := s.Checker.CheckStay(ctx, q, acc, checkIn, checkOut, guests); err != nil {
		return dbgen.CartItem{}, err
	}

	existing, err := q.ListCartItems(ctx, c.ID)
	if err != nil {
		return dbgen.CartItem{}, fmt.Errorf("list cart items: %w", err)
	}
	in := checkIn.Format(pricing.DateLayout)
	out := checkOut.Format(pricing.DateLayout)
	for _, item := range existing {
		if item.ItemType != ItemStay || item.AccommodationID.Int64 != accommodationID {
			continue
		}
		if item.CheckIn.String < out && item.CheckOut.String > in {
			if _, err := q.DeleteCartItem(ctx, dbgen.DeleteCartItemParams{ID: item.ID, CartID: c.ID}); err != nil {
				return dbgen.CartItem{}, fmt.Errorf("replace cart stay: %w", err)
			}
		}
	}

	item, err := q.AddCartItem(ctx, dbgen.AddCartItemParams{
		CartID:          c.ID,
		ItemType:        ItemStay,
		AccommodationID: sql.NullInt64{Int64: accommodationID, Valid: true},
		CheckIn:         sql.NullString{String: in, Valid: true},
		CheckOut:        sql.NullString{String: out, Valid: true},
		Guests:          guests,
	})
	if err != nil {
		return dbgen.CartItem{}, fmt.Errorf("add cart stay: %w", err)
	}
	return item, s.touch(ctx, q, c.ID)
}

// AddActivity reserves places on a slot. Adding the same slot again merges
// the participant counts and re-validates the total.
func (s *Service) AddActivity(ctx context.Context, q dbgen.Querier, c dbgen.Cart, slotID, participants int64) (dbgen.CartItem, error) {
	slot, err := q.GetActivitySlot(ctx, slotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return dbgen.CartItem{}, ErrNotFound
		}
		return dbgen.CartItem{}, fmt.Errorf("load slot: %w", err)
	}

	existing, err := q.ListCartItems(ctx, c.ID)
	if err != nil {
		return dbgen.CartItem{}, fmt.Errorf("list cart items: %w", err)
	}
	current, found := lo.Find(existing, func(item dbgen.ListCartItemsRow) bool {
		return item.ItemType == ItemActivity && item.ActivitySlotID.Int64 == slotID
	})
	total := participants
	if found {
		total += current.Guests
	}
	if _, err := s.Checker.CheckSlot(ctx, q, slot, total); err != nil {
		return dbgen.CartItem{}, err
	}

	if found {
		if _, err := q.UpdateCartItemGuests(ctx, dbgen.UpdateCartItemGuestsParams{Guests: total, ID: current.ID, CartID: c.ID}); err != nil {
			return dbgen.CartItem{}, fmt.Errorf("merge cart activity: %w", err)
		}
		item, err := q.GetCartItem(ctx, dbgen.GetCartItemParams{ID: current.ID, CartID: c.ID})
		if err != nil {
			return dbgen.CartItem{}, fmt.Errorf("reload cart activity: %w", err)
		}
		return item, s.touch(ctx, q, c.ID)
	}

	item, err := q.AddCartItem(ctx, dbgen.AddCartItemParams{
		CartID:         c.ID,
		ItemType:       ItemActivity,
		ActivitySlotID: sql.NullInt64{Int64: slotID, Valid: true},
		Guests:         participants,
	})
	if err != nil {
		return dbgen.CartItem{}, fmt.Errorf("add cart activity: %w", err)
	}
	return item, s.touch(ctx, q, c.ID)
}

// UpdateItem changes the guest or participant count of an item after
// re-validating it.
func (s *Service) UpdateItem(ctx context.Context, q dbgen.Querier, c dbgen.Cart, itemID, guests int64) error {
	item, err := q.GetCartItem(ctx, dbgen.GetCartItemParams{ID: itemID, CartID: c.ID})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("load cart item: %w", err)
	}

	switch item.ItemType {
	case ItemStay:
		row, err := q.GetAccommodation(ctx, item.AccommodationID.Int64)
		if err != nil {
			return fmt.Errorf("load accommodation: %w", err)
		}
		in, err := pricing.ParseDate(item.CheckIn.String)
		if err != nil {
			return err
		}
		out, err := pricing.ParseDate(item.CheckOut.String)
		if err != nil {
			return err
		}
		if _, err := s.Checker.CheckStay(ctx, q, models.AccommodationFromDB(row), in, out, guests); err != nil {
			return err
		}
	case ItemActivity:
		slot, err := q.GetActivitySlot(ctx, item.ActivitySlotID.Int64)
		if err != nil {
			return fmt.Errorf("load slot: %w", err)
		}
		if _, err := s.Checker.CheckSlot(ctx, q, slot, guests); err != nil {
			return err
		}
	}

	if _, err := q.UpdateCartItemGuests(ctx, dbgen.UpdateCartItemGuestsParams{Guests: guests, ID: itemID, CartID: c.ID}); err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	return s.touch(ctx, q, c.ID)
}

func (s *Service) RemoveItem(ctx context.Context, q dbgen.Querier, c dbgen.Cart, itemID int64) error {
	n, err := q.DeleteCartItem(ctx, dbgen.DeleteCartItemParams{ID: itemID, CartID: c.ID})
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return s.touch(ctx, q, c.ID)
}

func (s *Service) Clear(ctx context.Context, q dbgen.Querier, c dbgen.Cart) error {
	if err := q.ClearCart(ctx, c.ID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return s.touch(ctx, q, c.ID)
}

// View resolves every item and derives the totals.
func (s *Service) View(ctx context.Context, q dbgen.Querier, c dbgen.Cart) (View, error) {
	rows, err := q.ListCartItems(ctx, c.ID)
	if err != nil {
		return View{}, fmt.Errorf("list cart items: %w", err)
	}
	items := lo.Map(rows, func(row dbgen.ListCartItemsRow, _ int) Item {
		return s.itemFromRow(row)
	})
	return View{
		Cart:      c,
		Items:     items,
		Breakdown: pricing.Totals(lo.Map(items, func(i Item, _ int) pricing.Line { return i.Line() }), s.Rates),
		Currency:  s.Currency,
		Details:   DetailsFromCart(c),
	}, nil
}

func (s *Service) itemFromRow(row dbgen.ListCartItemsRow) Item {
	item := Item{
		ID:     row.ID,
		Kind:   row.ItemType,
		Guests: row.Guests,
	}
	if row.ItemType == ItemStay {
		item.Title = row.AccommodationName.String
		item.Slug = row.AccommodationSlug.String
		item.AccommodationID = row.AccommodationID.Int64
		item.CheckIn = row.CheckIn.String
		item.CheckOut = row.CheckOut.String
		in, inErr := pricing.ParseDate(row.CheckIn.String)
		out, outErr := pricing.ParseDate(row.CheckOut.String)
		if inErr == nil && outErr == nil {
			if nights, err := pricing.Nights(in, out); err == nil {
				item.Nights = nights
			}
		}
		line := pricing.StayLine(row.NightlyRateCents.Int64, row.CleaningFeeCents.Int64, item.Nights)
		item.UnitPriceCents = line.UnitPriceCents
		item.LineTotalCents = line.TotalCents
		return item
	}

	item.Title = row.ActivityName.String
	item.Slug = row.ActivitySlug.String
	item.ActivityID = row.ActivityID.Int64
	item.SlotID = row.ActivitySlotID.Int64
	if row.SlotStartsAt.Valid {
		item.StartsAt = row.SlotStartsAt.Time.In(s.Location)
	}
	line := pricing.ActivityLine(row.ActivityPriceCents.Int64, row.Guests)
	item.UnitPriceCents = line.UnitPriceCents
	item.LineTotalCents = line.TotalCents
	return item
}

func (s *Service) Count(ctx context.Context, q dbgen.Querier, c dbgen.Cart) (int64, error) {
	return q.CountCartItems(ctx, c.ID)
}

// SaveDetails stores checkout contact details on the cart.
func (s *Service) SaveDetails(ctx context.Context, q dbgen.Querier, c dbgen.Cart, d Details) error {
	return q.UpdateCartDetails(ctx, dbgen.UpdateCartDetailsParams{
		GuestFirstName:  nullString(d.FirstName),
		GuestLastName:   nullString(d.LastName),
		GuestEmail:      nullString(d.Email),
		GuestPhone:      nullString(d.Phone),
		SpecialRequests: nullString(d.SpecialRequests),
		ID:              c.ID,
	})
}

func DetailsFromCart(c dbgen.Cart) Details {
	return Details{
		FirstName:       c.GuestFirstName.String,
		LastName:        c.GuestLastName.String,
		Email:           c.GuestEmail.String,
		Phone:           c.GuestPhone.String,
		SpecialRequests: c.SpecialRequests.String,
	}
}

// AttachUser links the anonymous cart to a user who just signed in. When the
// browser has no cart, the user's most recent cart is returned instead so the
// caller can restore its cookie.
func (s *Service) AttachUser(ctx context.Context, q dbgen.Querier, token string, userID int64) (dbgen.Cart, error) {
	c, err := s.Load(ctx, q, token)
	switch {
	case err == nil:
		if c.UserID.Valid && c.UserID.Int64 == userID {
			return c, nil
		}
		if err := q.SetCartUser(ctx, dbgen.SetCartUserParams{UserID: sql.NullInt64{Int64: userID, Valid: true}, ID: c.ID}); err != nil {
			return dbgen.Cart{}, fmt.Errorf("attach cart: %w", err)
		}
		c.UserID = sql.NullInt64{Int64: userID, Valid: true}
		return c, nil
	case errors.Is(err, ErrNoCart):
		latest, err := q.GetLatestCartForUser(ctx, sql.NullInt64{Int64: userID, Valid: true})
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return dbgen.Cart{}, ErrNoCart
			}
			return dbgen.Cart{}, fmt.Errorf("load user cart: %w", err)
		}
		return latest, nil
	default:
		return dbgen.Cart{}, err
	}
}

// PruneAbandoned deletes carts untouched since now-ttl.
func PruneAbandoned(ctx context.Context, q dbgen.Querier, now time.Time, ttl time.Duration) (int64, error) {
	return q.DeleteAbandonedCarts(ctx, now.Add(-ttl).UTC())
}

func (s *Service) touch(ctx context.Context, q dbgen.Querier, cartID int64) error {
	if err := q.TouchCart(ctx, cartID); err != nil {
		return fmt.Errorf("touch cart: %w", err)
	}
	return nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
