package dbgen

import (
	"database/sql"
	"time"
)

type Accommodation struct {
	ID               int64
	Slug             string
	Name             string
	Description      string
	UnitType         string
	MaxGuests        int64
	Bedrooms         int64
	NightlyRateCents int64
	CleaningFeeCents int64
	Units            int64
	MinNights        int64
	ImageUrl         string
	Status           string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Activity struct {
	ID              int64
	Slug            string
	Name            string
	Description     string
	Category        string
	DurationMinutes int64
	PriceCents      int64
	Capacity        int64
	ImageUrl        string
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type ActivitySlot struct {
	ID         int64
	ActivityID int64
	StartsAt   time.Time
	Capacity   int64
	CreatedAt  time.Time
}

type Booking struct {
	ID              int64
	BookingNumber   string
	UserID          sql.NullInt64
	GuestFirstName  string
	GuestLastName   string
	GuestEmail      string
	GuestPhone      string
	SpecialRequests string
	Status          string
	PaymentStatus   string
	Gateway         string
	Currency        string
	SubtotalCents   int64
	TaxCents        int64
	ServiceFeeCents int64
	TotalCents      int64
	HoldExpiresAt   time.Time
	StartsAt        time.Time
	EndsAt          time.Time
	ReminderSentAt  sql.NullTime
	ConfirmedAt     sql.NullTime
	CancelledAt     sql.NullTime
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type BookingItem struct {
	ID              int64
	BookingID       int64
	ItemType        string
	AccommodationID sql.NullInt64
	ActivitySlotID  sql.NullInt64
	Description     string
	CheckIn         sql.NullString
	CheckOut        sql.NullString
	Guests          int64
	Nights          int64
	UnitPriceCents  int64
	LineTotalCents  int64
}

type Cart struct {
	ID              int64
	Token           string
	UserID          sql.NullInt64
	GuestFirstName  sql.NullString
	GuestLastName   sql.NullString
	GuestEmail      sql.NullString
	GuestPhone      sql.NullString
	SpecialRequests sql.NullString
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type CartItem struct {
	ID              int64
	CartID          int64
	ItemType        string
	AccommodationID sql.NullInt64
	ActivitySlotID  sql.NullInt64
	CheckIn         sql.NullString
	CheckOut        sql.NullString
	Guests          int64
	CreatedAt       time.Time
}

type Favorite struct {
	UserID    int64
	ItemType  string
	ItemID    int64
	CreatedAt time.Time
}

type Payment struct {
	ID          int64
	BookingID   int64
	Gateway     string
	Reference   string
	AmountCents int64
	Currency    string
	Status      string
	CheckoutUrl string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type User struct {
	ID           int64
	Email        string
	PasswordHash sql.NullString
	FirstName    string
	LastName     string
	Phone        sql.NullString
	Role         string
	Status       string
	ClerkUserID  sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
