package dbgen

import (
	"context"
	"database/sql"
	"time"
)

type Querier interface {
	AddBookingItem(ctx context.Context, arg AddBookingItemParams) (BookingItem, error)
	AddCartItem(ctx context.Context, arg AddCartItemParams) (CartItem, error)
	AddFavorite(ctx context.Context, arg AddFavoriteParams) error
	ClearCart(ctx context.Context, cartID int64) error
	CountAccommodations(ctx context.Context, arg CountAccommodationsParams) (int64, error)
	CountActivities(ctx context.Context, arg CountActivitiesParams) (int64, error)
	CountBookings(ctx context.Context, arg CountBookingsParams) (int64, error)
	CountBookingsCreatedBetween(ctx context.Context, arg CountBookingsCreatedBetweenParams) (int64, error)
	CountBookingsForUser(ctx context.Context, userID sql.NullInt64) (int64, error)
	CountCartItems(ctx context.Context, cartID int64) (int64, error)
	CountOverlappingStays(ctx context.Context, arg CountOverlappingStaysParams) (int64, error)
	CountPendingHolds(ctx context.Context, now time.Time) (int64, error)
	CountUsers(ctx context.Context, search string) (int64, error)
	CreateAccommodation(ctx context.Context, arg CreateAccommodationParams) (Accommodation, error)
	CreateActivity(ctx context.Context, arg CreateActivityParams) (Activity, error)
	CreateActivitySlot(ctx context.Context, arg CreateActivitySlotParams) (ActivitySlot, error)
	CreateBooking(ctx context.Context, arg CreateBookingParams) (Booking, error)
	CreateCart(ctx context.Context, arg CreateCartParams) (Cart, error)
	CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error)
	CreateUser(ctx context.Context, arg CreateUserParams) (User, error)
	DeleteAbandonedCarts(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteActivitySlot(ctx context.Context, arg DeleteActivitySlotParams) (int64, error)
	DeleteCartItem(ctx context.Context, arg DeleteCartItemParams) (int64, error)
	ExpirePendingBookings(ctx context.Context, now time.Time) ([]Booking, error)
	GetAccommodation(ctx context.Context, id int64) (Accommodation, error)
	GetAccommodationBySlug(ctx context.Context, slug string) (Accommodation, error)
	GetActivity(ctx context.Context, id int64) (Activity, error)
	GetActivityBySlug(ctx context.Context, slug string) (Activity, error)
	GetActivitySlot(ctx context.Context, id int64) (GetActivitySlotRow, error)
	GetBooking(ctx context.Context, id int64) (Booking, error)
	GetBookingByNumber(ctx context.Context, bookingNumber string) (Booking, error)
	GetCartByToken(ctx context.Context, token string) (Cart, error)
	GetCartItem(ctx context.Context, arg GetCartItemParams) (CartItem, error)
	GetLatestCartForUser(ctx context.Context, userID sql.NullInt64) (Cart, error)
	GetPaymentByReference(ctx context.Context, arg GetPaymentByReferenceParams) (Payment, error)
	GetUserByClerkID(ctx context.Context, clerkUserID sql.NullString) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id int64) (User, error)
	IsFavorite(ctx context.Context, arg IsFavoriteParams) (int64, error)
	ListAccommodationUnitTypes(ctx context.Context) ([]string, error)
	ListAccommodations(ctx context.Context, arg ListAccommodationsParams) ([]Accommodation, error)
	ListActivities(ctx context.Context, arg ListActivitiesParams) ([]Activity, error)
	ListActivityCategories(ctx context.Context) ([]string, error)
	ListBookingItems(ctx context.Context, bookingID int64) ([]BookingItem, error)
	ListBookings(ctx context.Context, arg ListBookingsParams) ([]Booking, error)
	ListBookingsForUser(ctx context.Context, arg ListBookingsForUserParams) ([]Booking, error)
	ListBookingsNeedingReminder(ctx context.Context, arg ListBookingsNeedingReminderParams) ([]Booking, error)
	ListCartItems(ctx context.Context, cartID int64) ([]ListCartItemsRow, error)
	ListFavoriteAccommodations(ctx context.Context, userID int64) ([]Accommodation, error)
	ListFavoriteActivities(ctx context.Context, userID int64) ([]Activity, error)
	ListFavoriteIDs(ctx context.Context, userID int64) ([]ListFavoriteIDsRow, error)
	ListFeaturedAccommodations(ctx context.Context, limit int64) ([]Accommodation, error)
	ListFeaturedActivities(ctx context.Context, limit int64) ([]Activity, error)
	ListPaymentsForBooking(ctx context.Context, bookingID int64) ([]Payment, error)
	ListUpcomingArrivals(ctx context.Context, arg ListUpcomingArrivalsParams) ([]Booking, error)
	ListUpcomingSlots(ctx context.Context, arg ListUpcomingSlotsParams) ([]ListUpcomingSlotsRow, error)
	ListUsers(ctx context.Context, arg ListUsersParams) ([]User, error)
	MarkReminderSent(ctx context.Context, arg MarkReminderSentParams) error
	RemoveFavorite(ctx context.Context, arg RemoveFavoriteParams) (int64, error)
	SetCartUser(ctx context.Context, arg SetCartUserParams) error
	SetUserClerkID(ctx context.Context, arg SetUserClerkIDParams) error
	SumHeldSlotParticipants(ctx context.Context, arg SumHeldSlotParticipantsParams) (int64, error)
	SumPaidRevenueBetween(ctx context.Context, arg SumPaidRevenueBetweenParams) (int64, error)
	TouchCart(ctx context.Context, id int64) error
	TransitionBooking(ctx context.Context, arg TransitionBookingParams) (Booking, error)
	UpdateAccommodation(ctx context.Context, arg UpdateAccommodationParams) (Accommodation, error)
	UpdateAccommodationStatus(ctx context.Context, arg UpdateAccommodationStatusParams) (Accommodation, error)
	UpdateActivity(ctx context.Context, arg UpdateActivityParams) (Activity, error)
	UpdateActivityStatus(ctx context.Context, arg UpdateActivityStatusParams) (Activity, error)
	UpdateBookingPaymentStatus(ctx context.Context, arg UpdateBookingPaymentStatusParams) (Booking, error)
	UpdateCartDetails(ctx context.Context, arg UpdateCartDetailsParams) error
	UpdateCartItemGuests(ctx context.Context, arg UpdateCartItemGuestsParams) (int64, error)
	UpdatePaymentStatus(ctx context.Context, arg UpdatePaymentStatusParams) error
	UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) error
	UpdateUserRole(ctx context.Context, arg UpdateUserRoleParams) (User, error)
	UpdateUserStatus(ctx context.Context, arg UpdateUserStatusParams) (User, error)
	UpsertAccommodation(ctx context.Context, arg UpsertAccommodationParams) (Accommodation, error)
	UpsertActivity(ctx context.Context, arg UpsertActivityParams) (Activity, error)
	UpsertActivitySlot(ctx context.Context, arg UpsertActivitySlotParams) (ActivitySlot, error)
}

var _ Querier = (*Queries)(nil)
