// internal/api/admin/handlers.go
package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/codr1/Lodgeicious/internal/api/apiutil"
	"github.com/codr1/Lodgeicious/internal/booking"
	"github.com/codr1/Lodgeicious/internal/db"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
	admintempl "github.com/codr1/Lodgeicious/internal/templates/components/admin"
)

const (
	adminQueryTimeout = 5 * time.Second
	arrivalsWindow    = 7 * 24 * time.Hour
	arrivalsLimit     = 20
)

// Notifier sends the guest emails that follow an admin status change.
type Notifier interface {
	BookingConfirmed(ctx context.Context, b dbgen.Booking, items []dbgen.BookingItem)
	BookingCancelled(ctx context.Context, b dbgen.Booking, items []dbgen.BookingItem, reason string)
}

var (
	database *db.DB
	queries  *dbgen.Queries
	bookings *booking.Service
	notifier Notifier
	location = time.UTC
	currency = "USD"
	now      = time.Now
)

type Deps struct {
	DB       *db.DB
	Bookings *booking.Service
	Notifier Notifier
	Location *time.Location
	Currency string
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(deps Deps) {
	database = deps.DB
	if deps.DB != nil {
		queries = deps.DB.Queries
	}
	bookings = deps.Bookings
	notifier = deps.Notifier
	if deps.Location != nil {
		location = deps.Location
	}
	if deps.Currency != "" {
		currency = deps.Currency
	}
}

func ready(w http.ResponseWriter, r *http.Request) bool {
	if queries == nil {
		log.Ctx(r.Context()).Error().Msg("Database queries not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return false
	}
	return true
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// GET /admin
func HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if !ready(w, r) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), adminQueryTimeout)
	defer cancel()

	data, err := loadDashboard(ctx, now().In(location))
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to load dashboard")
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}
	if apiutil.WantsJSON(r) {
		resp := dashboardResponse{
			BookingsToday:         data.BookingsToday,
			BookingsThisMonth:     data.BookingsThisMonth,
			RevenueThisMonthCents: data.RevenueThisMonthCents,
			PendingHolds:          data.PendingHolds,
			UpcomingArrivals:      int64(len(data.Arrivals)),
			Currency:              data.Currency,
		}
		if err := apiutil.WriteJSON(w, http.StatusOK, resp); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write dashboard response")
		}
		return
	}
	apiutil.RenderPage(w, r, http.StatusOK, "Dashboard", admintempl.DashboardPage(data))
}

type dashboardResponse struct {
	BookingsToday         int64  `json:"bookings_today"`
	BookingsThisMonth     int64  `json:"bookings_this_month"`
	RevenueThisMonthCents int64  `json:"revenue_this_month_cents"`
	PendingHolds          int64  `json:"pending_holds"`
	UpcomingArrivals      int64  `json:"upcoming_arrivals"`
	Currency              string `json:"currency"`
}

// loadDashboard runs the dashboard queries concurrently. Day and month
// boundaries are the lodge's local ones.
func loadDashboard(ctx context.Context, local time.Time) (admintempl.DashboardData, error) {
	today := startOfDay(local)
	month := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, local.Location())
	data := admintempl.DashboardData{Currency: currency, Location: location}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data.BookingsToday, err = queries.CountBookingsCreatedBetween(ctx, dbgen.CountBookingsCreatedBetweenParams{
			FromTime: db.Timestamp(today),
			ToTime:   db.Timestamp(today.AddDate(0, 0, 1)),
		})
		return err
	})
	g.Go(func() error {
		var err error
		data.BookingsThisMonth, err = queries.CountBookingsCreatedBetween(ctx, dbgen.CountBookingsCreatedBetweenParams{
			FromTime: db.Timestamp(month),
			ToTime:   db.Timestamp(month.AddDate(0, 1, 0)),
		})
		return err
	})
	g.Go(func() error {
		var err error
		data.RevenueThisMonthCents, err = queries.SumPaidRevenueBetween(ctx, dbgen.SumPaidRevenueBetweenParams{
			FromTime: db.Timestamp(month),
			ToTime:   db.Timestamp(month.AddDate(0, 1, 0)),
		})
		return err
	})
	g.Go(func() error {
		var err error
		data.PendingHolds, err = queries.CountPendingHolds(ctx, db.Timestamp(local))
		return err
	})
	g.Go(func() error {
		var err error
		data.Arrivals, err = queries.ListUpcomingArrivals(ctx, dbgen.ListUpcomingArrivalsParams{
			FromTime: db.Timestamp(local),
			ToTime:   db.Timestamp(local.Add(arrivalsWindow)),
			Limit:    arrivalsLimit,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return admintempl.DashboardData{}, err
	}
	return data, nil
}
