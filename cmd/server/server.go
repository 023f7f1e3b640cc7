// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/Lodgeicious/internal/api"
	"github.com/codr1/Lodgeicious/internal/api/admin"
	"github.com/codr1/Lodgeicious/internal/api/auth"
	"github.com/codr1/Lodgeicious/internal/api/bookings"
	cartapi "github.com/codr1/Lodgeicious/internal/api/cart"
	catalogapi "github.com/codr1/Lodgeicious/internal/api/catalog"
	"github.com/codr1/Lodgeicious/internal/api/checkout"
	"github.com/codr1/Lodgeicious/internal/api/favorites"
	"github.com/codr1/Lodgeicious/internal/availability"
	"github.com/codr1/Lodgeicious/internal/booking"
	"github.com/codr1/Lodgeicious/internal/cart"
	"github.com/codr1/Lodgeicious/internal/cognito"
	"github.com/codr1/Lodgeicious/internal/config"
	"github.com/codr1/Lodgeicious/internal/db"
	"github.com/codr1/Lodgeicious/internal/email"
	"github.com/codr1/Lodgeicious/internal/metrics"
	"github.com/codr1/Lodgeicious/internal/payments"
	"github.com/codr1/Lodgeicious/internal/pricing"
	"github.com/codr1/Lodgeicious/internal/ratelimit"
	"github.com/codr1/Lodgeicious/internal/scheduler"
	"github.com/codr1/Lodgeicious/internal/templates/layouts"
)

// Auth endpoints allow a short burst, then one request every few seconds per IP.
const (
	authRateInterval = 3 * time.Second
	authRateBurst    = 10
)

// app holds the services shared by handlers and background jobs.
type app struct {
	cfg      *config.Config
	jobs     *scheduler.Jobs
	authRate *ratelimit.Buckets
}

// newApp builds the domain services and hands them to every handler package.
func newApp(cfg *config.Config, database *db.DB) (*app, error) {
	loc := cfg.Location()
	rates, err := pricing.RatesFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("pricing rates: %w", err)
	}
	checker := availability.NewChecker(cfg.Booking.MaxAdvanceDays, loc)
	carts := cart.NewService(checker, rates, cfg.Pricing.Currency, loc)
	bookingSvc := booking.NewService(cfg, carts, checker)

	registry, simulated, err := payments.RegistryFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("payment gateways: %w", err)
	}
	paymentSvc := payments.NewService(registry, bookingSvc, cfg.App.BaseURL)

	sender, err := email.NewSender(cfg.Email)
	if err != nil {
		return nil, fmt.Errorf("email sender: %w", err)
	}
	notifier := &email.Notifier{
		Sender:           sender,
		LodgeName:        cfg.App.Name,
		BaseURL:          cfg.App.BaseURL,
		Location:         loc,
		CancellableUntil: bookingSvc.CancellableUntil,
	}

	var otp auth.OTPClient
	if cfg.Auth.CognitoPoolID != "" {
		client, err := cognito.NewClient(cfg.Auth)
		if err != nil {
			return nil, fmt.Errorf("cognito client: %w", err)
		}
		otp = client
	} else {
		log.Warn().Msg("Cognito not configured; passwordless sign-in is development only")
	}

	layouts.LodgeName = cfg.App.Name
	auth.InitClerk(cfg.Auth.ClerkSecretKey)

	catalogapi.InitHandlers(catalogapi.Deps{
		Queries:  database.Queries,
		Checker:  checker,
		Currency: cfg.Pricing.Currency,
		Location: loc,
	})
	cartapi.InitHandlers(cartapi.Deps{
		Queries:       database.Queries,
		Carts:         carts,
		SecureCookies: !cfg.IsDevelopment(),
	})
	favorites.InitHandlers(favorites.Deps{
		Queries:  database.Queries,
		Currency: cfg.Pricing.Currency,
	})
	auth.InitHandlers(auth.Deps{
		Config:     cfg,
		Queries:    database.Queries,
		Carts:      carts,
		OTP:        otp,
		OTPLimiter: ratelimit.NewOTP(ratelimit.DefaultOTPConfig()),
	})
	checkout.InitHandlers(checkout.Deps{
		DB:        database,
		Carts:     carts,
		Bookings:  bookingSvc,
		Payments:  paymentSvc,
		Simulated: simulated,
		Notifier:  notifier,
		Location:  loc,
	})
	bookings.InitHandlers(bookings.Deps{
		Queries:  database.Queries,
		Bookings: bookingSvc,
		Notifier: notifier,
		Location: loc,
	})
	admin.InitHandlers(admin.Deps{
		DB:       database,
		Bookings: bookingSvc,
		Notifier: notifier,
		Location: loc,
		Currency: cfg.Pricing.Currency,
	})

	return &app{
		cfg:      cfg,
		jobs:     scheduler.NewJobs(cfg, database, bookingSvc, notifier),
		authRate: ratelimit.NewBuckets(authRateInterval, authRateBurst),
	}, nil
}

func newServer(cfg *config.Config, a *app) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain; the last one listed runs first.
	var middleware []api.Middleware
	if cfg.Features.EnableMetrics {
		// Innermost, so it sees the request the mux stamps with its pattern.
		middleware = append(middleware, metrics.InstrumentHandler)
	}
	middleware = append(middleware,
		api.WithCart,
		api.WithAuth,
		auth.WithClerkSession,
		api.WithContentType,
		api.WithRequestID,
		api.WithRecovery,
		api.WithLogging,
	)
	handler := api.ChainMiddleware(router, middleware...)

	// Register routes
	registerRoutes(router, cfg, a)

	return &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, cfg *config.Config, a *app) {
	limited := func(h http.HandlerFunc) http.Handler {
		return a.authRate.Middleware(cfg.Auth.TrustProxy, h)
	}
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return api.WithAdminAuth(h)
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	if cfg.Features.EnableMetrics {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	// Catalog
	mux.HandleFunc("GET /{$}", catalogapi.HandleHome)
	mux.HandleFunc("GET /accommodations", catalogapi.HandleAccommodations)
	mux.HandleFunc("GET /accommodations/{slug}", catalogapi.HandleAccommodation)
	mux.HandleFunc("GET /activities", catalogapi.HandleActivities)
	mux.HandleFunc("GET /activities/{slug}", catalogapi.HandleActivity)
	mux.HandleFunc("GET /api/v1/accommodations", catalogapi.HandleAccommodationsAPI)
	mux.HandleFunc("GET /api/v1/activities", catalogapi.HandleActivitiesAPI)
	mux.HandleFunc("GET /api/v1/activities/{id}/slots", catalogapi.HandleSlotsAPI)
	mux.HandleFunc("GET /api/v1/accommodations/{id}/quote", catalogapi.HandleQuote)

	// Cart
	mux.HandleFunc("GET /cart", cartapi.HandleCartPage)
	mux.HandleFunc("GET /api/v1/cart", cartapi.HandleCartAPI)
	mux.HandleFunc("GET /cart/badge", cartapi.HandleBadge)
	mux.HandleFunc("POST /cart/stays", cartapi.HandleAddStay)
	mux.HandleFunc("POST /cart/activities", cartapi.HandleAddActivity)
	mux.HandleFunc("POST /cart/items/{id}", cartapi.HandleUpdateItem)
	mux.HandleFunc("DELETE /cart/items/{id}", cartapi.HandleRemoveItem)
	mux.HandleFunc("DELETE /cart", cartapi.HandleClearCart)

	// Favorites
	mux.HandleFunc("GET /favorites", favorites.HandleFavorites)
	mux.HandleFunc("POST /favorites/{kind}/{id}", favorites.HandleToggle)

	// Auth
	mux.HandleFunc("GET /login", auth.HandleLoginPage)
	mux.Handle("POST /login", limited(auth.HandleLogin))
	mux.HandleFunc("GET /register", auth.HandleRegisterPage)
	mux.Handle("POST /register", limited(auth.HandleRegister))
	mux.HandleFunc("POST /logout", auth.HandleLogout)
	mux.Handle("POST /auth/otp/send", limited(auth.HandleSendCode))
	mux.Handle("POST /auth/otp/verify", limited(auth.HandleVerifyCode))
	mux.HandleFunc("GET /auth/clerk/callback", auth.HandleClerkCallback)

	// Checkout
	mux.HandleFunc("GET /checkout", checkout.HandleDetailsPage)
	mux.HandleFunc("POST /checkout/details", checkout.HandleDetails)
	mux.HandleFunc("GET /checkout/review", checkout.HandleReview)
	mux.HandleFunc("POST /checkout/pay", checkout.HandlePay)
	mux.HandleFunc("POST /checkout/retry", checkout.HandleRetry)
	mux.HandleFunc("GET /checkout/return", checkout.HandleReturn)
	mux.HandleFunc("GET /checkout/simulate", checkout.HandleSimulatePage)
	mux.HandleFunc("POST /checkout/simulate", checkout.HandleSimulate)

	// Guest bookings
	mux.HandleFunc("GET /bookings", bookings.HandleMyBookings)
	mux.HandleFunc("GET /bookings/lookup", bookings.HandleLookup)
	mux.HandleFunc("GET /bookings/{number}", bookings.HandleBooking)
	mux.Handle("POST /bookings/{number}/cancel", limited(bookings.HandleCancel))

	// Back office
	mux.Handle("GET /admin", adminOnly(admin.HandleDashboard))
	mux.Handle("GET /admin/accommodations", adminOnly(admin.HandleAccommodations))
	mux.Handle("GET /admin/accommodations/new", adminOnly(admin.HandleNewAccommodation))
	mux.Handle("GET /admin/accommodations/{id}/edit", adminOnly(admin.HandleEditAccommodation))
	mux.Handle("POST /admin/accommodations", adminOnly(admin.HandleSaveAccommodation))
	mux.Handle("POST /admin/accommodations/{id}", adminOnly(admin.HandleSaveAccommodation))
	mux.Handle("POST /admin/accommodations/{id}/status", adminOnly(admin.HandleAccommodationStatus))
	mux.Handle("GET /admin/activities", adminOnly(admin.HandleActivities))
	mux.Handle("GET /admin/activities/new", adminOnly(admin.HandleNewActivity))
	mux.Handle("GET /admin/activities/{id}/edit", adminOnly(admin.HandleEditActivity))
	mux.Handle("POST /admin/activities", adminOnly(admin.HandleSaveActivity))
	mux.Handle("POST /admin/activities/{id}", adminOnly(admin.HandleSaveActivity))
	mux.Handle("POST /admin/activities/{id}/status", adminOnly(admin.HandleActivityStatus))
	mux.Handle("GET /admin/activities/{id}/slots", adminOnly(admin.HandleSlots))
	mux.Handle("POST /admin/activities/{id}/slots", adminOnly(admin.HandleAddSlot))
	mux.Handle("POST /admin/activities/{id}/slots/{slotID}/delete", adminOnly(admin.HandleDeleteSlot))
	mux.Handle("GET /admin/bookings", adminOnly(admin.HandleBookings))
	mux.Handle("GET /admin/bookings/{id}", adminOnly(admin.HandleBooking))
	mux.Handle("POST /admin/bookings/{id}/status", adminOnly(admin.HandleBookingStatus))
	mux.Handle("GET /admin/users", adminOnly(admin.HandleUsers))
	mux.Handle("POST /admin/users/{id}/role", adminOnly(admin.HandleUserRole))
	mux.Handle("POST /admin/users/{id}/status", adminOnly(admin.HandleUserStatus))

	// Static file handling with logging and environment awareness
	staticDir := os.Getenv("STATIC_DIR")
	if staticDir == "" {
		// Default to the build directory if not specified
		staticDir = "build/bin/static"
	}
	fs := http.FileServer(http.Dir(staticDir))

	mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Ctx(r.Context()).Debug().
			Str("path", r.URL.Path).
			Str("static_dir", staticDir).
			Msg("Static file request")
		http.StripPrefix("/static/", fs).ServeHTTP(w, r)
	}))
}
