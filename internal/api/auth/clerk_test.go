package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clerk/clerk-sdk-go/v2"

	"github.com/codr1/Lodgeicious/internal/api/authz"
	"github.com/codr1/Lodgeicious/internal/db"
	"github.com/codr1/Lodgeicious/internal/testutil"
)

func setupClerkTest(t *testing.T) *db.DB {
	t.Helper()

	database := testutil.NewTestDB(t)

	// Save and restore global state
	prevQueries := queries
	prevClerkInit := clerkInitialized
	t.Cleanup(func() {
		queries = prevQueries
		clerkInitialized = prevClerkInit
	})

	queries = database.Queries

	testutil.SeedUser(t, database, "member@test.com", authz.RoleGuest, "")
	testutil.SeedUser(t, database, "second@test.com", authz.RoleGuest, "")
	return database
}

func TestInitClerk(t *testing.T) {
	// Save and restore global state
	prevClerkInit := clerkInitialized
	t.Cleanup(func() {
		clerkInitialized = prevClerkInit
	})

	t.Run("empty secret key does not initialize", func(t *testing.T) {
		clerkInitialized = false
		InitClerk("")
		if clerkInitialized {
			t.Error("expected clerkInitialized to be false with empty key")
		}
	})

	t.Run("valid secret key initializes", func(t *testing.T) {
		clerkInitialized = false
		InitClerk("sk_test_xxx")
		if !clerkInitialized {
			t.Error("expected clerkInitialized to be true with valid key")
		}
	})
}

func TestFindLocalUserFromClerk(t *testing.T) {
	database := setupClerkTest(t)
	ctx := context.Background()

	t.Run("find by primary email and link clerk id", func(t *testing.T) {
		emailID := "email_123"
		clerkUser := &clerk.User{
			ID:                    "user_primary",
			PrimaryEmailAddressID: &emailID,
			EmailAddresses: []*clerk.EmailAddress{
				{ID: "email_000", EmailAddress: "second@test.com"},
				{ID: emailID, EmailAddress: "Member@Test.com"},
			},
		}

		user, err := findLocalUserFromClerk(ctx, clerkUser)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.Email != "member@test.com" {
			t.Errorf("expected primary email to win, got %s", user.Email)
		}

		linked, err := database.Queries.GetUserByClerkID(ctx, sql.NullString{String: "user_primary", Valid: true})
		if err != nil {
			t.Fatalf("expected clerk id to be linked: %v", err)
		}
		if linked.ID != user.ID {
			t.Errorf("expected linked user %d, got %d", user.ID, linked.ID)
		}
	})

	t.Run("linked clerk id wins over email", func(t *testing.T) {
		clerkUser := &clerk.User{
			ID: "user_primary",
			EmailAddresses: []*clerk.EmailAddress{
				{ID: "email_999", EmailAddress: "changed@test.com"},
			},
		}

		user, err := findLocalUserFromClerk(ctx, clerkUser)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.Email != "member@test.com" {
			t.Errorf("expected the linked account, got %s", user.Email)
		}
	})

	t.Run("find by secondary email when primary not found", func(t *testing.T) {
		emailID := "email_123"
		clerkUser := &clerk.User{
			ID:                    "user_secondary",
			PrimaryEmailAddressID: &emailID,
			EmailAddresses: []*clerk.EmailAddress{
				{ID: emailID, EmailAddress: "notfound@test.com"},
				{ID: "email_456", EmailAddress: "second@test.com"},
			},
		}

		user, err := findLocalUserFromClerk(ctx, clerkUser)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.Email != "second@test.com" {
			t.Errorf("expected email second@test.com, got %s", user.Email)
		}
	})

	t.Run("unknown email creates a guest", func(t *testing.T) {
		first := "Grace"
		clerkUser := &clerk.User{
			ID:        "user_new",
			FirstName: &first,
			EmailAddresses: []*clerk.EmailAddress{
				{ID: "email_777", EmailAddress: "grace@test.com"},
			},
		}

		user, err := findLocalUserFromClerk(ctx, clerkUser)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.Role != authz.RoleGuest || user.FirstName != "Grace" {
			t.Errorf("unexpected guest %+v", user)
		}
		if !user.ClerkUserID.Valid || user.ClerkUserID.String != "user_new" {
			t.Errorf("expected clerk id on new guest, got %+v", user.ClerkUserID)
		}
	})

	t.Run("no email is rejected", func(t *testing.T) {
		_, err := findLocalUserFromClerk(ctx, &clerk.User{ID: "user_empty"})
		if !errors.Is(err, errNoClerkEmail) {
			t.Fatalf("expected errNoClerkEmail, got %v", err)
		}
	})
}

func TestClerkCallbackWithoutClaimsRedirectsToLogin(t *testing.T) {
	setupClerkTest(t)
	clerkInitialized = true

	req := httptest.NewRequest(http.MethodGet, "/auth/clerk/callback", nil)
	rec := httptest.NewRecorder()
	HandleClerkCallback(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
}

func TestClerkCallbackUnavailableWhenNotConfigured(t *testing.T) {
	setupClerkTest(t)
	clerkInitialized = false

	rec := httptest.NewRecorder()
	HandleClerkCallback(rec, httptest.NewRequest(http.MethodGet, "/auth/clerk/callback", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
