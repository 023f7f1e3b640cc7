package main

import (
	"context"
	"strings"
	"testing"

	"github.com/codr1/Lodgeicious/internal/api/auth"
	"github.com/codr1/Lodgeicious/internal/api/authz"
	"github.com/codr1/Lodgeicious/internal/testutil"
)

func TestCreateAdmin(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	user, err := createAdmin(ctx, database.Queries, adminAccount{
		Email:     " Owner@Example.com ",
		Password:  "correct horse",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if user.Email != "owner@example.com" || user.Role != authz.RoleAdmin {
		t.Fatalf("unexpected user: %+v", user)
	}
	if !user.PasswordHash.Valid || !auth.VerifyPassword(user.PasswordHash.String, "correct horse") {
		t.Fatalf("expected stored password to verify")
	}

	tests := []struct {
		name    string
		account adminAccount
		want    string
	}{
		{name: "duplicate email", account: adminAccount{Email: "owner@example.com", Password: "another pass"}, want: "already exists"},
		{name: "short password", account: adminAccount{Email: "new@example.com", Password: "short"}, want: "at least 8"},
		{name: "missing email", account: adminAccount{Password: "long enough"}, want: "--email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := createAdmin(ctx, database.Queries, tt.account)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
