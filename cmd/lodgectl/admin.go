// cmd/lodgectl/admin.go
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/codr1/Lodgeicious/internal/api/auth"
	"github.com/codr1/Lodgeicious/internal/api/authz"
	"github.com/codr1/Lodgeicious/internal/db"
	dbgen "github.com/codr1/Lodgeicious/internal/db/generated"
)

const minPasswordLength = 8

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage admin accounts",
}

var adminOpts adminAccount

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an admin account with a password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := resolveTarget()
		if err != nil {
			return err
		}
		database, err := db.New(t.path)
		if err != nil {
			return err
		}
		defer database.Close()

		user, err := createAdmin(cmd.Context(), database.Queries, adminOpts)
		if err != nil {
			return err
		}
		log.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("Admin account created")
		fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (id %d)\n", user.Email, user.ID)
		return nil
	},
}

func init() {
	adminCreateCmd.Flags().StringVar(&adminOpts.Email, "email", "", "admin email address")
	adminCreateCmd.Flags().StringVar(&adminOpts.Password, "password", "", "admin password")
	adminCreateCmd.Flags().StringVar(&adminOpts.FirstName, "first", "", "first name")
	adminCreateCmd.Flags().StringVar(&adminOpts.LastName, "last", "", "last name")
	_ = adminCreateCmd.MarkFlagRequired("email")
	_ = adminCreateCmd.MarkFlagRequired("password")

	adminCmd.AddCommand(adminCreateCmd)
}

type adminAccount struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

func createAdmin(ctx context.Context, q *dbgen.Queries, account adminAccount) (dbgen.User, error) {
	email := strings.ToLower(strings.TrimSpace(account.Email))
	if email == "" || !strings.Contains(email, "@") {
		return dbgen.User{}, fmt.Errorf("a valid --email is required")
	}
	if len(account.Password) < minPasswordLength {
		return dbgen.User{}, fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	_, err := q.GetUserByEmail(ctx, email)
	if err == nil {
		return dbgen.User{}, fmt.Errorf("a user with email %s already exists", email)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return dbgen.User{}, fmt.Errorf("look up user: %w", err)
	}

	hash, err := auth.HashPassword(account.Password)
	if err != nil {
		return dbgen.User{}, fmt.Errorf("hash password: %w", err)
	}
	user, err := q.CreateUser(ctx, dbgen.CreateUserParams{
		Email:        email,
		PasswordHash: sql.NullString{String: hash, Valid: true},
		FirstName:    strings.TrimSpace(account.FirstName),
		LastName:     strings.TrimSpace(account.LastName),
		Role:         authz.RoleAdmin,
	})
	if err != nil {
		return dbgen.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}
