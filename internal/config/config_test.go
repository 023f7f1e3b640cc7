package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validConfig = `app:
  name: "Lodgeicious"
  port: 8080
  base_url: "http://localhost:8080/"
database:
  driver: "sqlite"
  filename: "data/lodge.db"
pricing:
  currency: "usd"
  tax_rate: "0.15"
  service_fee_rate: "0.03"
payments:
  default_gateway: "simulated"
  enabled: ["simulated", "stripe"]
`

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(validConfig))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate config: %v", err)
	}

	if cfg.App.BaseURL != "http://localhost:8080" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.App.BaseURL)
	}
	if cfg.Pricing.Currency != "USD" {
		t.Fatalf("expected currency upper-cased, got %q", cfg.Pricing.Currency)
	}
	if cfg.Booking.PendingHoldMinutes != 30 {
		t.Fatalf("expected default hold of 30 minutes, got %d", cfg.Booking.PendingHoldMinutes)
	}
	if cfg.Booking.CheckInHour != 15 || cfg.Booking.CheckOutHour != 11 {
		t.Fatalf("unexpected default check-in/out hours: %d/%d", cfg.Booking.CheckInHour, cfg.Booking.CheckOutHour)
	}
	rate, err := cfg.TaxRate()
	if err != nil {
		t.Fatalf("tax rate: %v", err)
	}
	if rate.String() != "0.15" {
		t.Fatalf("expected tax rate 0.15, got %s", rate)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing name", func(c *Config) { c.App.Name = "" }, "app name"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "postgres" }, "unsupported database driver"},
		{"negative tax", func(c *Config) { c.Pricing.TaxRate = "-0.1" }, "tax_rate"},
		{"garbage fee", func(c *Config) { c.Pricing.ServiceFeeRate = "abc" }, "service_fee_rate"},
		{"unknown gateway", func(c *Config) { c.Payments.Enabled = []string{"paypal"} }, "unsupported payment gateway"},
		{"default not enabled", func(c *Config) { c.Payments.DefaultGateway = "flutterwave" }, "not enabled"},
		{"bad cron", func(c *Config) { c.Scheduler.Reminders = "every minute" }, "reminders"},
		{"bad timezone", func(c *Config) { c.Booking.Timezone = "Mars/Olympus" }, "timezone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(validConfig))
			if err != nil {
				t.Fatalf("parse config: %v", err)
			}
			tt.mutate(cfg)
			err = cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadReadsSecretsFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(validConfig), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("APP_SECRET_KEY", "secret")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.App.SecretKey != "secret" {
		t.Fatalf("expected secret key from env, got %q", cfg.App.SecretKey)
	}
	if cfg.Payments.StripeSecretKey != "sk_test_123" {
		t.Fatalf("expected stripe key from env, got %q", cfg.Payments.StripeSecretKey)
	}
}
