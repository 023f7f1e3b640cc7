package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	GatewayStripe      = "stripe"
	GatewayFlutterwave = "flutterwave"
	GatewaySimulated   = "simulated"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type PricingConfig struct {
	Currency       string `yaml:"currency"`
	TaxRate        string `yaml:"tax_rate"`
	ServiceFeeRate string `yaml:"service_fee_rate"`
}

type BookingConfig struct {
	Timezone                string `yaml:"timezone"`
	CheckInHour             int    `yaml:"check_in_hour"`
	CheckOutHour            int    `yaml:"check_out_hour"`
	PendingHoldMinutes      int64  `yaml:"pending_hold_minutes"`
	CancellationCutoffHours int64  `yaml:"cancellation_cutoff_hours"`
	MaxAdvanceDays          int64  `yaml:"max_advance_days"`
	ReminderHoursBefore     int64  `yaml:"reminder_hours_before"`
}

type PaymentsConfig struct {
	DefaultGateway     string   `yaml:"default_gateway"`
	Enabled            []string `yaml:"enabled"`
	FlutterwaveBaseURL string   `yaml:"flutterwave_base_url,omitempty"`
	StripeSecretKey    string   `yaml:"-"` // Loaded from environment
	FlutterwaveSecret  string   `yaml:"-"` // Loaded from environment
}

type SchedulerConfig struct {
	ExpireHolds  string `yaml:"expire_holds"`
	PruneCarts   string `yaml:"prune_carts"`
	Reminders    string `yaml:"reminders"`
	CartTTLHours int64  `yaml:"cart_ttl_hours"`
}

type EmailConfig struct {
	Sender          string `yaml:"sender"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"-"`
	SecretAccessKey string `yaml:"-"`
}

type AuthConfig struct {
	TrustProxy      bool   `yaml:"trust_proxy"`
	CognitoPoolID   string `yaml:"cognito_pool_id"`
	CognitoClientID string `yaml:"cognito_client_id"`
	ClerkSignInURL  string `yaml:"clerk_sign_in_url"`
	ClerkSecretKey  string `yaml:"-"`
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
		BaseURL     string `yaml:"base_url"`
		SecretKey   string `yaml:"-"` // Loaded from environment
	} `yaml:"app"`

	Database  DatabaseConfig  `yaml:"database"`
	Pricing   PricingConfig   `yaml:"pricing"`
	Booking   BookingConfig   `yaml:"booking"`
	Payments  PaymentsConfig  `yaml:"payments"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Email     EmailConfig     `yaml:"email"`
	Auth      AuthConfig      `yaml:"auth"`

	Features struct {
		EnableMetrics bool `yaml:"enable_metrics"`
		EnableDebug   bool `yaml:"enable_debug"`
	} `yaml:"features"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	// Load sensitive values from environment
	cfg.App.SecretKey = os.Getenv("APP_SECRET_KEY")
	cfg.Payments.StripeSecretKey = os.Getenv("STRIPE_SECRET_KEY")
	cfg.Payments.FlutterwaveSecret = os.Getenv("FLUTTERWAVE_SECRET_KEY")
	cfg.Email.AccessKeyID = os.Getenv("SES_ACCESS_KEY_ID")
	cfg.Email.SecretAccessKey = os.Getenv("SES_SECRET_ACCESS_KEY")
	cfg.Auth.ClerkSecretKey = os.Getenv("CLERK_SECRET_KEY")
	if poolID := os.Getenv("COGNITO_POOL_ID"); poolID != "" {
		cfg.Auth.CognitoPoolID = poolID
	}
	if clientID := os.Getenv("COGNITO_CLIENT_ID"); clientID != "" {
		cfg.Auth.CognitoClientID = clientID
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML and fills defaults without touching the environment.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}
	c.App.BaseURL = strings.TrimRight(c.App.BaseURL, "/")
	if c.Pricing.Currency == "" {
		c.Pricing.Currency = "USD"
	}
	c.Pricing.Currency = strings.ToUpper(c.Pricing.Currency)
	if c.Pricing.TaxRate == "" {
		c.Pricing.TaxRate = "0"
	}
	if c.Pricing.ServiceFeeRate == "" {
		c.Pricing.ServiceFeeRate = "0"
	}
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = "UTC"
	}
	if c.Booking.CheckInHour == 0 {
		c.Booking.CheckInHour = 15
	}
	if c.Booking.CheckOutHour == 0 {
		c.Booking.CheckOutHour = 11
	}
	if c.Booking.PendingHoldMinutes == 0 {
		c.Booking.PendingHoldMinutes = 30
	}
	if c.Booking.CancellationCutoffHours == 0 {
		c.Booking.CancellationCutoffHours = 48
	}
	if c.Booking.MaxAdvanceDays == 0 {
		c.Booking.MaxAdvanceDays = 365
	}
	if c.Booking.ReminderHoursBefore == 0 {
		c.Booking.ReminderHoursBefore = 48
	}
	if len(c.Payments.Enabled) == 0 {
		c.Payments.Enabled = []string{GatewaySimulated}
	}
	if c.Payments.DefaultGateway == "" {
		c.Payments.DefaultGateway = c.Payments.Enabled[0]
	}
	if c.Scheduler.ExpireHolds == "" {
		c.Scheduler.ExpireHolds = "*/5 * * * *"
	}
	if c.Scheduler.PruneCarts == "" {
		c.Scheduler.PruneCarts = "0 3 * * *"
	}
	if c.Scheduler.Reminders == "" {
		c.Scheduler.Reminders = "*/30 * * * *"
	}
	if c.Scheduler.CartTTLHours == 0 {
		c.Scheduler.CartTTLHours = 30 * 24
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if _, err := c.TaxRate(); err != nil {
		return err
	}
	if _, err := c.ServiceFeeRate(); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		return fmt.Errorf("booking timezone %q is invalid: %w", c.Booking.Timezone, err)
	}
	if c.Booking.CheckInHour < 0 || c.Booking.CheckInHour > 23 || c.Booking.CheckOutHour < 0 || c.Booking.CheckOutHour > 23 {
		return fmt.Errorf("check-in and check-out hours must be between 0 and 23")
	}
	if c.Booking.PendingHoldMinutes < 0 || c.Booking.CancellationCutoffHours < 0 || c.Booking.MaxAdvanceDays < 0 {
		return fmt.Errorf("booking durations must not be negative")
	}

	defaultEnabled := false
	for _, name := range c.Payments.Enabled {
		switch name {
		case GatewayStripe, GatewayFlutterwave, GatewaySimulated:
		default:
			return fmt.Errorf("unsupported payment gateway: %s", name)
		}
		if name == c.Payments.DefaultGateway {
			defaultEnabled = true
		}
	}
	if !defaultEnabled {
		return fmt.Errorf("default gateway %q is not enabled", c.Payments.DefaultGateway)
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	for name, expr := range map[string]string{
		"expire_holds": c.Scheduler.ExpireHolds,
		"prune_carts":  c.Scheduler.PruneCarts,
		"reminders":    c.Scheduler.Reminders,
	} {
		if _, err := parser.Parse(expr); err != nil {
			return fmt.Errorf("scheduler %s cron %q is invalid: %w", name, expr, err)
		}
	}

	return nil
}

// TaxRate parses pricing.tax_rate as a fraction of the subtotal.
func (c *Config) TaxRate() (decimal.Decimal, error) {
	return parseRate("tax_rate", c.Pricing.TaxRate)
}

// ServiceFeeRate parses pricing.service_fee_rate as a fraction of the subtotal.
func (c *Config) ServiceFeeRate() (decimal.Decimal, error) {
	return parseRate("service_fee_rate", c.Pricing.ServiceFeeRate)
}

// Location returns the lodge timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Booking.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func parseRate(field, raw string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("pricing %s %q is not a decimal: %w", field, raw, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("pricing %s must be between 0 and 1", field)
	}
	return rate, nil
}
