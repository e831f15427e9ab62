package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var DB *gorm.DB

// App holds the loaded configuration. It is set exactly once by LoadConfig at
// process start; nothing else writes it.
var App *Config

// Config holds all configuration for the application
type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	JWTSecret  string
	Port       string
	Env        string

	// BecoinPriceUSD is the fixed conversion rate: USD per one becoin.
	BecoinPriceUSD decimal.Decimal
	// PlatformWalletID is the platform's own wallet, used as the implicit
	// counterparty for flows without an explicit destination.
	PlatformWalletID string
	// PendingDeadline is how long an external-confirmation request may stay
	// PENDING before the background sweep fails it. Zero disables the sweep.
	PendingDeadline time.Duration

	RazorpayKey    string
	RazorpaySecret string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// A missing .env file is fine in deployed environments; variables come
	// from the process environment there.
	_ = godotenv.Load()

	price, err := decimal.NewFromString(getEnv("BECOIN_PRICE_USD", "0.05"))
	if err != nil {
		return nil, fmt.Errorf("invalid BECOIN_PRICE_USD: %v", err)
	}
	if !price.IsPositive() {
		return nil, fmt.Errorf("BECOIN_PRICE_USD must be positive, got %s", price)
	}

	deadlineHours, err := strconv.Atoi(getEnv("PENDING_DEADLINE_HOURS", "0"))
	if err != nil || deadlineHours < 0 {
		return nil, fmt.Errorf("invalid PENDING_DEADLINE_HOURS: %q", os.Getenv("PENDING_DEADLINE_HOURS"))
	}

	config := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		Port:       getEnv("PORT", "8080"),
		Env:        os.Getenv("ENV"),

		BecoinPriceUSD:   price,
		PlatformWalletID: os.Getenv("PLATFORM_WALLET_ID"),
		PendingDeadline:  time.Duration(deadlineHours) * time.Hour,

		RazorpayKey:    os.Getenv("RAZORPAY_KEY"),
		RazorpaySecret: os.Getenv("RAZORPAY_SECRET"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     os.Getenv("SMTP_PORT"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),
	}

	App = config
	return config, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
