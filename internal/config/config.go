package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	DSN       string
	JWTSecret string
	AppPort   string
	UploadDir string

	// Daraja (M-Pesa) credentials.
	MpesaBaseURL     string
	MpesaConsumerKey string
	MpesaSecret      string
	MpesaShortcode   string
	MpesaPasskey     string
	MpesaCallbackURL string

	// Contact-unlock pricing and entitlement window.
	UnlockPrice    decimal.Decimal
	UnlockWindow   time.Duration
	ReminderLead   time.Duration
	SweepInterval  time.Duration
	PendingTimeout time.Duration
}

func Load() Config {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ .env file not found, using system environment variables")
	}

	cfg := Config{
		DSN:              os.Getenv("MYSQL_DSN"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		AppPort:          os.Getenv("APP_PORT"),
		UploadDir:        os.Getenv("UPLOAD_DIR"),
		MpesaBaseURL:     os.Getenv("MPESA_BASE_URL"),
		MpesaConsumerKey: os.Getenv("MPESA_CONSUMER_KEY"),
		MpesaSecret:      os.Getenv("MPESA_CONSUMER_SECRET"),
		MpesaShortcode:   os.Getenv("MPESA_SHORTCODE"),
		MpesaPasskey:     os.Getenv("MPESA_PASSKEY"),
		MpesaCallbackURL: os.Getenv("MPESA_CALLBACK_URL"),
	}

	if cfg.DSN == "" {
		log.Fatal("❌ MYSQL_DSN not set in environment")
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-only"
	}
	if cfg.AppPort == "" {
		cfg.AppPort = "8080"
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}
	if cfg.MpesaBaseURL == "" {
		cfg.MpesaBaseURL = "https://sandbox.safaricom.co.ke"
	}

	cfg.UnlockPrice = decimalEnv("UNLOCK_PRICE_KES", "200")
	cfg.UnlockWindow = durationEnv("UNLOCK_WINDOW_HOURS", 72) * time.Hour
	cfg.ReminderLead = durationEnv("REMINDER_LEAD_HOURS", 12) * time.Hour
	cfg.SweepInterval = durationEnv("SWEEP_INTERVAL_MINUTES", 10) * time.Minute
	cfg.PendingTimeout = durationEnv("PENDING_TIMEOUT_MINUTES", 5) * time.Minute

	return cfg
}

func decimalEnv(key, def string) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		v = def
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		log.Fatalf("❌ invalid %s: %v", key, err)
	}
	return d
}

func durationEnv(key string, def int64) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return time.Duration(def)
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		log.Fatalf("❌ invalid %s: must be a positive integer", key)
	}
	return time.Duration(n)
}
