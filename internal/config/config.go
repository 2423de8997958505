package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	JWTSecret   string
	SkipAuth    bool
	Environment string
	AppId       string

	// App state store (sync logs, settings, upload history, log sink)
	MongoURI string
	DBName   string

	// Supabase Postgres (customer data, blacklist, POS ingestion)
	SupabaseDBURL string

	// WhatChimp CRM
	WhatChimpBaseURL string
	WhatChimpAPIKey  string
	WhatChimpPhoneID string

	// Twilio operator notifications (optional)
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string
	TwilioAdminTo    string

	// Sync tuning. Concurrency stays a static cap; the provider silently
	// drops requests above 5 parallel calls and gives no backpressure signal.
	SyncConcurrency int
	SyncSchedule    string

	AllowedOrigins string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		SkipAuth:    getEnv("SKIP_AUTH", "false") == "true",
		Environment: getEnv("ENVIRONMENT", "development"),
		AppId:       getEnv("APP_ID", "lavpop-sync"),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:   getEnv("DB_NAME", "lavpop"),

		SupabaseDBURL: os.Getenv("SUPABASE_DB_URL"),

		WhatChimpBaseURL: getEnv("WHATCHIMP_BASE_URL", "https://app.whatchimp.com/api/v1"),
		WhatChimpAPIKey:  firstEnv("WHATCHIMP_API_KEY", "WHATCHIMP_API_TOKEN"),
		WhatChimpPhoneID: firstEnv("WHATCHIMP_PHONE_ID", "WHATCHIMP_PHONE_NUMBER_ID"),

		TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:       os.Getenv("TWILIO_FROM"),
		TwilioAdminTo:    os.Getenv("TWILIO_ADMIN_TO"),

		SyncConcurrency: getEnvInt("SYNC_CONCURRENCY", 5),
		SyncSchedule:    getEnv("SYNC_SCHEDULE", "0 3 * * *"),

		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000, http://localhost:5173"),
	}

	if cfg.SyncConcurrency < 1 {
		cfg.SyncConcurrency = 1
	}

	return cfg, nil
}

// ValidateSyncCredentials fails fast when the credentials the sync pipeline
// needs are missing, before any work starts.
func (c *Config) ValidateSyncCredentials() error {
	if c.SupabaseDBURL == "" {
		return fmt.Errorf("SUPABASE_DB_URL is not configured")
	}
	if c.WhatChimpAPIKey == "" {
		return fmt.Errorf("WHATCHIMP_API_KEY (or WHATCHIMP_API_TOKEN) is not configured")
	}
	if c.WhatChimpPhoneID == "" {
		return fmt.Errorf("WHATCHIMP_PHONE_ID (or WHATCHIMP_PHONE_NUMBER_ID) is not configured")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

// firstEnv returns the first non-empty value among the given variable names.
// Older deployments used different names for the same credential.
func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}
