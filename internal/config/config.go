// Package config loads runtime configuration from environment
// variables, optionally seeded from a .env file.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Strings for
// identifiers and secrets, ints for costs, with required values
// enforced by must().
type Config struct {
	Env  string
	Port string

	DBUser         string
	DBPass         string
	DBHost         string
	DBPort         string
	DBName         string
	DBMaxOpenConns int
	DBMaxIdleConns int

	SessionSecret string
	BcryptCost    int

	// BaseURL is embedded in emailed verification/reset links.
	BaseURL string

	// SMTP settings; when SMTPHost is empty mail is written to the log.
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	MailFrom string

	// AMQPURL enables queue-backed mail dispatch when set.
	AMQPURL string
}

// Load reads configuration from the environment. Missing required
// variables abort startup with a fatal log message.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:            getenv("APP_ENV", "dev"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		DBMaxOpenConns: getenvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getenvInt("DB_MAX_IDLE_CONNS", 25),
		SessionSecret:  must("SESSION_SECRET"),
		BcryptCost:     getenvInt("BCRYPT_COST", 12),
		BaseURL:        must("APP_BASE_URL"),
		SMTPHost:       os.Getenv("SMTP_HOST"),
		SMTPPort:       getenv("SMTP_PORT", "587"),
		SMTPUser:       os.Getenv("SMTP_USER"),
		SMTPPass:       os.Getenv("SMTP_PASS"),
		MailFrom:       getenv("MAIL_FROM", os.Getenv("SMTP_USER")),
		AMQPURL:        os.Getenv("AMQP_URL"),
	}
}

// IsProd reports whether the app runs in production mode; it controls
// the session cookie's Secure flag.
func (c Config) IsProd() bool { return c.Env == "prod" }

func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
