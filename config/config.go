package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string     `env:"SERVER_PORT" envDefault:"5001"`
	LogLevel   slog.Level `env:"LOG_LEVEL" envDefault:"info"`

	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName     string `env:"DB_NAME" envDefault:"tickets_db"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	// RabbitURL is optional; without it lifecycle events are not published
	// and door scanners cannot check tickets in over the bus.
	RabbitURL string `env:"RABBITMQ_URL"`

	// RedisURL switches the rate limiter from process memory to Redis.
	RedisURL string `env:"REDIS_URL"`

	RateLimit RateLimit `envPrefix:"RATE_LIMIT_"`
	SMTP      SMTP      `envPrefix:"EMAIL_"`
	Admin     Admin     `envPrefix:"ADMIN_"`
	Pricing   Pricing   `envPrefix:"PRICE_"`

	// BackendBaseURL is used to build the verify link embedded in QR codes.
	BackendBaseURL string `env:"BACKEND_BASE_URL"`

	StrictIDValidation bool `env:"STRICT_ID_VALIDATION" envDefault:"true"`
	IDChecksum         bool `env:"ID_CHECKSUM" envDefault:"false"`
}

type RateLimit struct {
	Window time.Duration `env:"WINDOW" envDefault:"1m"`
	Limit  int           `env:"LIMIT" envDefault:"60"`
}

type SMTP struct {
	Host   string `env:"HOST" envDefault:"smtp.gmail.com"`
	Port   int    `env:"PORT" envDefault:"587"`
	Secure bool   `env:"SECURE" envDefault:"false"`
	User   string `env:"USER"`
	Pass   string `env:"PASS"`
	From   string `env:"FROM"`
}

// Enabled reports whether credentials are present.
func (s SMTP) Enabled() bool {
	return s.User != "" && s.Pass != ""
}

// FromAddress falls back to the SMTP user with the event branding.
func (s SMTP) FromAddress() string {
	if s.From != "" {
		return s.From
	}
	if s.User == "" {
		return ""
	}
	return fmt.Sprintf("Clear Vision <%s>", s.User)
}

type Admin struct {
	APIKey    string        `env:"API_KEY"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
}

type Pricing struct {
	Version     string  `env:"VERSION" envDefault:"1.0"`
	Currency    string  `env:"CURRENCY" envDefault:"EGP"`
	Single      float64 `env:"EGP" envDefault:"650"`
	Couple      float64 `env:"COUPLE_EGP" envDefault:"1300"`
	TestSingle  float64 `env:"TEST_EGP" envDefault:"5"`
	TestCouple  float64 `env:"COUPLE_TEST_EGP" envDefault:"10"`
	ForceTest   bool    `env:"FORCE_TEST" envDefault:"false"`
	Environment string  `env:"ENVIRONMENT" envDefault:"development"`
}

// TestMode is on outside production or when forced.
func (p Pricing) TestMode() bool {
	return p.ForceTest || strings.ToLower(p.Environment) != "production"
}

func (p Pricing) SinglePrice() float64 {
	if p.TestMode() {
		return positiveOr(p.TestSingle, 5)
	}
	return positiveOr(p.Single, 650)
}

func (p Pricing) CouplePrice() float64 {
	if p.TestMode() {
		return positiveOr(p.TestCouple, 10)
	}
	return positiveOr(p.Couple, 1300)
}

func positiveOr(v, fallback float64) float64 {
	if v <= 0 {
		return fallback
	}
	return v
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// VerifyURL returns the public verification link for a ticket, or "" when
// no backend base URL is configured.
func (c *Config) VerifyURL(ticketID string) string {
	base := strings.TrimRight(strings.TrimSpace(c.BackendBaseURL), "/")
	if base == "" || ticketID == "" {
		return ""
	}
	return base + "/api/verify-ticket/" + ticketID
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.SMTP.Pass = strings.Join(strings.Fields(cfg.SMTP.Pass), "")
	return &cfg, nil
}
