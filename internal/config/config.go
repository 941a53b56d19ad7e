package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Rate limit store backends
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StoreDatabase = "database"
)

// Config holds all configuration for the application
type Config struct {
	// Server
	APIPort         int
	BodyLimit       string
	ShutdownTimeout time.Duration

	// Logging
	LogLevel string

	// Security
	AllowedOrigins string
	AppEnv         string

	// Per-IP burst throttle on every route
	RateLimitRequests float64
	RateLimitBurst    int

	// Submission window on the contact route
	SubmissionLimit  int
	SubmissionWindow time.Duration
	RateLimitStore   string
	SweepInterval    time.Duration
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	DatabaseURL      string

	// Mail transport. Presence is checked per request, not at startup.
	Mail MailConfig

	// Content rendered into outbound mail
	SiteName        string
	SiteURL         string
	SupportEmail    string
	DisplayTimezone string

	// Best-effort chat webhook
	SlackWebhookURL string
	WebhookTimeout  time.Duration

	// Development SMTP sink
	MailSinkAddr string
	MailSinkDir  string
	MailSinkTLS  string
}

// MailConfig holds the raw mail settings as supplied by the environment
type MailConfig struct {
	Provider     string
	User         string
	Password     string
	SMTPHost     string
	SMTPPort     int
	SMTPSecure   bool
	SMTPUser     string
	SMTPPassword string
	TLSInsecure  bool
	Timeout      time.Duration
	ContactEmail string
}

// Load reads configuration from environment variables.
// A .env file in the working directory is applied first when present;
// variables already set in the process environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	var err error

	// API_PORT (default: 8080)
	if cfg.APIPort, err = getEnvInt("API_PORT", 8080); err != nil {
		return nil, err
	}

	cfg.BodyLimit = getEnvOrDefault("BODY_LIMIT", "64K")
	if cfg.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	// LOG_LEVEL (default: info)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// Security configuration
	cfg.AllowedOrigins = os.Getenv("ALLOWED_ORIGINS")
	cfg.AppEnv = getEnvOrDefault("APP_ENV", "development")

	// Rate limiting configuration
	if rps := os.Getenv("RATE_LIMIT_REQUESTS"); rps != "" {
		if v, err := strconv.ParseFloat(rps, 64); err == nil {
			cfg.RateLimitRequests = v
		}
	} else {
		cfg.RateLimitRequests = 10.0
	}

	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		if v, err := strconv.Atoi(burst); err == nil {
			cfg.RateLimitBurst = v
		}
	} else {
		cfg.RateLimitBurst = 20
	}

	// Submission window (default: 5 per 10 minutes)
	if cfg.SubmissionLimit, err = getEnvInt("SUBMISSION_LIMIT", 5); err != nil {
		return nil, err
	}
	if cfg.SubmissionWindow, err = getEnvDuration("SUBMISSION_WINDOW", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = getEnvDuration("RATE_LIMIT_SWEEP_INTERVAL", 10*time.Minute); err != nil {
		return nil, err
	}

	cfg.RateLimitStore = strings.ToLower(getEnvOrDefault("RATE_LIMIT_STORE", StoreMemory))
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	// Mail transport
	cfg.Mail.Provider = strings.ToLower(getEnvOrDefault("EMAIL_PROVIDER", "gmail"))
	cfg.Mail.User = os.Getenv("EMAIL_USER")
	cfg.Mail.Password = os.Getenv("EMAIL_PASS")
	cfg.Mail.SMTPHost = os.Getenv("SMTP_HOST")
	if cfg.Mail.SMTPPort, err = getEnvInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	cfg.Mail.SMTPSecure = getEnvBool("SMTP_SECURE", false)
	cfg.Mail.SMTPUser = os.Getenv("SMTP_USER")
	cfg.Mail.SMTPPassword = os.Getenv("SMTP_PASS")
	cfg.Mail.TLSInsecure = getEnvBool("SMTP_TLS_INSECURE", false)
	if cfg.Mail.Timeout, err = getEnvDuration("SMTP_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	cfg.Mail.ContactEmail = os.Getenv("CONTACT_EMAIL")

	// Content
	cfg.SiteName = getEnvOrDefault("SITE_NAME", "DevSomeware")
	cfg.SiteURL = strings.TrimSuffix(getEnvOrDefault("SITE_URL", "https://saas.devsomeware.com"), "/")
	cfg.SupportEmail = getEnvOrDefault("SUPPORT_EMAIL", "hello@devsomeware.com")
	cfg.DisplayTimezone = getEnvOrDefault("DISPLAY_TIMEZONE", "Asia/Kolkata")

	// Webhook
	cfg.SlackWebhookURL = os.Getenv("SLACK_WEBHOOK_URL")
	if cfg.WebhookTimeout, err = getEnvDuration("WEBHOOK_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}

	// Mail sink
	cfg.MailSinkAddr = getEnvOrDefault("MAILSINK_ADDR", ":2525")
	cfg.MailSinkDir = os.Getenv("MAILSINK_DIR")
	cfg.MailSinkTLS = strings.ToLower(getEnvOrDefault("MAILSINK_TLS", "starttls"))

	return cfg, nil
}

// LoadWithValidation loads and validates configuration, failing fast on errors
func LoadWithValidation() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Production-specific validation
	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProduction(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("APIPort must be between 1 and 65535")
	}
	if c.SubmissionLimit <= 0 {
		return fmt.Errorf("SUBMISSION_LIMIT must be positive")
	}
	if c.SubmissionWindow <= 0 {
		return fmt.Errorf("SUBMISSION_WINDOW must be positive")
	}
	if c.Mail.SMTPPort <= 0 || c.Mail.SMTPPort > 65535 {
		return fmt.Errorf("SMTP_PORT must be between 1 and 65535")
	}
	if _, err := time.LoadLocation(c.DisplayTimezone); err != nil {
		return fmt.Errorf("DISPLAY_TIMEZONE is not a known time zone: %w", err)
	}

	switch c.RateLimitStore {
	case StoreMemory:
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when RATE_LIMIT_STORE=redis")
		}
	case StoreDatabase:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when RATE_LIMIT_STORE=database")
		}
	default:
		return fmt.Errorf("RATE_LIMIT_STORE must be one of memory, redis, database")
	}

	return nil
}

// ValidateProduction performs additional validation for production environment
func (c *Config) ValidateProduction() error {
	if c.AllowedOrigins == "" {
		return fmt.Errorf("ALLOWED_ORIGINS is required in production")
	}

	// Check for wildcard in production
	if strings.Contains(c.AllowedOrigins, "*") {
		return fmt.Errorf("wildcard (*) origins are not allowed in production")
	}

	// Check for sslmode=disable in database URL
	if c.RateLimitStore == StoreDatabase && strings.Contains(c.DatabaseURL, "sslmode=disable") {
		return fmt.Errorf("sslmode=disable is not allowed in production")
	}

	if c.Mail.TLSInsecure {
		return fmt.Errorf("SMTP_TLS_INSECURE is not allowed in production")
	}

	return nil
}

// Origins splits AllowedOrigins into a trimmed list
func (c *Config) Origins() []string {
	if c.AllowedOrigins == "" {
		return nil
	}
	origins := strings.Split(c.AllowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}

// LogConfig logs configuration values (excluding secrets)
func (c *Config) LogConfig(logger *slog.Logger) {
	logger.Info("configuration loaded",
		slog.Int("api_port", c.APIPort),
		slog.String("log_level", c.LogLevel),
		slog.String("app_env", c.AppEnv),
		slog.Bool("allowed_origins_set", c.AllowedOrigins != ""),
		slog.Float64("rate_limit_rps", c.RateLimitRequests),
		slog.Int("rate_limit_burst", c.RateLimitBurst),
		slog.Int("submission_limit", c.SubmissionLimit),
		slog.Duration("submission_window", c.SubmissionWindow),
		slog.String("rate_limit_store", c.RateLimitStore),
		slog.String("email_provider", c.Mail.Provider),
		slog.Bool("email_user_set", c.Mail.User != "" || c.Mail.SMTPUser != ""),
		slog.Bool("contact_email_set", c.Mail.ContactEmail != ""),
		slog.Bool("slack_webhook_set", c.SlackWebhookURL != ""),
		slog.String("display_timezone", c.DisplayTimezone),
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration: %w", key, err)
	}
	return d, nil
}
