package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	GinMode        string
	AllowedOrigins []string
	TrustedProxies []string
	// SMTP relay
	SMTPHost               string
	SMTPPort               int
	SMTPSecure             bool // implicit TLS (port 465); STARTTLS is negotiated otherwise
	SMTPUsername           string
	SMTPPassword           string
	SMTPFromEmail          string
	SMTPFromName           string
	SMTPInsecureSkipVerify bool
	SMTPSendTimeout        time.Duration
	// Where team notifications go
	ContactEmailTo string
	// Mail transport: smtp, resend or log
	MailTransport    string
	ResendAPIKey     string
	MailRetryCount   int
	MailRetryBackoff time.Duration
	// Redis/Upstash Configuration
	UpstashRedisURL      string
	UpstashRedisPassword string
	// Contact form rate limiting
	ContactRateLimit    int
	ContactRateWindow   time.Duration
	RateLimitFailClosed bool
	// Flood guard over every /api route
	APIBurstRate  float64
	APIBurstLimit int
}

func LoadConfig() (*Config, error) {
	// .env is only present locally; production reads the real environment
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "3001"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		TrustedProxies: getEnvList("TRUSTED_PROXIES", nil),
		// SMTP Configuration
		SMTPHost:               getEnv("SMTP_HOST", ""),
		SMTPPort:               getEnvInt("SMTP_PORT", 587),
		SMTPSecure:             getEnvBool("SMTP_SECURE", false),
		SMTPUsername:           getEnv("SMTP_USERNAME", getEnv("SMTP_USER", "")),
		SMTPPassword:           getEnv("SMTP_PASSWORD", getEnv("SMTP_PASS", "")),
		SMTPFromEmail:          getEnv("SMTP_FROM_EMAIL", ""),
		SMTPFromName:           getEnv("SMTP_FROM_NAME", "Digitální agentura"),
		SMTPInsecureSkipVerify: getEnvBool("SMTP_INSECURE_SKIP_VERIFY", false),
		SMTPSendTimeout:        time.Duration(getEnvInt("SMTP_SEND_TIMEOUT_SECONDS", 10)) * time.Second,
		ContactEmailTo:         getEnv("CONTACT_EMAIL_TO", ""),
		// Transport
		MailTransport:    strings.ToLower(getEnv("MAIL_TRANSPORT", "smtp")),
		ResendAPIKey:     getEnv("RESEND_API_KEY", ""),
		MailRetryCount:   getEnvInt("MAIL_RETRY_COUNT", 0),
		MailRetryBackoff: time.Duration(getEnvInt("MAIL_RETRY_BACKOFF_MS", 200)) * time.Millisecond,
		// Redis/Upstash Configuration
		UpstashRedisURL:      getEnv("UPSTASH_REDIS_URL", ""),
		UpstashRedisPassword: getEnv("UPSTASH_REDIS_PASSWORD", ""),
		// 5 submissions per 15 minutes per IP
		ContactRateLimit:    getEnvInt("CONTACT_RATE_LIMIT", 5),
		ContactRateWindow:   time.Duration(getEnvInt("CONTACT_RATE_WINDOW_SECONDS", 900)) * time.Second,
		RateLimitFailClosed: getEnvBool("RATE_LIMIT_FAIL_CLOSED", false),
		APIBurstRate:        getEnvFloat("API_BURST_RATE", 10),
		APIBurstLimit:       getEnvInt("API_BURST_LIMIT", 30),
	}

	// The sender defaults to the SMTP login, which most relays require anyway
	if cfg.SMTPFromEmail == "" {
		cfg.SMTPFromEmail = cfg.SMTPUsername
	}
	if cfg.ContactEmailTo == "" {
		cfg.ContactEmailTo = cfg.SMTPFromEmail
	}

	if cfg.SMTPHost == "" && cfg.MailTransport == "smtp" {
		log.Println("WARNING: SMTP_HOST is missing. Contact form will be unavailable.")
	}
	if cfg.UpstashRedisURL == "" {
		log.Println("WARNING: UPSTASH_REDIS_URL not configured. Rate limiting will use in-memory store.")
	}

	return cfg, nil
}

// IsProduction reports whether gin runs in release mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

// getEnvBool returns a boolean environment variable or fallback if not set/invalid
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvList splits a comma separated variable, dropping blanks and trailing slashes
func getEnvList(key string, fallback []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimRight(strings.TrimSpace(part), "/")
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
