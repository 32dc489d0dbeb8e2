package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	//App
	Env string // dev / staging / prod
	//HTTP
	HTTPAddr string

	//Auth / Security
	JWTSecret  string
	JWTIssuer  string
	SessionTTL time.Duration
	BcryptCost int

	// Infrastructure
	DBAddr        string
	DBDebug       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	// Links embedded in verification / reset emails
	AppBaseURL      string
	FrontendURL     string
	VerifyURLBase   string
	ResetURLBase    string
	CORSAllowOrigin []string

	// Mail
	MailTransport  string // log / smtp / rabbitmq
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	SMTPFrom       string
	SMTPInsecure   bool
	SMTPTimeout    time.Duration
	RabbitURL      string
	RabbitExchange string

	// Reports
	ReportsEnforceOwnership bool

	// Rate limiting
	RLEnabled bool
	RLLimit   int
	RLWindow  time.Duration

	// Tracing
	OTelEnabled  bool
	OTelEndpoint string
}

func Load() (*Config, error) {
	// .env is optional; real env vars always win.
	_ = godotenv.Load()

	cfg := &Config{
		Env:       getEnv("ENV", "dev"),
		HTTPAddr:  getEnv("HTTP_ADDR", ":8080"),
		JWTIssuer: getEnv("JWT_ISSUER", "nippou"),
	}

	// required values
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("missing required env var: JWT_SECRET")
	}

	var err error
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = getInt("BCRYPT_COST", 12); err != nil {
		return nil, err
	}

	// The dev profile may run on in-memory stores; every other env needs Postgres.
	cfg.DBAddr = os.Getenv("DB_ADDR")
	if cfg.DBAddr == "" && cfg.Env != "dev" {
		return nil, fmt.Errorf("missing required env var: DB_ADDR")
	}
	if cfg.DBAddr != "" {
		if err := validatePostgresDSN(cfg.DBAddr); err != nil {
			return nil, err
		}
	}
	if cfg.DBDebug, err = getBool("DB_DEBUG", false); err != nil {
		return nil, err
	}

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	cfg.AppBaseURL = strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:8080"), "/")
	cfg.FrontendURL = strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/")
	cfg.VerifyURLBase = cfg.AppBaseURL + "/api/auth/verify?token="
	cfg.ResetURLBase = cfg.FrontendURL + "/reset-password?token="
	cfg.CORSAllowOrigin = splitCSV(getEnv("CORS_ALLOWED_ORIGINS", cfg.FrontendURL))

	cfg.MailTransport = strings.ToLower(getEnv("MAIL_TRANSPORT", "log"))
	switch cfg.MailTransport {
	case "log":
	case "smtp":
		cfg.SMTPHost = os.Getenv("SMTP_HOST")
		cfg.SMTPFrom = os.Getenv("SMTP_FROM")
		if cfg.SMTPHost == "" || cfg.SMTPFrom == "" {
			return nil, fmt.Errorf("MAIL_TRANSPORT=smtp requires SMTP_HOST and SMTP_FROM")
		}
	case "rabbitmq":
		cfg.RabbitURL = os.Getenv("RABBIT_URL")
		if cfg.RabbitURL == "" {
			return nil, fmt.Errorf("MAIL_TRANSPORT=rabbitmq requires RABBIT_URL")
		}
	default:
		return nil, fmt.Errorf("unknown MAIL_TRANSPORT %q", cfg.MailTransport)
	}
	if cfg.SMTPPort, err = getInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	if cfg.SMTPInsecure, err = getBool("SMTP_INSECURE", false); err != nil {
		return nil, err
	}
	if cfg.SMTPTimeout, err = getDuration("SMTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	cfg.RabbitExchange = getEnv("RABBIT_EXCHANGE", "nippou.mail")

	if cfg.ReportsEnforceOwnership, err = getBool("REPORTS_ENFORCE_OWNERSHIP", false); err != nil {
		return nil, err
	}

	// Rate Limiting Defaults: 100 reqs / 1 min
	if cfg.RLEnabled, err = getBool("RL_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.RLLimit, err = getInt("RL_IP_LIMIT", 100); err != nil {
		return nil, err
	}
	if cfg.RLWindow, err = getDuration("RL_IP_WINDOW", time.Minute); err != nil {
		return nil, err
	}

	if cfg.OTelEnabled, err = getBool("OTEL_ENABLED", false); err != nil {
		return nil, err
	}
	cfg.OTelEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")

	//Timeout values are optional and have a default value if not
	if cfg.HTTPReadTimeout, err = getDuration("HTTP_READ_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPWriteTimeout, err = getDuration("HTTP_WRITE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPIdleTimeout, err = getDuration("HTTP_IDLE_TIMEOUT", time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SecureCookies reports whether session cookies should carry the Secure flag.
func (c *Config) SecureCookies() bool {
	return c.Env != "dev"
}

func validatePostgresDSN(dsn string) error {
	u, err := url.Parse(dsn)
	if err != nil {
		return fmt.Errorf("invalid DB_ADDR: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return fmt.Errorf("invalid DB_ADDR scheme %q", u.Scheme)
	}
	if strings.Trim(u.Path, "/") == "" {
		return fmt.Errorf("DB_ADDR must name a database")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q: %w", key, v, err)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q: %w", key, v, err)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid bool for %s: %q: %w", key, v, err)
	}
	return b, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
