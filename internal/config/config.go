package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Log       LogConfig
	Tracing   TracingConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Clinic    ClinicConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Version     string
}

func (a AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	// Upper bound for a single API call; exceeded calls fail with 504.
	RequestTimeout time.Duration
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	// URL, when set, takes precedence over the individual connection fields.
	URL                string
	Host               string
	Port               int
	Name               string
	User               string
	Password           string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	SlowQueryThreshold time.Duration
}

func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
	Issuer         string
}

type LogConfig struct {
	Level      string
	Format     string
	OutputPath string
}

type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
	// Plain HTTP to the collector, for sidecar and local setups.
	Insecure   bool
	SampleRate float64
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         time.Duration
}

type RateLimitConfig struct {
	// Global rate limit per IP
	RequestsPerSecond float64
	BurstSize         int
	// Login has a stricter limit
	AuthRequestsPerMinute int
}

type ClinicConfig struct {
	// Upper bound accepted for intra-ocular pressure, in mmHg.
	IOPMax float64
}

// Load reads configuration from the environment, optionally seeded by a .env
// file in the working directory.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	// A missing .env file is fine; the environment alone is enough.
	_ = v.ReadInConfig()
	v.AutomaticEnv()

	e := &env{v: v}

	cfg := &Config{
		App: AppConfig{
			Name:        e.str("APP_NAME", "eyeclinic-api"),
			Environment: e.str("APP_ENV", "development"),
			Version:     e.str("APP_VERSION", "0.0.0"),
		},
		Server: ServerConfig{
			Host:            e.str("SERVER_HOST", "0.0.0.0"),
			Port:            e.int("SERVER_PORT", 5000),
			ReadTimeout:     e.duration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    e.duration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     e.duration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: e.duration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			RequestTimeout:  e.duration("SERVER_REQUEST_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			URL:                e.str("DB_URL", ""),
			Host:               e.str("DB_HOST", "localhost"),
			Port:               e.int("DB_PORT", 5432),
			Name:               e.str("DB_NAME", "eyeclinic"),
			User:               e.str("DB_USER", "eyeclinic"),
			Password:           e.str("DB_PASSWORD", ""),
			SSLMode:            e.str("DB_SSLMODE", "require"),
			MaxOpenConns:       e.int("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:       e.int("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime:    e.duration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime:    e.duration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			SlowQueryThreshold: e.duration("DB_SLOW_QUERY_THRESHOLD", 200*time.Millisecond),
		},
		JWT: JWTConfig{
			Secret:         e.str("JWT_SECRET", ""),
			AccessTokenTTL: e.duration("JWT_ACCESS_TTL", 15*time.Minute),
			Issuer:         e.str("JWT_ISSUER", "eyeclinic-api"),
		},
		Log: LogConfig{
			Level:      e.str("LOG_LEVEL", "info"),
			Format:     e.str("LOG_FORMAT", "json"),
			OutputPath: e.str("LOG_OUTPUT", "stdout"),
		},
		Tracing: TracingConfig{
			Enabled:     e.bool("TRACING_ENABLED", false),
			ServiceName: e.str("TRACING_SERVICE_NAME", "eyeclinic-api"),
			Endpoint:    e.str("TRACING_ENDPOINT", "localhost:4318"),
			Insecure:    e.bool("TRACING_INSECURE", true),
			SampleRate:  e.float("TRACING_SAMPLE_RATE", 0.1),
		},
		CORS: CORSConfig{
			AllowedOrigins: e.slice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
			AllowedMethods: e.slice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: e.slice("CORS_ALLOWED_HEADERS", []string{"Authorization", "Content-Type", "X-Request-ID"}),
			MaxAge:         e.duration("CORS_MAX_AGE", 12*time.Hour),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond:     e.float("RATE_LIMIT_RPS", 50),
			BurstSize:             e.int("RATE_LIMIT_BURST", 100),
			AuthRequestsPerMinute: e.int("RATE_LIMIT_AUTH_RPM", 10),
		},
		Clinic: ClinicConfig{
			IOPMax: e.float("CLINIC_IOP_MAX", 80),
		},
	}

	if err := validate(cfg, e.invalid); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate enforces production security requirements. invalid lists the
// values that failed to parse.
func validate(cfg *Config, invalid []string) error {
	errs := append([]string(nil), invalid...)

	if cfg.JWT.Secret == "" {
		errs = append(errs, "JWT_SECRET is required")
	} else if len(cfg.JWT.Secret) < 32 && cfg.App.IsProduction() {
		errs = append(errs, "JWT_SECRET must be at least 32 characters in production")
	}

	if cfg.Database.URL == "" && cfg.Database.Password == "" && cfg.App.Environment != "development" {
		errs = append(errs, "DB_PASSWORD is required in non-development environments")
	}

	if cfg.Database.SSLMode == "disable" && cfg.App.IsProduction() {
		errs = append(errs, "DB_SSLMODE=disable is not allowed in production")
	}

	if cfg.Clinic.IOPMax <= 0 {
		errs = append(errs, "CLINIC_IOP_MAX must be positive")
	}

	if cfg.Server.RequestTimeout <= 0 {
		errs = append(errs, "SERVER_REQUEST_TIMEOUT must be positive")
	}

	if cfg.RateLimit.RequestsPerSecond <= 0 || cfg.RateLimit.BurstSize <= 0 {
		errs = append(errs, "RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	if cfg.RateLimit.AuthRequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_AUTH_RPM must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// env reads typed values from viper. Unset keys take the registered
// default; a set value that does not parse is recorded and reported by
// validate.
type env struct {
	v       *viper.Viper
	invalid []string
}

func (e *env) reject(key, want string) {
	e.invalid = append(e.invalid, fmt.Sprintf("%s=%q is not %s", key, e.v.GetString(key), want))
}

func (e *env) str(key, fallback string) string {
	e.v.SetDefault(key, fallback)
	return e.v.GetString(key)
}

func (e *env) int(key string, fallback int) int {
	e.v.SetDefault(key, fallback)
	i, err := cast.ToIntE(e.v.Get(key))
	if err != nil {
		e.reject(key, "an integer")
		return fallback
	}
	return i
}

func (e *env) float(key string, fallback float64) float64 {
	e.v.SetDefault(key, fallback)
	f, err := cast.ToFloat64E(e.v.Get(key))
	if err != nil {
		e.reject(key, "a number")
		return fallback
	}
	return f
}

func (e *env) bool(key string, fallback bool) bool {
	e.v.SetDefault(key, fallback)
	b, err := cast.ToBoolE(e.v.Get(key))
	if err != nil {
		e.reject(key, "a boolean")
		return fallback
	}
	return b
}

func (e *env) duration(key string, fallback time.Duration) time.Duration {
	e.v.SetDefault(key, fallback)
	d, err := cast.ToDurationE(e.v.Get(key))
	if err != nil {
		e.reject(key, "a duration such as 15s")
		return fallback
	}
	return d
}

// slice splits a comma-separated value, dropping blanks. An empty result
// keeps the fallback.
func (e *env) slice(key string, fallback []string) []string {
	if !e.v.IsSet(key) {
		return fallback
	}
	parts := strings.Split(e.v.GetString(key), ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			result = append(result, t)
		}
	}
	if len(result) == 0 {
		return fallback
	}
	return result
}
