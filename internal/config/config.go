// Package config loads server and CLI settings from environment variables.
//
// Every key has a development default, so `go run ./cmd/server` works with
// no setup beyond JWT_SECRET. A .env file in the working directory is read
// first when present (see LoadDotEnv). Real environment variables always win
// over .env entries.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// MinSecretLength matches the check in auth.NewTokenService.
	MinSecretLength = 16
)

type Config struct {
	Port int

	// Database
	DBDriver    string // sqlite or postgres
	DBPath      string // sqlite file, ":memory:" allowed
	DatabaseURL string // postgres DSN
	DBMaxConns  int32

	// Auth
	JWTSecret          string
	TokenTTL           time.Duration
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
	DevLogin           bool // enables /auth/dev/login; never turn on in production
	CookieSecure       bool

	// Web
	TemplateDir       string
	StaticDir         string
	CurriculumRepoURL string

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // text or json
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getbool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("invalid boolean, using default", "key", key, "value", v, "default", def)
			return def
		}
		return b
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid int, using default", "key", key, "value", v, "default", def)
			return def
		}
		return i
	}
	return def
}

func getdur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration, using default", "key", key, "value", v, "default", def)
			return def
		}
		return d
	}
	return def
}

// LoadDotEnv loads the given .env files (default ".env") into the process
// environment. Missing files are not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: loading %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from the environment.
func Load() *Config {
	port := getint("PORT", 8080)
	return &Config{
		Port: port,

		DBDriver:    strings.ToLower(getenv("DB_DRIVER", DriverSQLite)),
		DBPath:      getenv("DB_PATH", "data/tracker.db"),
		DatabaseURL: getenv("DATABASE_URL", ""),
		DBMaxConns:  int32(getint("DB_MAX_CONNS", 10)),

		JWTSecret:          getenv("JWT_SECRET", ""),
		TokenTTL:           getdur("TOKEN_TTL", 7*24*time.Hour),
		GitHubClientID:     getenv("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: getenv("GITHUB_CLIENT_SECRET", ""),
		GitHubCallbackURL:  getenv("GITHUB_CALLBACK_URL", fmt.Sprintf("http://localhost:%d/auth/github/callback", port)),
		DevLogin:           getbool("AUTH_DEV_LOGIN", false),
		CookieSecure:       getbool("COOKIE_SECURE", false),

		TemplateDir:       getenv("TEMPLATE_DIR", "web/templates"),
		StaticDir:         getenv("STATIC_DIR", "web/static"),
		CurriculumRepoURL: getenv("CURRICULUM_REPO_URL", "https://github.com/taniyaapatel/Samadhan/tree/main"),

		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getenv("LOG_FORMAT", "text")),
	}
}

// Validate reports every setting the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}

	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for sqlite"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not one of sqlite, postgres", c.DBDriver))
	}

	if len(c.JWTSecret) < MinSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters (try: openssl rand -hex 32)", MinSecretLength))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q is not one of text, json", c.LogFormat))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// GitHubEnabled reports whether the GitHub OAuth routes can be registered.
func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

// Addr is the listen address for http.Server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
// Unknown values fall back to info/text; Validate reports them.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", s)
	}
	return level, nil
}
