package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig    `json:"basic_config"`
	Gemini      GeminiConfig   `json:"gemini"`
	Database    DatabaseConfig `json:"database"`
	Redis       RedisConfig    `json:"redis"`
	Upload      UploadConfig   `json:"upload"`
	Auth        AuthConfig     `json:"auth"`
	Log         LogConfig      `json:"log"`
}

type BasicConfig struct {
	ServerAddress string `json:"server_address"`
	FrontendURL   string `json:"frontend_url"`
	TokenTTLHours int    `json:"token_ttl_hours"`
}

type GeminiConfig struct {
	APIKey            string `json:"api_key"`
	Model             string `json:"model"`
	BaseURL           string `json:"base_url"`
	MaxAttempts       int    `json:"max_attempts"`
	BaseDelayMillis   int    `json:"base_delay_ms"`
	AttemptTimeoutSec int    `json:"attempt_timeout_sec"`
}

type DatabaseConfig struct {
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
}

// RedisConfig is optional; an empty Addr disables the token cache.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type UploadConfig struct {
	Dir                  string `json:"dir"`
	TempTTLMinutes       int    `json:"temp_ttl_minutes"`
	CleanIntervalMinutes int    `json:"clean_interval_minutes"`
}

// AuthConfig names the session cookie and the double-submit CSRF pair.
type AuthConfig struct {
	CookieName     string `json:"cookie_name"`
	CSRFCookieName string `json:"csrf_cookie_name"`
	CSRFHeaderName string `json:"csrf_header_name"`
}

// WithDefaults fills unset names.
func (a AuthConfig) WithDefaults() AuthConfig {
	if a.CookieName == "" {
		a.CookieName = DefaultAuthCookie
	}
	if a.CSRFCookieName == "" {
		a.CSRFCookieName = DefaultCSRFCookie
	}
	if a.CSRFHeaderName == "" {
		a.CSRFHeaderName = DefaultCSRFHeader
	}
	return a
}

type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

const (
	DefaultServerAddress = ":8000"
	DefaultFrontendURL   = "http://localhost:3000"
	DefaultModel         = "gemini-2.5-flash"
	DefaultDriver        = "sqlite3"
	DefaultSQLiteDSN     = "visaverse.db"
	DefaultUploadDir     = "uploads"
	DefaultAuthCookie    = "visaverse_session"
	DefaultCSRFCookie    = "visaverse_csrf"
	DefaultCSRFHeader    = "X-CSRF-Token"
)

// Load reads configuration from the provided path, then applies environment
// overrides and defaults. An empty path falls back to config.json when it
// exists; a missing default file is not an error.
func Load(path string) (*Config, error) {
	var cfg Config
	explicit := path != ""
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	switch {
	case err == nil:
		defer file.Close()
		if err := json.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
		if cfg.Database.DSN != "" && isSQLite(cfg.Database.Driver) && !isMemoryDSN(cfg.Database.DSN) && !filepath.IsAbs(cfg.Database.DSN) {
			cfg.Database.DSN = filepath.Join(filepath.Dir(absPath), cfg.Database.DSN)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv loads .env style files into the process environment. Missing
// files are ignored; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.BasicConfig.ServerAddress = ":" + strings.TrimPrefix(v, ":")
	}
	setString(&cfg.BasicConfig.FrontendURL, "FRONTEND_URL")
	setString(&cfg.Gemini.APIKey, "GOOGLE_API_KEY")
	setString(&cfg.Gemini.Model, "GEMINI_MODEL")
	setString(&cfg.Gemini.BaseURL, "GEMINI_BASE_URL")
	setInt(&cfg.Gemini.MaxAttempts, "GEMINI_MAX_ATTEMPTS")
	setString(&cfg.Database.Driver, "DATABASE_DRIVER")
	setString(&cfg.Database.DSN, "DATABASE_URL")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")
	setString(&cfg.Upload.Dir, "UPLOAD_DIR")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
}

func applyDefaults(cfg *Config) {
	if cfg.BasicConfig.ServerAddress == "" {
		cfg.BasicConfig.ServerAddress = DefaultServerAddress
	}
	if cfg.BasicConfig.FrontendURL == "" {
		cfg.BasicConfig.FrontendURL = DefaultFrontendURL
	}
	if cfg.BasicConfig.TokenTTLHours <= 0 {
		cfg.BasicConfig.TokenTTLHours = 24
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = DefaultModel
	}
	if cfg.Gemini.MaxAttempts <= 0 {
		cfg.Gemini.MaxAttempts = 3
	}
	if cfg.Gemini.BaseDelayMillis <= 0 {
		cfg.Gemini.BaseDelayMillis = 1000
	}
	if cfg.Gemini.AttemptTimeoutSec <= 0 {
		cfg.Gemini.AttemptTimeoutSec = 60
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DefaultDriver
	}
	if cfg.Database.DSN == "" && isSQLite(cfg.Database.Driver) {
		cfg.Database.DSN = DefaultSQLiteDSN
	}
	if cfg.Upload.Dir == "" {
		cfg.Upload.Dir = DefaultUploadDir
	}
	if cfg.Upload.TempTTLMinutes <= 0 {
		cfg.Upload.TempTTLMinutes = 60
	}
	if cfg.Upload.CleanIntervalMinutes <= 0 {
		cfg.Upload.CleanIntervalMinutes = 15
	}
	cfg.Auth = cfg.Auth.WithDefaults()
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "sqlite3", "mysql":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn must be configured")
	}
	return nil
}

func (c GeminiConfig) BaseDelay() time.Duration {
	return time.Duration(c.BaseDelayMillis) * time.Millisecond
}

func (c GeminiConfig) AttemptTimeout() time.Duration {
	return time.Duration(c.AttemptTimeoutSec) * time.Second
}

func (c BasicConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

func (c UploadConfig) TempTTL() time.Duration {
	return time.Duration(c.TempTTLMinutes) * time.Minute
}

func (c UploadConfig) CleanInterval() time.Duration {
	return time.Duration(c.CleanIntervalMinutes) * time.Minute
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func setInt(dst *int, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		*dst = n
	}
}

func isSQLite(driver string) bool {
	switch strings.ToLower(driver) {
	case "", "sqlite", "sqlite3":
		return true
	}
	return false
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}
