// Package config reads process configuration from the environment and .env files.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultListenAddr  = "127.0.0.1:8080"
	defaultHTTPTimeout = 15 * time.Second
	defaultIdleRefresh = 10 * time.Minute
	defaultDataDirName = "shuttlepass"
)

type Config struct {
	ListenAddr  string
	DataDir     string
	DatabaseURL string // optional; credentials go to Postgres when set

	IdentityURL string
	BaseURL     string
	AppID       string
	HallID      int
	HTTPTimeout time.Duration

	CredEncKey []byte // 32 bytes for AES-256-GCM; empty means DATA_DIR/cred.key

	SessionHashKey   []byte
	SessionBlockKey  []byte
	UIPasswordBcrypt string

	IdleRefresh time.Duration

	LogLevel  string
	LogFormat string
}

// FromEnv loads the first .env found in envPaths (if any) and then reads the environment.
// Variables already set in the environment win over .env values.
func FromEnv(envPaths ...string) (Config, error) {
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err != nil {
				return Config{}, fmt.Errorf("load %s: %w", p, err)
			}
			break
		}
	}

	cfg := Config{
		ListenAddr:       envDefault("LISTEN_ADDR", defaultListenAddr),
		DataDir:          envDefault("DATA_DIR", defaultDataDir()),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		IdentityURL:      strings.TrimSpace(os.Getenv("SHUTTLE_IDENTITY_URL")),
		BaseURL:          strings.TrimSpace(os.Getenv("SHUTTLE_BASE_URL")),
		AppID:            strings.TrimSpace(os.Getenv("SHUTTLE_APP_ID")),
		UIPasswordBcrypt: strings.TrimSpace(os.Getenv("UI_PASSWORD_BCRYPT")),
		LogLevel:         envDefault("LOG_LEVEL", "info"),
		LogFormat:        envDefault("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.HallID, err = envInt("SHUTTLE_HALL_ID", 1); err != nil {
		return Config{}, err
	}
	if cfg.HTTPTimeout, err = envDuration("SHUTTLE_HTTP_TIMEOUT", defaultHTTPTimeout); err != nil {
		return Config{}, err
	}
	if cfg.IdleRefresh, err = envDuration("IDLE_REFRESH", defaultIdleRefresh); err != nil {
		return Config{}, err
	}

	if cfg.CredEncKey, err = optionalB64("CRED_ENC_KEY"); err != nil {
		return Config{}, err
	}
	if len(cfg.CredEncKey) != 0 && len(cfg.CredEncKey) != 32 {
		return Config{}, fmt.Errorf("CRED_ENC_KEY must decode to 32 bytes (got %d)", len(cfg.CredEncKey))
	}
	if cfg.SessionHashKey, err = optionalB64("SESSION_HASH_KEY"); err != nil {
		return Config{}, err
	}
	if cfg.SessionBlockKey, err = optionalB64("SESSION_BLOCK_KEY"); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RequireWeb checks the settings only the web server needs.
func (c Config) RequireWeb() error {
	if len(c.SessionHashKey) == 0 || len(c.SessionBlockKey) == 0 {
		return fmt.Errorf("SESSION_HASH_KEY and SESSION_BLOCK_KEY are required (base64, run `shuttlepass keys`)")
	}
	switch len(c.SessionBlockKey) {
	case 16, 24, 32:
	default:
		return fmt.Errorf("SESSION_BLOCK_KEY must decode to 16, 24 or 32 bytes (got %d)", len(c.SessionBlockKey))
	}
	if c.UIPasswordBcrypt == "" {
		return fmt.Errorf("UI_PASSWORD_BCRYPT is required (run `shuttlepass hash-password`)")
	}
	return nil
}

func (c Config) CredKeyPath() string     { return filepath.Join(c.DataDir, "cred.key") }
func (c Config) CredentialsPath() string { return filepath.Join(c.DataDir, "credentials.enc") }
func (c Config) SettingsPath() string    { return filepath.Join(c.DataDir, "settings.toml") }
func (c Config) CachePath() string       { return filepath.Join(c.DataDir, "cache.db") }

// DefaultEnvPaths lists the .env locations checked by the CLI, most specific first.
func DefaultEnvPaths() []string {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}
	paths = append(paths, filepath.Join(defaultDataDir(), ".env"))
	return paths
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, defaultDataDirName)
	}
	return "." + defaultDataDirName
}

func envDefault(k, d string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return d
	}
	return v
}

func envInt(k string, d int) (int, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return d, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", k, err)
	}
	return n, nil
}

// envDuration accepts Go durations ("90s", "10m") or plain seconds.
func envDuration(k string, d time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return d, nil
	}
	if dur, err := time.ParseDuration(v); err == nil {
		if dur <= 0 {
			return 0, fmt.Errorf("invalid %s: must be positive", k)
		}
		return dur, nil
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 1 {
		return 0, fmt.Errorf("invalid %s", k)
	}
	return time.Duration(secs) * time.Second, nil
}

func optionalB64(k string) ([]byte, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return nil, nil
	}
	if b, err := base64.StdEncoding.DecodeString(v); err == nil {
		return b, nil
	}
	b, err := base64.RawStdEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", k, err)
	}
	return b, nil
}
