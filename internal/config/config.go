package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	insecureSessionSecret = "supersecretkey"
	defaultMaxUploadBytes = 10 << 20
)

type Config struct {
	Addr            string        `yaml:"addr"`
	Env             string        `yaml:"env"`
	SessionSecret   string        `yaml:"session_secret"`
	SessionDuration time.Duration `yaml:"session_duration"`
	SecureCookies   bool          `yaml:"secure_cookies"`
	APITimeout      time.Duration `yaml:"timeout"`
	DatabasePath    string        `yaml:"database_path"`
	MigrateOnStart  bool          `yaml:"migrate_on_start"`
	Media           MediaConfig   `yaml:"media"`
	Log             LogConfig     `yaml:"log"`
}

type MediaConfig struct {
	Root           string `yaml:"root"`
	URLPrefix      string `yaml:"url_prefix"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadConfig builds the configuration from defaults, the process environment
// (optionally primed from a .env file) and, when path is set, a YAML file.
func LoadConfig(path string) (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	apiTimeout := 15 * time.Second
	sessionDuration := 12 * time.Hour

	cfg := &Config{
		Addr:            getEnv("INNOHUB_ADDR", ":8080"),
		Env:             getEnv("INNOHUB_ENV", "development"),
		SessionSecret:   getEnv("INNOHUB_SESSION_SECRET", insecureSessionSecret),
		SessionDuration: sessionDuration,
		SecureCookies:   getEnvBool("INNOHUB_SECURE_COOKIES", false),
		APITimeout:      apiTimeout,
		DatabasePath:    getEnv("INNOHUB_DATABASE_PATH", "innohub.db"),
		MigrateOnStart:  getEnvBool("INNOHUB_MIGRATE_ON_START", true),
		Media: MediaConfig{
			Root:      getEnv("INNOHUB_MEDIA_ROOT", "media"),
			URLPrefix: "/media/",
		},
		Log: LogConfig{
			Level:  getEnv("INNOHUB_LOG_LEVEL", "info"),
			Format: getEnv("INNOHUB_LOG_FORMAT", "json"),
		},
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	}

	return cfg, nil
}

// Validate rejects unusable settings and fills optional ones.
func (c *Config) Validate() error {
	var errs []error

	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("session_secret is required"))
	} else if c.SessionSecret == insecureSessionSecret && c.Env != "development" {
		errs = append(errs, fmt.Errorf("session_secret uses the built-in default; set INNOHUB_SESSION_SECRET for env %q", c.Env))
	}
	if c.SessionDuration <= 0 {
		errs = append(errs, errors.New("session_duration must be positive"))
	}
	if c.APITimeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}
	if c.DatabasePath == "" {
		errs = append(errs, errors.New("database_path is required"))
	}
	if c.Media.Root == "" {
		errs = append(errs, errors.New("media.root is required"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	if c.Media.URLPrefix == "" {
		c.Media.URLPrefix = "/media/"
	}
	if c.Media.MaxUploadBytes <= 0 {
		c.Media.MaxUploadBytes = defaultMaxUploadBytes
	}

	return errors.Join(errs...)
}

// ParseLevel maps a config level name onto slog.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("log.level: %w", err)
	}
	return l, nil
}

// NewLogger builds the process logger described by c.
func (c LogConfig) NewLogger() *slog.Logger {
	level, _ := ParseLevel(c.Level)
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}

func getEnvBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return def
}
