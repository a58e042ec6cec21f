package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port       string `yaml:"port"`
		DataDir    string `yaml:"data_dir"`
		CookieName string `yaml:"cookie_name"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL         string `yaml:"ttl"`
		SessionTTL  string `yaml:"session_ttl"`
		OptionCount int    `yaml:"option_count"`
	} `yaml:"quiz"`
	Logger LoggerConfig `yaml:"logger"`
}

// LoggerConfig selects log level ("debug", "info", ...) and encoding.
type LoggerConfig struct {
	Level string `yaml:"level"`
	Env   string `yaml:"env"`
}

const (
	DefaultDataDir     = "data"
	DefaultCookieName  = "quiz_session"
	DefaultOptionCount = 3
)

// ErrInvalid is returned for values that are present but unusable.
var ErrInvalid = errors.New("invalid config")

// Load reads YAML config from path and fills defaults.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOptional is Load, but a missing file yields the defaults.
func LoadOptional(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Config{}
		cfg.applyDefaults()
		return cfg, nil
	}
	return cfg, err
}

func (c *Config) applyDefaults() {
	if c.Server.DataDir == "" {
		c.Server.DataDir = DefaultDataDir
	}
	if c.Server.CookieName == "" {
		c.Server.CookieName = DefaultCookieName
	}
	if c.Quiz.OptionCount == 0 {
		c.Quiz.OptionCount = DefaultOptionCount
	}
}

func (c *Config) validate() error {
	var errs []error
	for _, field := range []struct{ name, raw string }{
		{"quiz.ttl", c.Quiz.TTL},
		{"quiz.session_ttl", c.Quiz.SessionTTL},
		{"redis.ttl", c.Redis.TTL},
	} {
		if _, err := TTLDuration(field.raw, time.Minute); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field.name, err))
		}
	}
	if c.Quiz.OptionCount < 0 {
		errs = append(errs, fmt.Errorf("%w: quiz.option_count must not be negative, got %d", ErrInvalid, c.Quiz.OptionCount))
	}
	return errors.Join(errs...)
}

// TTLDuration parses a positive duration string. An empty string yields the
// fallback; anything else that does not parse is an ErrInvalid.
func TTLDuration(raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: duration %q: %v", ErrInvalid, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: duration %q must be positive", ErrInvalid, raw)
	}
	return d, nil
}
