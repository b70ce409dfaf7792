// Package config loads runtime settings from the environment, after reading
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"purchase-drivers/internal/crawler"
	"purchase-drivers/internal/taxonomy"
	"purchase-drivers/pkg/logger"
)

type Config struct {
	TaxonomyPath string // empty means the embedded Spanish taxonomy
	LogLevel     string
	LogFormat    string

	FetchTimeout  time.Duration
	DialTimeout   time.Duration
	MaxBodyBytes  int64
	FetchAttempts int
	Cookies       string

	Concurrency int
	Addr        string
	DBPath      string // empty disables report history
}

func Default() Config {
	return Config{
		LogLevel:      "info",
		LogFormat:     "console",
		FetchTimeout:  25 * time.Second,
		DialTimeout:   5 * time.Second,
		MaxBodyBytes:  5 * 1024 * 1024,
		FetchAttempts: 3,
		Concurrency:   10,
		Addr:          ":8080",
	}
}

// Load reads .env (if present) and then PD_* environment variables over the defaults.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, which has the signature of os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	str("PD_TAXONOMY", &cfg.TaxonomyPath)
	str("PD_LOG_LEVEL", &cfg.LogLevel)
	str("PD_LOG_FORMAT", &cfg.LogFormat)
	dur("PD_FETCH_TIMEOUT", &cfg.FetchTimeout)
	dur("PD_DIAL_TIMEOUT", &cfg.DialTimeout)
	if v, ok := lookup("PD_MAX_BODY_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("PD_MAX_BODY_BYTES: %w", err))
		} else {
			cfg.MaxBodyBytes = n
		}
	}
	num("PD_RETRIES", &cfg.FetchAttempts)
	num("PD_CONCURRENCY", &cfg.Concurrency)
	str("PD_ADDR", &cfg.Addr)
	str("PD_DB", &cfg.DBPath)
	str("SCRAPE_COOKIES", &cfg.Cookies)

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.FetchTimeout <= 0:
		return errors.New("fetch timeout must be positive")
	case c.DialTimeout <= 0:
		return errors.New("dial timeout must be positive")
	case c.MaxBodyBytes <= 0:
		return errors.New("max body bytes must be positive")
	case c.FetchAttempts < 1:
		return errors.New("fetch attempts must be at least 1")
	case c.Concurrency < 1:
		return errors.New("concurrency must be at least 1")
	}
	return nil
}

// Taxonomy loads the configured taxonomy, or the embedded default.
func (c Config) Taxonomy() (*taxonomy.Taxonomy, error) {
	if c.TaxonomyPath == "" {
		return taxonomy.Default()
	}
	return taxonomy.Load(c.TaxonomyPath)
}

func (c Config) CrawlerOptions() crawler.Options {
	opts := crawler.DefaultOptions()
	opts.Timeout = c.FetchTimeout
	opts.DialTimeout = c.DialTimeout
	opts.SizeCap = c.MaxBodyBytes
	opts.Attempts = c.FetchAttempts
	if c.Cookies != "" {
		opts.Cookies = c.Cookies
	}
	return opts
}

func (c Config) Logger() *logger.Logger {
	return logger.NewWithConfig(logger.Config{Level: c.LogLevel, Format: c.LogFormat})
}
