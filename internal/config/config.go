// Package config holds the settings of the etsyterms command.
//
// Values are layered: defaults, then an optional TOML file, then environment
// variables, then command-line flags (applied by the caller).
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Environment variables read by ApplyEnv.
const (
	EnvAPIKey   = "ETSY_API_KEY"
	EnvLogLevel = "LOG_LEVEL"
	EnvRedisURL = "REDIS_URL"
	EnvBaseURL  = "ETSY_BASE_URL"
)

// Defaults.
const (
	DefaultNumTerms    = 5
	DefaultLogLevel    = "error"
	DefaultConcurrency = 1
	MaxConcurrency     = 16
)

// ErrNoShops is returned by Validate when neither shop IDs nor a shop file is set.
var ErrNoShops = errors.New("at least one shop id or a shop file is required")

// Config is the command configuration.
type Config struct {
	APIKey      string   `toml:"api_key"`
	ShopIDs     []string `toml:"shop_ids"`
	ShopFile    string   `toml:"shop_file"`
	NumTerms    int      `toml:"num_terms"`
	LogLevel    string   `toml:"log_level"`
	Concurrency int      `toml:"concurrency"`
	RedisURL    string   `toml:"redis_url"`
	MetricsAddr string   `toml:"metrics_addr"`
	BaseURL     string   `toml:"base_url"`
}

// Default returns a Config with defaults applied.
func Default() *Config {
	return &Config{
		NumTerms:    DefaultNumTerms,
		LogLevel:    DefaultLogLevel,
		Concurrency: DefaultConcurrency,
	}
}

// Load reads a TOML file on top of the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode TOML file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in %s: %v", path, undecoded)
	}

	fillDefaults(cfg)
	return cfg, nil
}

func fillDefaults(cfg *Config) {
	if cfg.NumTerms == 0 {
		cfg.NumTerms = DefaultNumTerms
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = DefaultConcurrency
	}
}

// ApplyEnv overrides fields with the environment variables that are set.
func (c *Config) ApplyEnv() {
	if key := os.Getenv(EnvAPIKey); key != "" {
		c.APIKey = key
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.LogLevel = level
	}
	if url := os.Getenv(EnvRedisURL); url != "" {
		c.RedisURL = url
	}
	if url := os.Getenv(EnvBaseURL); url != "" {
		c.BaseURL = url
	}
}

// Validate checks the configuration. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.APIKey) == "" {
		errs = append(errs, fmt.Errorf("api key is required (flag -api-key or %s)", EnvAPIKey))
	}
	if len(c.ShopIDs) == 0 && c.ShopFile == "" {
		errs = append(errs, ErrNoShops)
	}
	if c.NumTerms < 1 {
		errs = append(errs, fmt.Errorf("num_terms must be >= 1 (got %d)", c.NumTerms))
	}
	if c.Concurrency < 1 || c.Concurrency > MaxConcurrency {
		errs = append(errs, fmt.Errorf("concurrency must be between 1 and %d (got %d)", MaxConcurrency, c.Concurrency))
	}

	return errors.Join(errs...)
}

// Shops returns the shop IDs followed by those read from ShopFile.
// Duplicates keep their first position.
func (c *Config) Shops() ([]string, error) {
	ids := append([]string(nil), c.ShopIDs...)

	if c.ShopFile != "" {
		f, err := os.Open(c.ShopFile)
		if err != nil {
			return nil, fmt.Errorf("open shop file: %w", err)
		}
		defer f.Close()

		fromFile, err := ReadShopIDs(f)
		if err != nil {
			return nil, fmt.Errorf("read shop file %s: %w", c.ShopFile, err)
		}
		ids = append(ids, fromFile...)
	}

	return dedupe(ids), nil
}

// ReadShopIDs reads one shop ID per line. Blank lines and lines starting
// with '#' are skipped.
func ReadShopIDs(r io.Reader) ([]string, error) {
	var ids []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// SplitShopIDs splits a comma-separated list, dropping empty entries.
func SplitShopIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
