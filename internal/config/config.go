// Package config loads pokepalette settings from defaults, an optional config file,
// POKEPALETTE_* environment variables and command-line flags, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jmylchreest/pokepalette/internal/colour"
	"github.com/jmylchreest/pokepalette/internal/palette"
)

const (
	KeyLogLevel      = "log_level"
	KeyAlgorithm     = "engine.algorithm"
	KeyTopN          = "engine.top_n"
	KeyPickCount     = "engine.pick_count"
	KeyMinCount      = "engine.min_count"
	KeyPrecision     = "engine.precision"
	KeyServerAddr    = "server.addr"
	KeyAllowPrivate  = "server.allow_private_hosts"
	KeyCacheBackend  = "cache.backend"
	KeyCacheTTL      = "cache.ttl"
	KeyCacheDir      = "cache.dir"
	KeyRedisAddr     = "redis.addr"
	KeyRedisPassword = "redis.password"
	KeyRedisDB       = "redis.db"
	KeySpecialCases  = "special_cases"
)

// EnvPrefix prefixes every environment override, e.g. POKEPALETTE_REDIS_ADDR.
const EnvPrefix = "POKEPALETTE"

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheFile   = "file"
	CacheNone   = "none"
)

// CacheBackends returns every supported cache backend.
func CacheBackends() []string {
	return []string{CacheMemory, CacheRedis, CacheFile, CacheNone}
}

// Config wraps a viper instance holding the merged settings.
type Config struct {
	vp *viper.Viper
}

// New creates a Config with defaults and environment overrides applied.
func New() *Config {
	vp := viper.New()

	vp.SetDefault(KeyLogLevel, "warn")
	vp.SetDefault(KeyAlgorithm, string(palette.AlgorithmSprite))
	vp.SetDefault(KeyTopN, palette.DefaultTopN)
	vp.SetDefault(KeyPickCount, palette.DefaultPickCount)
	vp.SetDefault(KeyMinCount, palette.DefaultMinCount)
	vp.SetDefault(KeyPrecision, 1)
	vp.SetDefault(KeyServerAddr, ":8080")
	vp.SetDefault(KeyAllowPrivate, false)
	vp.SetDefault(KeyCacheBackend, CacheMemory)
	vp.SetDefault(KeyCacheTTL, 24*time.Hour)
	vp.SetDefault(KeyCacheDir, "")
	vp.SetDefault(KeyRedisAddr, "localhost:6379")
	vp.SetDefault(KeyRedisPassword, "")
	vp.SetDefault(KeyRedisDB, 0)

	vp.SetEnvPrefix(EnvPrefix)
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	return &Config{vp: vp}
}

// Load reads the config file. An explicit path must exist; otherwise pokepalette.yaml
// is looked up in the user config directory and the working directory, and a missing
// file is not an error.
func (c *Config) Load(path string) error {
	if path != "" {
		c.vp.SetConfigFile(path)
		if err := c.vp.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}

	c.vp.SetConfigName("pokepalette")
	if dir, err := DefaultConfigDir(); err == nil {
		c.vp.AddConfigPath(dir)
	}
	c.vp.AddConfigPath(".")

	if err := c.vp.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// DefaultConfigDir returns the directory searched for pokepalette.yaml.
func DefaultConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine config directory: %w", err)
	}
	return filepath.Join(dir, "pokepalette"), nil
}

// File returns the config file in use, or "" when none was read.
func (c *Config) File() string {
	return c.vp.ConfigFileUsed()
}

// BindFlag makes flag override key when it is set on the command line.
func (c *Config) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("no flag to bind for %s", key)
	}
	if err := c.vp.BindPFlag(key, flag); err != nil {
		return fmt.Errorf("failed to bind flag --%s: %w", flag.Name, err)
	}
	return nil
}

// Set overrides a key.
func (c *Config) Set(key string, value any) {
	c.vp.Set(key, value)
}

func (c *Config) GetString(key string) string {
	return c.vp.GetString(key)
}

func (c *Config) GetInt(key string) int {
	return c.vp.GetInt(key)
}

func (c *Config) GetBool(key string) bool {
	return c.vp.GetBool(key)
}

func (c *Config) GetDuration(key string) time.Duration {
	return c.vp.GetDuration(key)
}

// LogLevel returns the configured log level.
func (c *Config) LogLevel() hclog.Level {
	return hclog.LevelFromString(c.GetString(KeyLogLevel))
}

// Validate checks values that cannot be validated by type alone.
func (c *Config) Validate() error {
	if c.LogLevel() == hclog.NoLevel {
		return fmt.Errorf("invalid %s: %q", KeyLogLevel, c.GetString(KeyLogLevel))
	}
	if alg := palette.Algorithm(c.GetString(KeyAlgorithm)); !palette.IsValidAlgorithm(alg) {
		return fmt.Errorf("invalid %s: %q (valid algorithms: %v)", KeyAlgorithm, alg, palette.ValidAlgorithms())
	}
	if backend := c.GetString(KeyCacheBackend); !slices.Contains(CacheBackends(), backend) {
		return fmt.Errorf("invalid %s: %q (valid backends: %v)", KeyCacheBackend, backend, CacheBackends())
	}
	if ttl := c.GetDuration(KeyCacheTTL); ttl < 0 {
		return fmt.Errorf("%s cannot be negative, got %s", KeyCacheTTL, ttl)
	}
	if _, err := c.Options(nil); err != nil {
		return err
	}
	return nil
}

// Options builds pipeline options, including the special-case rules.
func (c *Config) Options(logger hclog.Logger) (palette.Options, error) {
	rules, err := c.Rules()
	if err != nil {
		return palette.Options{}, err
	}

	opts := palette.DefaultOptions()
	opts.TopN = c.GetInt(KeyTopN)
	opts.PickCount = c.GetInt(KeyPickCount)
	switch minCount := c.GetInt(KeyMinCount); {
	case minCount < 0:
		return palette.Options{}, fmt.Errorf("%s cannot be negative, got %d", KeyMinCount, minCount)
	case minCount == 0:
		opts.MinCount = palette.NoMinCount
	default:
		opts.MinCount = minCount
	}
	opts.Precision = c.GetInt(KeyPrecision)
	opts.Rules = rules
	opts.Logger = logger

	if err := opts.Validate(); err != nil {
		return palette.Options{}, fmt.Errorf("invalid engine settings: %w", err)
	}
	return opts, nil
}

// ruleConfig is the file form of a special case. Colours are hex strings.
type ruleConfig struct {
	Mode    string   `mapstructure:"mode"`
	Value   int      `mapstructure:"value"`
	Colours []string `mapstructure:"colours"`
}

// Rules parses the special_cases table. A malformed id, mode or colour fails the
// whole table.
func (c *Config) Rules() (palette.Rules, error) {
	var raw map[string]ruleConfig
	if err := c.vp.UnmarshalKey(KeySpecialCases, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", KeySpecialCases, err)
	}

	rules := make(palette.Rules, len(raw))
	for key, rc := range raw {
		id, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("special case %q: id must be an integer", key)
		}

		mode, err := palette.ParseMode(rc.Mode)
		if err != nil {
			return nil, fmt.Errorf("special case %d: %w", id, err)
		}

		rule := palette.Rule{Mode: mode, Value: rc.Value}
		for _, hex := range rc.Colours {
			rgb, err := colour.ParseHex(hex)
			if err != nil {
				return nil, fmt.Errorf("special case %d: %w", id, err)
			}
			rule.Colours = append(rule.Colours, rgb)
		}
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("special case %d: %w", id, err)
		}
		rules[id] = rule
	}
	return rules, nil
}
