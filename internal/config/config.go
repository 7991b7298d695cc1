// Package config loads the assistant configuration from defaults, an optional
// YAML file, AGENDA_* environment variables and command-line flags.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/agenda/internal/logging"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment variables: store.driver is AGENDA_STORE_DRIVER.
const EnvPrefix = "AGENDA"

// Store and calendar drivers.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"

	CalendarMemory = "memory"
	CalendarGoogle = "google"
)

// Config holds all configuration values.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Timezone  string          `mapstructure:"timezone"`
	Store     StoreConfig     `mapstructure:"store"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Calendar  CalendarConfig  `mapstructure:"calendar"`
	Google    GoogleConfig    `mapstructure:"google"`
	Slots     SlotsConfig     `mapstructure:"slots"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Input     InputConfig     `mapstructure:"input"`
	Turn      TurnConfig      `mapstructure:"turn"`
}

type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	// Path is the directory (file) or database file (sqlite).
	Path string `mapstructure:"path"`
	// EncryptionKey enables AES-GCM encryption at rest: base64 of 32 bytes.
	EncryptionKey string   `mapstructure:"encryption_key"`
	FallbackKeys  []string `mapstructure:"fallback_keys"`
	// Redact masks links in stored replies.
	Redact bool `mapstructure:"redact"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
	Lock     bool          `mapstructure:"lock"`
}

type CalendarConfig struct {
	Driver  string        `mapstructure:"driver"`
	Timeout time.Duration `mapstructure:"timeout"`
	Summary string        `mapstructure:"summary"`
}

type GoogleConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	CalendarID      string `mapstructure:"calendar_id"`
}

type SlotsConfig struct {
	Lookahead       time.Duration `mapstructure:"lookahead"`
	KeepTimeOnShift bool          `mapstructure:"keep_time_on_shift"`
}

type RateLimitConfig struct {
	PerMinute int `mapstructure:"per_minute"`
	Burst     int `mapstructure:"burst"`
}

type TracingConfig struct {
	Exporter string `mapstructure:"exporter"`
}

type InputConfig struct {
	MaxSize int `mapstructure:"max_size"`
}

// TurnConfig bounds how long one message may spend in the dialogue.
type TurnConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// New returns a viper instance with every key defaulted and environment
// lookups enabled. Flags can be bound to it before Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("timezone", "UTC")
	v.SetDefault("store.driver", StoreMemory)
	v.SetDefault("store.path", "")
	v.SetDefault("store.encryption_key", "")
	v.SetDefault("store.fallback_keys", []string{})
	v.SetDefault("store.redact", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "agenda:session:")
	v.SetDefault("redis.ttl", "168h")
	v.SetDefault("redis.lock", true)
	v.SetDefault("calendar.driver", CalendarMemory)
	v.SetDefault("calendar.timeout", "10s")
	v.SetDefault("calendar.summary", "Scheduled Appointment")
	v.SetDefault("google.credentials_file", "credentials.json")
	v.SetDefault("google.calendar_id", "primary")
	v.SetDefault("slots.lookahead", "336h")
	v.SetDefault("slots.keep_time_on_shift", false)
	v.SetDefault("ratelimit.per_minute", 30)
	v.SetDefault("ratelimit.burst", 5)
	v.SetDefault("tracing.exporter", "none")
	v.SetDefault("input.max_size", 4096)
	v.SetDefault("turn.timeout", "20s")
	return v
}

// Load reads the optional config file and decodes v into a validated Config.
// With an empty path, "agenda.yaml" is looked up in the working directory and
// its absence is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("agenda")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown drivers, non-positive limits and unknown timezones.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case StoreMemory, StoreFile, StoreRedis, StoreSQLite:
	default:
		errs = append(errs, fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver))
	}
	switch c.Calendar.Driver {
	case CalendarMemory, CalendarGoogle:
	default:
		errs = append(errs, fmt.Errorf("calendar.driver: unknown driver %q", c.Calendar.Driver))
	}
	if c.Calendar.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("calendar.timeout: must be positive, got %s", c.Calendar.Timeout))
	}
	if c.Turn.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("turn.timeout: must be positive, got %s", c.Turn.Timeout))
	}
	if c.Slots.Lookahead <= 0 {
		errs = append(errs, fmt.Errorf("slots.lookahead: must be positive, got %s", c.Slots.Lookahead))
	}
	if c.RateLimit.PerMinute < 0 || c.RateLimit.Burst < 0 {
		errs = append(errs, errors.New("ratelimit: per_minute and burst cannot be negative"))
	}
	if c.Input.MaxSize <= 0 {
		errs = append(errs, fmt.Errorf("input.max_size: must be positive, got %d", c.Input.MaxSize))
	}
	if _, _, err := c.EncryptionKeys(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		errs = append(errs, fmt.Errorf("log.format: %w", err))
	}
	switch c.Tracing.Exporter {
	case "none", "stdout", "":
	default:
		errs = append(errs, fmt.Errorf("tracing.exporter: unknown exporter %q", c.Tracing.Exporter))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	return loc, nil
}

// EncryptionKeys decodes the at-rest keys. A nil active key means encryption is off.
func (c *Config) EncryptionKeys() ([]byte, [][]byte, error) {
	if c.Store.EncryptionKey == "" {
		if len(c.Store.FallbackKeys) > 0 {
			return nil, nil, errors.New("store.fallback_keys: set store.encryption_key as well")
		}
		return nil, nil, nil
	}
	active, err := decodeKey(c.Store.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("store.encryption_key: %w", err)
	}
	fallback := make([][]byte, 0, len(c.Store.FallbackKeys))
	for i, k := range c.Store.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("store.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// StorePath returns Store.Path or the driver's default location.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	switch c.Store.Driver {
	case StoreSQLite:
		return "conversation.db"
	case StoreFile:
		return ".agenda/sessions"
	}
	return ""
}
