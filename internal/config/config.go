package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates application configuration values.
type Config struct {
	Import  ImportConfig
	Graph   GraphConfig
	Logging LoggingConfig
}

// ImportConfig governs how a run drives the graph service.
type ImportConfig struct {
	Workers          int
	MaxAttempts      int
	InitialBackoff   time.Duration
	MaxBackoff       time.Duration
	OperationTimeout time.Duration
	FailFastRate     float64
	FailFastMinimum  int
	RatePerSecond    float64
}

// GraphConfig holds graph settings that the connection descriptor does not carry.
type GraphConfig struct {
	Database       string
	MaxConnections int
	IDFunction     string // elementId|id
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

const (
	defaultWorkers          = 4
	defaultMaxAttempts      = 3
	defaultInitialBackoff   = 200 * time.Millisecond
	defaultMaxBackoff       = 5 * time.Second
	defaultOperationTimeout = 30 * time.Second
	defaultFailFastMinimum  = 10
	defaultLoggingLevel     = "info"
	defaultLoggingFormat    = "text"
	defaultGraphMaxSessions = 10
	defaultIDFunction       = "elementId"
)

// LoadDotEnv seeds the environment from the given files, or ".env" when none
// are named. Missing files are ignored; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Import: ImportConfig{
			Workers:          parseIntWithDefault("IMPORT_WORKERS", defaultWorkers),
			MaxAttempts:      parseIntWithDefault("IMPORT_MAX_ATTEMPTS", defaultMaxAttempts),
			InitialBackoff:   defaultInitialBackoff,
			MaxBackoff:       defaultMaxBackoff,
			OperationTimeout: defaultOperationTimeout,
			FailFastMinimum:  parseIntWithDefault("IMPORT_FAIL_FAST_MIN_ATTEMPTS", defaultFailFastMinimum),
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
		Graph: GraphConfig{
			Database:       valueOrDefault("GRAPH_DATABASE", ""),
			MaxConnections: parseIntWithDefault("GRAPH_MAX_CONNECTIONS", defaultGraphMaxSessions),
			IDFunction:     valueOrDefault("GRAPH_ID_FUNCTION", defaultIDFunction),
		},
	}

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"IMPORT_INITIAL_BACKOFF", &cfg.Import.InitialBackoff},
		{"IMPORT_MAX_BACKOFF", &cfg.Import.MaxBackoff},
		{"IMPORT_OPERATION_TIMEOUT", &cfg.Import.OperationTimeout},
	}
	for _, d := range durations {
		if err := parseDuration(d.key, d.target); err != nil {
			return Config{}, err
		}
	}

	var err error
	if cfg.Import.FailFastRate, err = parseRate("IMPORT_FAIL_FAST_RATE", 0, 1); err != nil {
		return Config{}, err
	}
	if cfg.Import.RatePerSecond, err = parseRate("IMPORT_RATE_PER_SECOND", 0, -1); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that flags may have overridden after Load.
func (c Config) Validate() error {
	if c.Import.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Import.Workers)
	}
	if c.Import.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive, got %d", c.Import.MaxAttempts)
	}
	if c.Import.OperationTimeout <= 0 {
		return fmt.Errorf("operation timeout must be positive, got %s", c.Import.OperationTimeout)
	}
	if c.Import.FailFastRate < 0 || c.Import.FailFastRate > 1 {
		return fmt.Errorf("fail-fast rate %.2f is outside [0,1]", c.Import.FailFastRate)
	}
	switch c.Graph.IDFunction {
	case "elementId", "id":
	default:
		return fmt.Errorf("unsupported id function %q (want elementId or id)", c.Graph.IDFunction)
	}
	return nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseDuration(key string, target *time.Duration) error {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*target = d
	}
	return nil
}

// parseRate reads a non-negative float; max < 0 means unbounded.
func parseRate(key string, fallback, max float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	val, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
	}
	if val < 0 || (max >= 0 && val > max) {
		return 0, fmt.Errorf("%s value %v is out of range", key, val)
	}
	return val, nil
}
