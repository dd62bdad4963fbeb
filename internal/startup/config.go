package startup

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"pixelpeek/internal/fetcher"
	"pixelpeek/internal/filesystem"
	"pixelpeek/internal/logging"
	"pixelpeek/internal/scheduler"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultOutputPath is where run writes its CSV when no path is configured.
const DefaultOutputPath = "image_details.csv"

// DefaultEnvFile is loaded into the environment when present.
const DefaultEnvFile = ".env"

// Config holds all application configuration
type Config struct {
	MaxConcurrent   int           `yaml:"max_concurrent"`
	OutputPath      string        `yaml:"output_path"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	BatchTimeout    time.Duration `yaml:"batch_timeout"`
	TLSInsecure     bool          `yaml:"tls_insecure"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	UserAgent       string        `yaml:"user_agent"`
	DatabasePath    string        `yaml:"database_path"`
	Port            string        `yaml:"port"`
	MetricsEnabled  bool          `yaml:"metrics_enabled"`
	LogHealthChecks bool          `yaml:"log_health_checks"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxConcurrent:   scheduler.DefaultMaxConcurrent,
		OutputPath:      DefaultOutputPath,
		RequestTimeout:  fetcher.DefaultTimeout,
		TLSInsecure:     true,
		MaxBodyBytes:    fetcher.DefaultMaxBodyBytes,
		UserAgent:       "PixelPeek/" + Version,
		Port:            "8080",
		MetricsEnabled:  true,
		LogHealthChecks: true,
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// at configPath (or PIXELPEEK_CONFIG), a .env file and the environment, in
// that order. Command-line flags are applied on top by the caller.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		configPath = os.Getenv("PIXELPEEK_CONFIG")
	}
	if configPath != "" {
		if err := cfg.LoadFile(configPath); err != nil {
			return nil, err
		}
	}

	if err := loadEnvFile(DefaultEnvFile); err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile overlays the YAML document at path onto c. Unknown keys are
// rejected.
func (c *Config) LoadFile(path string) error {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil {
		// an empty document leaves the defaults in place
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	logging.Debug("Loaded config file %s", path)
	return nil
}

// ApplyEnv overlays environment variables onto c.
func (c *Config) ApplyEnv() error {
	var err error

	if c.MaxConcurrent, err = getEnvInt("PIXELPEEK_MAX_CONCURRENT", c.MaxConcurrent); err != nil {
		return err
	}
	c.OutputPath = getEnv("PIXELPEEK_OUTPUT", c.OutputPath)
	if c.RequestTimeout, err = getEnvDuration("PIXELPEEK_REQUEST_TIMEOUT", c.RequestTimeout); err != nil {
		return err
	}
	if c.BatchTimeout, err = getEnvDuration("PIXELPEEK_BATCH_TIMEOUT", c.BatchTimeout); err != nil {
		return err
	}
	c.TLSInsecure = getEnvBool("PIXELPEEK_TLS_INSECURE", c.TLSInsecure)

	maxBody, err := getEnvInt("PIXELPEEK_MAX_BODY_BYTES", int(c.MaxBodyBytes))
	if err != nil {
		return err
	}
	c.MaxBodyBytes = int64(maxBody)

	c.UserAgent = getEnv("PIXELPEEK_USER_AGENT", c.UserAgent)
	c.DatabasePath = getEnv("PIXELPEEK_DATABASE", c.DatabasePath)
	c.Port = getEnv("PORT", c.Port)
	c.MetricsEnabled = getEnvBool("METRICS_ENABLED", c.MetricsEnabled)
	c.LogHealthChecks = getEnvBool("LOG_HEALTH_CHECKS", c.LogHealthChecks)
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.MaxConcurrent < 0:
		return fmt.Errorf("max_concurrent must be >= 0, got %d", c.MaxConcurrent)
	case c.OutputPath == "":
		return errors.New("output_path must not be empty")
	case c.RequestTimeout <= 0:
		return fmt.Errorf("request_timeout must be positive, got %v", c.RequestTimeout)
	case c.BatchTimeout < 0:
		return fmt.Errorf("batch_timeout must not be negative, got %v", c.BatchTimeout)
	case c.MaxBodyBytes <= 0:
		return fmt.Errorf("max_body_bytes must be positive, got %d", c.MaxBodyBytes)
	}
	if port, err := strconv.Atoi(c.Port); err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	return nil
}

// FetchConfig returns the HTTP client settings for batches.
func (c *Config) FetchConfig() fetcher.Config {
	return fetcher.Config{
		Timeout:            c.RequestTimeout,
		InsecureSkipVerify: c.TLSInsecure,
		MaxBodyBytes:       c.MaxBodyBytes,
		UserAgent:          c.UserAgent,
	}
}

// HistoryEnabled reports whether a history database is configured.
func (c *Config) HistoryEnabled() bool {
	return c.DatabasePath != ""
}

// LogConfig logs the effective configuration.
func LogConfig(c *Config) {
	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	if c.MaxConcurrent == 0 {
		logging.Info("  MAX_CONCURRENT:      auto")
	} else {
		logging.Info("  MAX_CONCURRENT:      %d", c.MaxConcurrent)
	}
	logging.Info("  OUTPUT:              %s", c.OutputPath)
	logging.Info("  REQUEST_TIMEOUT:     %v", c.RequestTimeout)
	if c.BatchTimeout > 0 {
		logging.Info("  BATCH_TIMEOUT:       %v", c.BatchTimeout)
	} else {
		logging.Info("  BATCH_TIMEOUT:       none")
	}
	logging.Info("  TLS_INSECURE:        %v", c.TLSInsecure)
	logging.Info("  MAX_BODY_BYTES:      %d", c.MaxBodyBytes)
	logging.Info("  USER_AGENT:          %s", c.UserAgent)
	logging.Info("  DATABASE:            %s", valueOr(c.DatabasePath, "disabled"))
	logging.Info("  PORT:                %s", c.Port)
	logging.Info("  METRICS_ENABLED:     %v", c.MetricsEnabled)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	if c.TLSInsecure {
		logging.Warn("  TLS certificate verification is DISABLED for image fetches (set PIXELPEEK_TLS_INSECURE=false to enable)")
	}
	logging.Info("")
}

func loadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat env file: %w", err)
	}
	// existing environment variables take precedence
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	logging.Debug("Loaded environment from %s", path)
	return nil
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %q", key, value)
	}
	return parsed, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration value for %s: %q", key, value)
	}
	return parsed, nil
}
