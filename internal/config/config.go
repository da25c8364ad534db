package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/STRATINT/activityscan/internal/auth"
	"github.com/STRATINT/activityscan/internal/database"
	"github.com/STRATINT/activityscan/internal/imaging"
	"github.com/STRATINT/activityscan/internal/scanner"
	"github.com/STRATINT/activityscan/internal/vision"
)

// Config represents runtime configuration derived from environment variables.
type Config struct {
	Server   ServerConfig
	Logging  LoggingConfig
	Database DatabaseConfig
	Settings SettingsConfig
	Auth     auth.Config
	Vision   vision.Config
	Imaging  imaging.Config
	Scan     ScanConfig
}

// ServerConfig holds HTTP server runtime parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig represents structured logging configuration. A non-empty
// File sends output to a rotated log file instead of stdout.
type LoggingConfig struct {
	Level      slog.Level
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DatabaseConfig selects the Postgres settings store. Empty URL disables it.
type DatabaseConfig struct {
	URL string
}

// SettingsConfig selects the YAML settings store used when no database is configured.
type SettingsConfig struct {
	File string
}

// ScanConfig holds scan pipeline parameters that are not user settings.
type ScanConfig struct {
	ErrorPolicy  scanner.ErrorPolicy
	MaxBodyBytes int64
}

const (
	defaultPort            = "8080"
	defaultReadTimeout     = 30 * time.Second
	defaultWriteTimeout    = 5 * time.Minute
	defaultShutdownTimeout = 10 * time.Second

	defaultLogFormat     = "json"
	defaultLogMaxSizeMB  = 100
	defaultLogMaxBackups = 5
	defaultLogMaxAgeDays = 28

	defaultTokenDuration = 24 * time.Hour
	defaultMaxBodyBytes  = 32 << 20
)

// Load reads configuration from environment variables, applying defaults when
// values are not provided or invalid.
func Load() (Config, error) {
	// Cloud Run sets PORT, but allow SERVER_PORT override for local dev
	port := getEnv("PORT", "")
	if port == "" {
		port = getEnv("SERVER_PORT", defaultPort)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            port,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:      slog.LevelInfo,
			Format:     defaultLogFormat,
			File:       os.Getenv("LOG_FILE"),
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
		Settings: SettingsConfig{
			File: os.Getenv("SETTINGS_FILE"),
		},
		Auth: auth.Config{
			JWTSecret:         os.Getenv("ADMIN_JWT_SECRET"),
			AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
			AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
			TokenDuration:     defaultTokenDuration,
		},
		Vision:  vision.DefaultConfig(),
		Imaging: imaging.DefaultConfig(),
		Scan: ScanConfig{
			ErrorPolicy:  scanner.ErrorPolicySkip,
			MaxBodyBytes: defaultMaxBodyBytes,
		},
	}

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"SERVER_READ_TIMEOUT_SECONDS", &cfg.Server.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT_SECONDS", &cfg.Server.WriteTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT_SECONDS", &cfg.Server.ShutdownTimeout},
		{"VISION_TIMEOUT_SECONDS", &cfg.Vision.Timeout},
		{"IMAGE_FETCH_TIMEOUT_SECONDS", &cfg.Imaging.FetchTimeout},
	}
	for _, d := range durations {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := parseSeconds(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", d.key, err)
			}
			*d.target = parsed
		}
	}

	ints := []struct {
		key    string
		target *int
	}{
		{"LOG_FILE_MAX_SIZE_MB", &cfg.Logging.MaxSizeMB},
		{"LOG_FILE_MAX_BACKUPS", &cfg.Logging.MaxBackups},
		{"LOG_FILE_MAX_AGE_DAYS", &cfg.Logging.MaxAgeDays},
		{"VISION_MAX_RETRIES", &cfg.Vision.Retry.MaxRetries},
		{"VISION_MAX_TOKENS", &cfg.Vision.MaxTokens},
		{"IMAGE_MAX_DIMENSION", &cfg.Imaging.MaxDimension},
	}
	for _, i := range ints {
		if v := os.Getenv(i.key); v != "" {
			parsed, err := parseNonNegative(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", i.key, err)
			}
			*i.target = parsed
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Logging.Level = level
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		switch v {
		case "json", "text":
			cfg.Logging.Format = v
		default:
			return Config{}, fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'")
		}
	}

	dbURL, err := database.BuildURL(os.Getenv)
	if err != nil {
		return Config{}, fmt.Errorf("invalid database configuration: %w", err)
	}
	cfg.Database.URL = dbURL

	if v := os.Getenv("AUTH_TOKEN_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours <= 0 {
			return Config{}, fmt.Errorf("invalid AUTH_TOKEN_HOURS: must be a positive integer")
		}
		cfg.Auth.TokenDuration = time.Duration(hours) * time.Hour
	}

	if err := loadVision(&cfg.Vision); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("IMAGE_JPEG_QUALITY"); v != "" {
		quality, err := strconv.Atoi(v)
		if err != nil || quality < 1 || quality > 100 {
			return Config{}, fmt.Errorf("invalid IMAGE_JPEG_QUALITY: must be between 1 and 100")
		}
		cfg.Imaging.Quality = quality
	}
	if v := os.Getenv("IMAGE_MAX_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid IMAGE_MAX_BYTES: must be a positive integer")
		}
		cfg.Imaging.MaxBytes = n
	}
	cfg.Imaging.BaseDir = os.Getenv("IMAGE_BASE_DIR")

	if v := os.Getenv("SCAN_ERROR_POLICY"); v != "" {
		policy, err := scanner.ParseErrorPolicy(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SCAN_ERROR_POLICY: %w", err)
		}
		cfg.Scan.ErrorPolicy = policy
	}
	if v := os.Getenv("SCAN_MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid SCAN_MAX_BODY_BYTES: must be a positive integer")
		}
		cfg.Scan.MaxBodyBytes = n
	}

	return cfg, nil
}

// loadVision resolves the provider and its API key. GEMINI_API_KEY and
// OPENAI_API_KEY are read for their provider; VISION_API_KEY overrides both.
func loadVision(cfg *vision.Config) error {
	if v := os.Getenv("VISION_PROVIDER"); v != "" {
		switch v {
		case vision.ProviderGemini, vision.ProviderOpenAI, vision.ProviderMock, vision.ProviderNone:
			cfg.Provider = v
		default:
			return fmt.Errorf("invalid VISION_PROVIDER: must be one of gemini, openai, mock, none")
		}
	}

	switch cfg.Provider {
	case vision.ProviderGemini:
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	case vision.ProviderOpenAI:
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	cfg.APIKey = getEnv("VISION_API_KEY", cfg.APIKey)
	cfg.Model = os.Getenv("VISION_MODEL")
	cfg.BaseURL = os.Getenv("VISION_BASE_URL")
	return nil
}

func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := parseNonNegative(raw)
	if err != nil {
		return 0, err
	}
	return time.Duration(seconds) * time.Second, nil
}

func parseNonNegative(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return n, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error")
	}
}
