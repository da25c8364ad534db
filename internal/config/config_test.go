package config

import (
	"os"
	"testing"
	"time"

	"log/slog"

	"github.com/STRATINT/activityscan/internal/imaging"
	"github.com/STRATINT/activityscan/internal/scanner"
	"github.com/STRATINT/activityscan/internal/vision"
)

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != defaultPort {
		t.Errorf("expected default port %q, got %q", defaultPort, cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != defaultReadTimeout {
		t.Errorf("expected default read timeout %v, got %v", defaultReadTimeout, cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != defaultWriteTimeout {
		t.Errorf("expected default write timeout %v, got %v", defaultWriteTimeout, cfg.Server.WriteTimeout)
	}
	if cfg.Server.ShutdownTimeout != defaultShutdownTimeout {
		t.Errorf("expected default shutdown timeout %v, got %v", defaultShutdownTimeout, cfg.Server.ShutdownTimeout)
	}
	if cfg.Logging.Level != slog.LevelInfo {
		t.Errorf("expected default log level %v, got %v", slog.LevelInfo, cfg.Logging.Level)
	}
	if cfg.Logging.Format != defaultLogFormat {
		t.Errorf("expected default log format %q, got %q", defaultLogFormat, cfg.Logging.Format)
	}
	if cfg.Logging.File != "" {
		t.Errorf("expected stdout logging by default, got file %q", cfg.Logging.File)
	}
	if cfg.Database.URL != "" {
		t.Errorf("expected no database by default, got %q", cfg.Database.URL)
	}
	if cfg.Vision.Provider != vision.ProviderGemini {
		t.Errorf("expected default vision provider %q, got %q", vision.ProviderGemini, cfg.Vision.Provider)
	}
	if cfg.Imaging != imaging.DefaultConfig() {
		t.Errorf("expected default imaging config, got %+v", cfg.Imaging)
	}
	if cfg.Scan.ErrorPolicy != scanner.ErrorPolicySkip {
		t.Errorf("expected default error policy %q, got %q", scanner.ErrorPolicySkip, cfg.Scan.ErrorPolicy)
	}
	if cfg.Auth.TokenDuration != defaultTokenDuration {
		t.Errorf("expected default token duration %v, got %v", defaultTokenDuration, cfg.Auth.TokenDuration)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	clearConfigEnv(t)

	overrides := map[string]string{
		"SERVER_PORT":                     "9090",
		"SERVER_READ_TIMEOUT_SECONDS":     "30",
		"SERVER_WRITE_TIMEOUT_SECONDS":    "45",
		"SERVER_SHUTDOWN_TIMEOUT_SECONDS": "15",
		"LOG_LEVEL":                       "debug",
		"LOG_FORMAT":                      "text",
	}
	for key, value := range overrides {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.Port != overrides["SERVER_PORT"] {
		t.Errorf("expected overridden port %q, got %q", overrides["SERVER_PORT"], cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("expected read timeout %v, got %v", 30*time.Second, cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != 45*time.Second {
		t.Errorf("expected write timeout %v, got %v", 45*time.Second, cfg.Server.WriteTimeout)
	}
	if cfg.Server.ShutdownTimeout != 15*time.Second {
		t.Errorf("expected shutdown timeout %v, got %v", 15*time.Second, cfg.Server.ShutdownTimeout)
	}
	if cfg.Logging.Level != slog.LevelDebug {
		t.Errorf("expected log level %v, got %v", slog.LevelDebug, cfg.Logging.Level)
	}
	if cfg.Logging.Format != overrides["LOG_FORMAT"] {
		t.Errorf("expected log format %q, got %q", overrides["LOG_FORMAT"], cfg.Logging.Format)
	}
}

func TestLoadPartialOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("SERVER_READ_TIMEOUT_SECONDS", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("expected overridden read timeout %v, got %v", 5*time.Second, cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != defaultWriteTimeout {
		t.Errorf("expected default write timeout %v, got %v", defaultWriteTimeout, cfg.Server.WriteTimeout)
	}
}

func TestLoadWithInvalidValues(t *testing.T) {
	tests := map[string]string{
		"SERVER_READ_TIMEOUT_SECONDS":     "-1",
		"SERVER_WRITE_TIMEOUT_SECONDS":    "abc",
		"SERVER_SHUTDOWN_TIMEOUT_SECONDS": "3.5",
		"LOG_LEVEL":                       "verbose",
		"LOG_FORMAT":                      "xml",
		"LOG_FILE_MAX_BACKUPS":            "-3",
		"VISION_PROVIDER":                 "claude",
		"VISION_TIMEOUT_SECONDS":          "soon",
		"IMAGE_JPEG_QUALITY":              "0",
		"IMAGE_MAX_BYTES":                 "-10",
		"SCAN_ERROR_POLICY":               "ignore",
		"SCAN_MAX_BODY_BYTES":             "0",
		"AUTH_TOKEN_HOURS":                "0",
		"INSTANCE_CONNECTION_NAME":        "project:region:instance",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv(key, value)

			if _, err := Load(); err == nil {
				t.Fatalf("expected error when %s=%q", key, value)
			}
		})
	}
}

func TestLoadPipelineOverrides(t *testing.T) {
	clearConfigEnv(t)

	overrides := map[string]string{
		"LOG_FILE":                    "/var/log/activityscan/scan.log",
		"LOG_FILE_MAX_SIZE_MB":        "10",
		"DATABASE_URL":                "postgres://scan:pw@localhost:5432/scans",
		"SETTINGS_FILE":               "/etc/activityscan/settings.yaml",
		"ADMIN_PASSWORD_HASH":         "$2a$10$hash",
		"AUTH_TOKEN_HOURS":            "2",
		"VISION_PROVIDER":             "openai",
		"OPENAI_API_KEY":              "sk-test",
		"VISION_MODEL":                "gpt-4o",
		"VISION_TIMEOUT_SECONDS":      "20",
		"VISION_MAX_RETRIES":          "0",
		"IMAGE_MAX_DIMENSION":         "800",
		"IMAGE_JPEG_QUALITY":          "75",
		"IMAGE_FETCH_TIMEOUT_SECONDS": "3",
		"IMAGE_BASE_DIR":              "/srv/shots",
		"SCAN_ERROR_POLICY":           "abort",
	}
	for key, value := range overrides {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Logging.File != overrides["LOG_FILE"] || cfg.Logging.MaxSizeMB != 10 {
		t.Errorf("unexpected logging config %+v", cfg.Logging)
	}
	if cfg.Database.URL != overrides["DATABASE_URL"] {
		t.Errorf("expected database url %q, got %q", overrides["DATABASE_URL"], cfg.Database.URL)
	}
	if cfg.Settings.File != overrides["SETTINGS_FILE"] {
		t.Errorf("expected settings file %q, got %q", overrides["SETTINGS_FILE"], cfg.Settings.File)
	}
	if cfg.Auth.AdminPasswordHash != overrides["ADMIN_PASSWORD_HASH"] || cfg.Auth.TokenDuration != 2*time.Hour {
		t.Errorf("unexpected auth config %+v", cfg.Auth)
	}
	if cfg.Vision.Provider != vision.ProviderOpenAI || cfg.Vision.APIKey != "sk-test" || cfg.Vision.Model != "gpt-4o" {
		t.Errorf("unexpected vision config %+v", cfg.Vision)
	}
	if cfg.Vision.Timeout != 20*time.Second || cfg.Vision.Retry.MaxRetries != 0 {
		t.Errorf("unexpected vision timing %+v", cfg.Vision)
	}
	if cfg.Imaging.MaxDimension != 800 || cfg.Imaging.Quality != 75 || cfg.Imaging.FetchTimeout != 3*time.Second || cfg.Imaging.BaseDir != "/srv/shots" {
		t.Errorf("unexpected imaging config %+v", cfg.Imaging)
	}
	if cfg.Scan.ErrorPolicy != scanner.ErrorPolicyAbort {
		t.Errorf("expected abort policy, got %q", cfg.Scan.ErrorPolicy)
	}
}

func TestLoadVisionKeyOverride(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("VISION_API_KEY", "override-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Vision.APIKey != "override-key" {
		t.Errorf("expected VISION_API_KEY to win, got %q", cfg.Vision.APIKey)
	}
}

func TestParseLogLevelAliases(t *testing.T) {
	tests := map[string]slog.Level{
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
	}

	for input, expected := range tests {
		level, err := parseLogLevel(input)
		if err != nil {
			t.Fatalf("parseLogLevel(%q) returned error: %v", input, err)
		}

		if level != expected {
			t.Errorf("parseLogLevel(%q) = %v, want %v", input, level, expected)
		}
	}
}

func TestParseSecondsRejectsInvalidInput(t *testing.T) {
	cases := []string{"-1", "abc"}

	for _, input := range cases {
		if _, err := parseSeconds(input); err == nil {
			t.Fatalf("expected error for input %q", input)
		}
	}
}

func TestLoadDoesNotPersistEnvBetweenRuns(t *testing.T) {
	clearConfigEnv(t)

	t.Setenv("SERVER_READ_TIMEOUT_SECONDS", "5")
	if _, err := Load(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := os.Unsetenv("SERVER_READ_TIMEOUT_SECONDS"); err != nil {
		t.Fatalf("failed to unset env: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.ReadTimeout != defaultReadTimeout {
		t.Errorf("expected default read timeout after reset, got %v", cfg.Server.ReadTimeout)
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT",
		"SERVER_PORT",
		"SERVER_READ_TIMEOUT_SECONDS",
		"SERVER_WRITE_TIMEOUT_SECONDS",
		"SERVER_SHUTDOWN_TIMEOUT_SECONDS",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"LOG_FILE",
		"LOG_FILE_MAX_SIZE_MB",
		"LOG_FILE_MAX_BACKUPS",
		"LOG_FILE_MAX_AGE_DAYS",
		"DATABASE_URL",
		"INSTANCE_CONNECTION_NAME",
		"DB_USER",
		"DB_PASSWORD",
		"DB_NAME",
		"SETTINGS_FILE",
		"ADMIN_JWT_SECRET",
		"ADMIN_PASSWORD",
		"ADMIN_PASSWORD_HASH",
		"AUTH_TOKEN_HOURS",
		"VISION_PROVIDER",
		"VISION_API_KEY",
		"GEMINI_API_KEY",
		"OPENAI_API_KEY",
		"VISION_MODEL",
		"VISION_BASE_URL",
		"VISION_TIMEOUT_SECONDS",
		"VISION_MAX_RETRIES",
		"VISION_MAX_TOKENS",
		"IMAGE_MAX_DIMENSION",
		"IMAGE_JPEG_QUALITY",
		"IMAGE_FETCH_TIMEOUT_SECONDS",
		"IMAGE_MAX_BYTES",
		"IMAGE_BASE_DIR",
		"SCAN_ERROR_POLICY",
		"SCAN_MAX_BODY_BYTES",
	}

	for _, key := range keys {
		t.Setenv(key, "")
	}
}
