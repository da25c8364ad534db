// Package vision asks an external image-understanding service whether two
// consecutive screenshots look unchanged.
package vision

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/STRATINT/activityscan/internal/imaging"
)

// Comparer sends a screenshot pair to a vision service and returns its free-text reply.
type Comparer interface {
	Compare(ctx context.Context, previous, current *imaging.EncodedImage) (string, error)
}

// Supported providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
	ProviderNone   = "none"
)

// Config holds vision service settings.
type Config struct {
	Provider  string
	APIKey    string
	Model     string
	BaseURL   string
	Timeout   time.Duration // per call
	MaxTokens int
	Retry     RetryPolicy
}

// DefaultConfig returns the vision defaults.
func DefaultConfig() Config {
	return Config{
		Provider:  ProviderGemini,
		Timeout:   10 * time.Second,
		MaxTokens: 300,
		Retry: RetryPolicy{
			MaxRetries:     2,
			InitialBackoff: 500 * time.Millisecond,
			MaxBackoff:     5 * time.Second,
			BackoffFactor:  2.0,
			Jitter:         true,
		},
	}
}

// New builds the comparer for cfg.Provider. It returns nil, nil for ProviderNone.
func New(cfg Config, logger *slog.Logger) (Comparer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Provider {
	case ProviderNone, "":
		return nil, nil
	case ProviderMock:
		return NewMockComparer("No significant change detected."), nil
	case ProviderGemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini api key not configured")
		}
		return NewGeminiComparer(cfg, nil, logger), nil
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai api key not configured")
		}
		return NewOpenAIComparer(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported vision provider: %s", cfg.Provider)
	}
}
