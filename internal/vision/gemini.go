package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/STRATINT/activityscan/internal/imaging"
	"github.com/STRATINT/activityscan/internal/models"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-2.0-flash"
)

// GeminiComparer calls the Gemini generateContent endpoint with two inline JPEG parts.
type GeminiComparer struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewGeminiComparer creates a Gemini-backed comparer. A nil client uses http.DefaultClient;
// per-call deadlines come from cfg.Timeout.
func NewGeminiComparer(cfg Config, client *http.Client, logger *slog.Logger) *GeminiComparer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGeminiBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &GeminiComparer{cfg: cfg, client: client, logger: logger}
}

// Compare implements Comparer.
func (g *GeminiComparer) Compare(ctx context.Context, previous, current *imaging.EncodedImage) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: ComparisonPrompt},
				{InlineData: &geminiInlineData{MimeType: imaging.MIMEType, Data: previous.Base64()}},
				{InlineData: &geminiInlineData{MimeType: imaging.MIMEType, Data: current.Base64()}},
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("encoding gemini request: %w", err)
	}

	var reply string
	err = Retry(ctx, g.cfg.Retry, func() error {
		var callErr error
		reply, callErr = g.call(ctx, body)
		return callErr
	})
	return reply, err
}

func (g *GeminiComparer) call(ctx context.Context, body []byte) (string, error) {
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(g.cfg.BaseURL, "/"), url.PathEscape(g.cfg.Model))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: creating request: %v", models.ErrServiceUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrServiceUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", models.ErrServiceUnreachable, err)
	}

	g.logger.Debug("gemini call complete",
		"model", g.cfg.Model,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("%w: gemini returned HTTP %d", models.ErrServiceUnreachable, resp.StatusCode)
		if retryableStatus(resp.StatusCode) {
			return "", &RetryableError{Err: statusErr, RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
		}
		return "", statusErr
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: decoding gemini response: %v", models.ErrServiceMalformedReply, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: gemini error %d: %s", models.ErrServiceUnreachable, parsed.Error.Code, parsed.Error.Message)
	}

	for _, candidate := range parsed.Candidates {
		for _, part := range candidate.Content.Parts {
			if text := strings.TrimSpace(part.Text); text != "" {
				return text, nil
			}
		}
	}

	return "", fmt.Errorf("%w: no text in gemini response", models.ErrServiceMalformedReply)
}

func parseRetryAfter(v string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
