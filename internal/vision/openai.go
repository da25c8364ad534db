package vision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/STRATINT/activityscan/internal/imaging"
	"github.com/STRATINT/activityscan/internal/models"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIComparer sends the screenshot pair as two image parts of a chat completion.
type OpenAIComparer struct {
	client *openai.Client
	cfg    Config
	logger *slog.Logger
}

// NewOpenAIComparer creates an OpenAI-backed comparer. cfg.BaseURL targets any
// OpenAI-compatible endpoint.
func NewOpenAIComparer(cfg Config, logger *slog.Logger) *OpenAIComparer {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIComparer{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
		logger: logger,
	}
}

// Compare implements Comparer.
func (c *OpenAIComparer) Compare(ctx context.Context, previous, current *imaging.EncodedImage) (string, error) {
	request := openai.ChatCompletionRequest{
		Model:               c.cfg.Model,
		MaxCompletionTokens: c.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: ComparisonPrompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: previous.DataURI(), Detail: openai.ImageURLDetailLow},
					},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: current.DataURI(), Detail: openai.ImageURLDetailLow},
					},
				},
			},
		},
	}

	var reply string
	err := Retry(ctx, c.cfg.Retry, func() error {
		var callErr error
		reply, callErr = c.call(ctx, request)
		return callErr
	})
	return reply, err
}

func (c *OpenAIComparer) call(ctx context.Context, request openai.ChatCompletionRequest) (string, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, request)
	c.logger.Debug("openai call complete",
		"model", c.cfg.Model,
		"duration_ms", time.Since(start).Milliseconds(),
		"success", err == nil)

	if err != nil {
		wrapped := fmt.Errorf("%w: %v", models.ErrServiceUnreachable, err)
		if retryableStatus(statusCode(err)) {
			return "", &RetryableError{Err: wrapped}
		}
		return "", wrapped
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no completion choices returned from model %s", models.ErrServiceMalformedReply, c.cfg.Model)
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", fmt.Errorf("%w: empty response from model %s (finish_reason: %s)",
			models.ErrServiceMalformedReply, c.cfg.Model, resp.Choices[0].FinishReason)
	}
	return reply, nil
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
