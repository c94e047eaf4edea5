package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"

	apperrors "github.com/lueurxax/event-digest-bot/internal/core/errors"
	"github.com/lueurxax/event-digest-bot/internal/platform/trace"
)

const (
	ModelClaudeHaiku = "claude-haiku-4-5"

	defaultAnthropicModel     = ModelClaudeHaiku
	defaultAnthropicTimeout   = 90 * time.Second
	anthropicMaxTokensDefault = 2048
)

// AnthropicConfig configures the Anthropic provider. BaseURL is optional.
type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	RPS     float64
}

type anthropicProvider struct {
	apiKey      string
	client      anthropic.Client
	rateLimiter *rate.Limiter
}

func NewAnthropicProvider(cfg AnthropicConfig) *anthropicProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultAnthropicTimeout
	}

	rps := cfg.RPS
	if rps <= 0 {
		rps = 1
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(trace.NewHTTPClient(&http.Client{Timeout: timeout})),
		option.WithMaxRetries(0),
	}

	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &anthropicProvider{
		apiKey:      strings.TrimSpace(cfg.APIKey),
		client:      anthropic.NewClient(opts...),
		rateLimiter: rate.NewLimiter(rate.Limit(rps), rateLimiterBurst),
	}
}

func (p *anthropicProvider) Name() ProviderName {
	return ProviderAnthropic
}

func (p *anthropicProvider) IsAvailable() bool {
	return p.apiKey != ""
}

func (p *anthropicProvider) Complete(ctx context.Context, req Request) (string, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf(errRateLimiter, err)
	}

	model := req.Model
	if model == "" {
		model = defaultAnthropicModel
	}

	maxTokens := int64(req.MaxOutputTokens)
	if maxTokens <= 0 {
		maxTokens = anthropicMaxTokensDefault
	}

	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		System:    []anthropic.TextBlockParam{{Text: req.System}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
	})
	if err != nil {
		return "", classifyAnthropicError(err)
	}

	if len(resp.Content) == 0 {
		return "", fmt.Errorf("anthropic: %w: %w", apperrors.ErrServiceError, apperrors.ErrEmptyResponse)
	}

	return extractTextFromResponse(resp), nil
}

// extractTextFromResponse concatenates the text blocks of a message.
func extractTextFromResponse(resp *anthropic.Message) string {
	var result strings.Builder

	for _, block := range resp.Content {
		if block.Type == contentTypeText {
			result.WriteString(block.Text)
		}
	}

	return result.String()
}

func classifyAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return classifyStatus(ProviderAnthropic, apiErr.StatusCode, "", apiErr.Error())
	}

	return fmt.Errorf("anthropic messages: %w: %w", apperrors.ErrServiceError, err)
}
