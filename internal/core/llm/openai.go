package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	apperrors "github.com/lueurxax/event-digest-bot/internal/core/errors"
	"github.com/lueurxax/event-digest-bot/internal/platform/trace"
)

const (
	defaultOpenAIModel   = openai.GPT4oMini
	defaultOpenAITimeout = 90 * time.Second
)

// OpenAIConfig configures the OpenAI provider. BaseURL is optional.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	RPS     float64
}

type openaiProvider struct {
	apiKey      string
	client      *openai.Client
	rateLimiter *rate.Limiter
}

func NewOpenAIProvider(cfg OpenAIConfig) *openaiProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultOpenAITimeout
	}

	rps := cfg.RPS
	if rps <= 0 {
		rps = 1
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.HTTPClient = trace.NewHTTPClient(&http.Client{Timeout: timeout})

	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	return &openaiProvider{
		apiKey:      strings.TrimSpace(cfg.APIKey),
		client:      openai.NewClientWithConfig(clientCfg),
		rateLimiter: rate.NewLimiter(rate.Limit(rps), rateLimiterBurst),
	}
}

func (p *openaiProvider) Name() ProviderName {
	return ProviderOpenAI
}

func (p *openaiProvider) IsAvailable() bool {
	return p.apiKey != ""
}

func (p *openaiProvider) Complete(ctx context.Context, req Request) (string, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf(errRateLimiter, err)
	}

	model := req.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     model,
		MaxTokens: req.MaxOutputTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: %w: %w", apperrors.ErrServiceError, apperrors.ErrEmptyResponse)
	}

	return resp.Choices[0].Message.Content, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := ""
		if s, ok := apiErr.Code.(string); ok {
			code = s
		}

		if code == "" {
			code = apiErr.Type
		}

		return classifyStatus(ProviderOpenAI, apiErr.HTTPStatusCode, code, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(ProviderOpenAI, reqErr.HTTPStatusCode, "", reqErr.Error())
	}

	return fmt.Errorf("openai chat completion: %w: %w", apperrors.ErrServiceError, err)
}
