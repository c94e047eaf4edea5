// Package llm runs the single extraction call of a pipeline run against a
// generative text service and classifies its failures.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/lueurxax/event-digest-bot/internal/core/errors"
	"github.com/lueurxax/event-digest-bot/internal/platform/config"
	"github.com/lueurxax/event-digest-bot/internal/platform/observability"
	"github.com/lueurxax/event-digest-bot/internal/platform/trace"
)

// SystemInstruction accompanies every extraction request.
const SystemInstruction = "You extract structured event listings from the web sources you are given. " +
	"Extract only events explicitly present in the provided sources. " +
	"Never invent events, artists, dates, venues or links. " +
	"Respond with a JSON array only, without markdown or commentary."

// ProviderName identifies an LLM provider.
type ProviderName string

const (
	ProviderOpenAI     ProviderName = "openai"
	ProviderAnthropic  ProviderName = "anthropic"
	ProviderOpenRouter ProviderName = "openrouter"
)

// Request is one chat completion call.
type Request struct {
	System          string
	User            string
	Model           string
	MaxOutputTokens int
}

// Provider is a generative text backend. Complete returns the text of the
// first choice; failures wrap ErrRateLimited, ErrQuotaExhausted or ErrServiceError.
type Provider interface {
	Name() ProviderName
	IsAvailable() bool
	Complete(ctx context.Context, req Request) (string, error)
}

// Extractor turns a built instruction into raw model text.
type Extractor interface {
	Extract(ctx context.Context, instruction string) (string, error)
}

// Client is the Extractor used by the pipeline.
type Client struct {
	provider  Provider
	model     string
	maxTokens int
	logger    *zerolog.Logger
}

func NewClient(provider Provider, model string, maxTokens int, logger *zerolog.Logger) *Client {
	return &Client{
		provider:  provider,
		model:     model,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// New builds the client for the provider selected by LLM_PROVIDER.
func New(cfg *config.Config, logger *zerolog.Logger) *Client {
	var provider Provider

	switch cfg.LLMProvider {
	case config.LLMProviderAnthropic:
		provider = NewAnthropicProvider(AnthropicConfig{
			APIKey:  cfg.AnthropicAPIKey,
			Timeout: cfg.LLMTimeout,
			RPS:     cfg.RateLimitRPS,
		})

		return NewClient(provider, cfg.AnthropicModel, cfg.LLMMaxOutputTokens, logger)
	case config.LLMProviderHTTP:
		provider = NewOpenRouterProvider(OpenRouterConfig{
			APIKey:  cfg.LLMAPIKey,
			BaseURL: cfg.LLMBaseURL,
			Timeout: cfg.LLMTimeout,
			RPS:     cfg.RateLimitRPS,
		})
	default:
		provider = NewOpenAIProvider(OpenAIConfig{
			APIKey:  cfg.LLMAPIKey,
			Timeout: cfg.LLMTimeout,
			RPS:     cfg.RateLimitRPS,
		})
	}

	return NewClient(provider, cfg.LLMModel, cfg.LLMMaxOutputTokens, logger)
}

// Extract sends the instruction with SystemInstruction. It returns
// ErrNotConfigured without calling out when the provider lacks credentials.
func (c *Client) Extract(ctx context.Context, instruction string) (string, error) {
	if c.provider == nil || !c.provider.IsAvailable() {
		observability.ExtractionErrorsTotal.WithLabelValues(ErrorKind(apperrors.ErrNotConfigured)).Inc()

		return "", fmt.Errorf("extraction model: %w", apperrors.ErrNotConfigured)
	}

	logger := trace.Logger(ctx, c.logger)
	name := string(c.provider.Name())
	start := time.Now()

	text, err := c.provider.Complete(ctx, Request{
		System:          SystemInstruction,
		User:            instruction,
		Model:           c.model,
		MaxOutputTokens: c.maxTokens,
	})

	observability.LLMRequestDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		kind := ErrorKind(err)
		observability.ExtractionErrorsTotal.WithLabelValues(kind).Inc()
		logger.Warn().Err(err).Str("provider", name).Str("kind", kind).Msg("extraction call failed")

		return "", err
	}

	if strings.TrimSpace(text) == "" {
		logger.Debug().Str("provider", name).Msg(logMsgEmptyCompletion)
	}

	return text, nil
}

// ErrorKind returns the metric label for an extraction error.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case apperrors.Is(err, apperrors.ErrNotConfigured):
		return "not_configured"
	case apperrors.Is(err, apperrors.ErrQuotaExhausted):
		return "quota_exhausted"
	case apperrors.Is(err, apperrors.ErrRateLimited):
		return "rate_limited"
	default:
		return "service_error"
	}
}

// Retryable reports whether a later attempt may succeed without operator action.
func Retryable(err error) bool {
	return apperrors.Is(err, apperrors.ErrRateLimited) || apperrors.Is(err, apperrors.ErrServiceError)
}
