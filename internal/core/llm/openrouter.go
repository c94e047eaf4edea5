package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/lueurxax/event-digest-bot/internal/core/errors"
	"github.com/lueurxax/event-digest-bot/internal/platform/trace"
)

// OpenRouter API constants.
const (
	OpenRouterBaseURL        = "https://openrouter.ai/api/v1"
	chatCompletionsPath      = "/chat/completions"
	defaultOpenRouterModel   = "openai/gpt-4o-mini"
	openRouterDefaultTimeout = 90 * time.Second
)

// OpenRouterConfig configures a raw OpenAI-compatible chat endpoint.
type OpenRouterConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	RPS     float64
}

// openRouterProvider talks to any OpenAI-compatible chat completions endpoint
// over plain HTTP. OpenRouter is the default.
type openRouterProvider struct {
	apiKey      string
	endpoint    string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

type openRouterChatRequest struct {
	Model     string                  `json:"model"`
	Messages  []openRouterChatMessage `json:"messages"`
	MaxTokens int                     `json:"max_tokens,omitempty"`
}

type openRouterChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterChatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// openRouterErrorResponse is the OpenAI-style error envelope. Code is a string
// on OpenAI and a number on OpenRouter.
type openRouterErrorResponse struct {
	Error struct {
		Message string          `json:"message"`
		Type    string          `json:"type"`
		Code    json.RawMessage `json:"code"`
	} `json:"error"`
}

func NewOpenRouterProvider(cfg OpenRouterConfig) *openRouterProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = openRouterDefaultTimeout
	}

	rps := cfg.RPS
	if rps <= 0 {
		rps = 1
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = OpenRouterBaseURL
	}

	return &openRouterProvider{
		apiKey:      strings.TrimSpace(cfg.APIKey),
		endpoint:    baseURL + chatCompletionsPath,
		httpClient:  trace.NewHTTPClient(&http.Client{Timeout: timeout}),
		rateLimiter: rate.NewLimiter(rate.Limit(rps), rateLimiterBurst),
	}
}

func (p *openRouterProvider) Name() ProviderName {
	return ProviderOpenRouter
}

func (p *openRouterProvider) IsAvailable() bool {
	return p.apiKey != ""
}

func (p *openRouterProvider) Complete(ctx context.Context, req Request) (string, error) {
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf(errRateLimiter, err)
	}

	model := req.Model
	if model == "" {
		model = defaultOpenRouterModel
	}

	reqBody := openRouterChatRequest{
		Model: model,
		Messages: []openRouterChatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		MaxTokens: req.MaxOutputTokens,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
		return "", fmt.Errorf(errFmtMarshalRequest, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf(errFmtCreateRequest, err)
	}

	httpReq.Header.Set(headerAuthorization, "Bearer "+p.apiKey)
	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set("X-Title", "event-digest-bot")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openrouter request: %w: %w", apperrors.ErrServiceError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf(errFmtReadResponse, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", parseAPIError(body, resp.StatusCode)
	}

	return extractResponseText(body)
}

func parseAPIError(body []byte, statusCode int) error {
	var errResp openRouterErrorResponse
	if jsonErr := json.Unmarshal(body, &errResp); jsonErr == nil && errResp.Error.Message != "" {
		code := strings.Trim(string(errResp.Error.Code), `"`)
		if code == "" || code == "null" {
			code = errResp.Error.Type
		}

		return classifyStatus(ProviderOpenRouter, statusCode, code, errResp.Error.Message)
	}

	return classifyStatus(ProviderOpenRouter, statusCode, "", string(body))
}

func extractResponseText(body []byte) (string, error) {
	var resp openRouterChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: "+errFmtDecodeResponse, apperrors.ErrServiceError, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openrouter: %w: %w", apperrors.ErrServiceError, apperrors.ErrEmptyResponse)
	}

	return resp.Choices[0].Message.Content, nil
}
