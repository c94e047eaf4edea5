package llm

import (
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/lueurxax/event-digest-bot/internal/core/errors"
)

// Error message templates
const (
	errRateLimiter       = "rate limiter: %w"
	errFmtMarshalRequest = "marshal request: %w"
	errFmtCreateRequest  = "create request: %w"
	errFmtReadResponse   = "read response: %w"
	errFmtDecodeResponse = "decode response: %w"
	errFmtClassified     = "%w: %s status %d: %s"
)

// HTTP header values
const (
	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	contentTypeJSON     = "application/json"
)

const (
	rateLimiterBurst      = 1
	contentTypeText       = "text"
	logMsgEmptyCompletion = "model returned empty completion"
	maxErrorMessageLen    = 300
)

// quotaMarkers identify quota or billing exhaustion in error codes and messages.
var quotaMarkers = []string{
	"insufficient_quota",
	"quota",
	"billing",
	"credit balance",
	"insufficient credits",
}

// classifyStatus maps a failed response to an error kind. 402, or any status
// carrying a quota marker, means the account is exhausted; any other 429 is a rate limit.
func classifyStatus(provider ProviderName, status int, code, message string) error {
	detail := message
	if len(detail) > maxErrorMessageLen {
		detail = detail[:maxErrorMessageLen]
	}

	kind := apperrors.ErrServiceError

	switch {
	case status == http.StatusPaymentRequired:
		kind = apperrors.ErrQuotaExhausted
	case status == http.StatusTooManyRequests && isQuotaSignal(code, message):
		kind = apperrors.ErrQuotaExhausted
	case status == http.StatusTooManyRequests:
		kind = apperrors.ErrRateLimited
	case isQuotaSignal(code, message):
		kind = apperrors.ErrQuotaExhausted
	}

	return fmt.Errorf(errFmtClassified, kind, provider, status, detail)
}

func isQuotaSignal(code, message string) bool {
	code = strings.ToLower(code)
	message = strings.ToLower(message)

	for _, marker := range quotaMarkers {
		if (code != "" && strings.Contains(code, marker)) || (message != "" && strings.Contains(message, marker)) {
			return true
		}
	}

	return false
}

// StripCodeFences removes a surrounding markdown code fence, with or without
// a language tag, and trims whitespace.
func StripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")

	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		tag := strings.TrimSpace(text[:nl])
		if !strings.ContainsAny(tag, "[{") {
			text = text[nl+1:]
		}
	} else {
		text = strings.TrimLeftFunc(text, func(r rune) bool {
			return r != '[' && r != '{'
		})
	}

	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")

	return strings.TrimSpace(text)
}
