package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lueurxax/event-digest-bot/internal/core/errors"
)

type fakeProvider struct {
	available bool
	text      string
	err       error
	got       Request
	calls     int
}

func (f *fakeProvider) Name() ProviderName { return "fake" }

func (f *fakeProvider) IsAvailable() bool { return f.available }

func (f *fakeProvider) Complete(_ context.Context, req Request) (string, error) {
	f.calls++
	f.got = req

	return f.text, f.err
}

func newTestClient(p Provider) *Client {
	logger := zerolog.Nop()

	return NewClient(p, "model-x", 512, &logger)
}

func TestClient_Extract(t *testing.T) {
	p := &fakeProvider{available: true, text: `[{"event_name":"Jazz Night"}]`}

	got, err := newTestClient(p).Extract(context.Background(), "find events")
	require.NoError(t, err)

	assert.Equal(t, `[{"event_name":"Jazz Night"}]`, got)
	assert.Equal(t, SystemInstruction, p.got.System)
	assert.Equal(t, "find events", p.got.User)
	assert.Equal(t, "model-x", p.got.Model)
	assert.Equal(t, 512, p.got.MaxOutputTokens)
}

func TestClient_ExtractNotConfigured(t *testing.T) {
	p := &fakeProvider{available: false}

	_, err := newTestClient(p).Extract(context.Background(), "x")

	require.ErrorIs(t, err, apperrors.ErrNotConfigured)
	assert.Zero(t, p.calls)

	_, err = newTestClient(nil).Extract(context.Background(), "x")
	require.ErrorIs(t, err, apperrors.ErrNotConfigured)
}

func TestClient_ExtractPassesClassifiedError(t *testing.T) {
	p := &fakeProvider{available: true, err: classifyStatus("fake", http.StatusTooManyRequests, "", "slow down")}

	_, err := newTestClient(p).Extract(context.Background(), "x")

	require.ErrorIs(t, err, apperrors.ErrRateLimited)
	assert.True(t, Retryable(err))
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		code    string
		message string
		want    error
	}{
		{name: "quota code on 429", status: 429, code: "insufficient_quota", message: "You exceeded your current quota", want: apperrors.ErrQuotaExhausted},
		{name: "plain 429", status: 429, code: "rate_limit_exceeded", message: "Rate limit reached", want: apperrors.ErrRateLimited},
		{name: "payment required", status: 402, message: "Insufficient credits", want: apperrors.ErrQuotaExhausted},
		{name: "credit balance on 400", status: 400, message: "Your credit balance is too low", want: apperrors.ErrQuotaExhausted},
		{name: "server error", status: 500, message: "internal", want: apperrors.ErrServiceError},
		{name: "bad request", status: 400, message: "invalid model", want: apperrors.ErrServiceError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyStatus(ProviderOpenAI, tt.status, tt.code, tt.message)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "none", ErrorKind(nil))
	assert.Equal(t, "not_configured", ErrorKind(apperrors.ErrNotConfigured))
	assert.Equal(t, "quota_exhausted", ErrorKind(apperrors.ErrQuotaExhausted))
	assert.Equal(t, "rate_limited", ErrorKind(apperrors.ErrRateLimited))
	assert.Equal(t, "service_error", ErrorKind(errors.New("other")))
	assert.False(t, Retryable(apperrors.ErrQuotaExhausted))
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain array", input: ` [{"a":1}] `, want: `[{"a":1}]`},
		{name: "json fence", input: "```json\n[{\"a\":1}]\n```", want: `[{"a":1}]`},
		{name: "bare fence", input: "```\n[]\n```", want: `[]`},
		{name: "single line fence", input: "```[{\"a\":1}]```", want: `[{"a":1}]`},
		{name: "single line fence with tag", input: "```json [1]```", want: `[1]`},
		{name: "unterminated fence", input: "```json\n[1]", want: `[1]`},
		{name: "not json", input: "not json", want: "not json"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFences(tt.input))
		})
	}
}
