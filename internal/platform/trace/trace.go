// Package trace carries the per-run correlation identifier through contexts,
// outbound HTTP requests and log lines.
package trace

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HeaderName is the HTTP header used to forward the correlation identifier.
const HeaderName = "X-Correlation-ID"

// LogField is the log field holding the correlation identifier.
const LogField = "trace_id"

type ctxKey struct{}

// NewID returns a fresh correlation identifier.
func NewID() string {
	return uuid.NewString()
}

// WithID returns a context carrying id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the correlation identifier or "".
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)

	return id
}

// Logger returns a child logger annotated with the context's correlation identifier.
func Logger(ctx context.Context, logger *zerolog.Logger) *zerolog.Logger {
	l := logger.With().Str(LogField, FromContext(ctx)).Logger()

	return &l
}

// Transport forwards the context's correlation identifier on every request.
type Transport struct {
	Base http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	id := FromContext(req.Context())
	if id == "" || req.Header.Get(HeaderName) != "" {
		return base.RoundTrip(req) //nolint:wrapcheck // transparent transport
	}

	clone := req.Clone(req.Context())
	clone.Header.Set(HeaderName, id)

	return base.RoundTrip(clone) //nolint:wrapcheck // transparent transport
}

// NewHTTPClient returns a client whose transport forwards correlation identifiers.
func NewHTTPClient(client *http.Client) *http.Client {
	if client == nil {
		client = &http.Client{}
	}

	c := *client
	c.Transport = &Transport{Base: client.Transport}

	return &c
}
