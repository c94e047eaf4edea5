// Package delivery sends rendered digests over Telegram and email.
package delivery

import (
	"context"
	"fmt"

	"github.com/lueurxax/event-digest-bot/internal/core/domain"
	apperrors "github.com/lueurxax/event-digest-bot/internal/core/errors"
	"github.com/lueurxax/event-digest-bot/internal/output/digest"
	"github.com/lueurxax/event-digest-bot/internal/platform/observability"
)

// Sender delivers one message. subject may be ignored by chat channels.
type Sender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// AlternativeSender is implemented by senders that carry a plain-text
// alternative next to the HTML body.
type AlternativeSender interface {
	SendAlternative(ctx context.Context, recipient, subject, htmlBody, textBody string) error
}

// Router picks the Sender for a digest's channel.
type Router struct {
	senders map[string]Sender
}

func NewRouter() *Router {
	return &Router{senders: make(map[string]Sender)}
}

// Register binds a channel to a sender. A nil sender leaves the channel unregistered.
func (r *Router) Register(channel string, s Sender) {
	if s == nil {
		return
	}

	r.senders[channel] = s
}

// Deliver sends content to the recipient. Failures wrap ErrDeliveryFailed,
// or ErrUnknownChannel when no sender serves the channel.
func (r *Router) Deliver(ctx context.Context, recipient string, content digest.Content) error {
	s, ok := r.senders[content.Channel]
	if !ok {
		observability.DeliveriesTotal.WithLabelValues(content.Channel, observability.StatusSkipped).Inc()

		return fmt.Errorf("%w: %q", apperrors.ErrUnknownChannel, content.Channel)
	}

	if recipient == "" {
		observability.DeliveriesTotal.WithLabelValues(content.Channel, observability.StatusError).Inc()

		return fmt.Errorf("%w: empty %s recipient", apperrors.ErrDeliveryFailed, content.Channel)
	}

	if err := send(ctx, s, recipient, content); err != nil {
		observability.DeliveriesTotal.WithLabelValues(content.Channel, observability.StatusError).Inc()

		return fmt.Errorf("%w: %s: %w", apperrors.ErrDeliveryFailed, content.Channel, err)
	}

	observability.DeliveriesTotal.WithLabelValues(content.Channel, observability.StatusOK).Inc()

	return nil
}

func send(ctx context.Context, s Sender, recipient string, content digest.Content) error {
	if alt, ok := s.(AlternativeSender); ok && content.Text != "" {
		return alt.SendAlternative(ctx, recipient, content.Subject, content.Body, content.Text)
	}

	return s.Send(ctx, recipient, content.Subject, content.Body)
}

// Channels lists the registered channels.
func (r *Router) Channels() []string {
	out := make([]string, 0, len(r.senders))

	for _, ch := range []string{domain.ChannelTelegram, domain.ChannelEmail} {
		if _, ok := r.senders[ch]; ok {
			out = append(out, ch)
		}
	}

	return out
}
