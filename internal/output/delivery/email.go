package delivery

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lueurxax/event-digest-bot/internal/platform/htmlutils"
	"github.com/lueurxax/event-digest-bot/internal/platform/trace"
)

// SMTPConfig configures the email sender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender sends digests as multipart HTML email.
type SMTPSender struct {
	cfg      SMTPConfig
	sendMail sendMailFunc
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewSMTPSender(cfg SMTPConfig, logger *zerolog.Logger) *SMTPSender {
	return &SMTPSender{
		cfg:      cfg,
		sendMail: smtp.SendMail,
		logger:   logger,
		now:      time.Now,
	}
}

// Send delivers one message. The text/plain part is derived from body.
func (s *SMTPSender) Send(ctx context.Context, recipient, subject, body string) error {
	return s.SendAlternative(ctx, recipient, subject, body, htmlutils.StripHTMLTags(body))
}

// SendAlternative delivers one message with an explicit text/plain part.
// net/smtp has no context support, so ctx is only checked before dialing and
// used for the correlation header.
func (s *SMTPSender) SendAlternative(ctx context.Context, recipient, subject, htmlBody, textBody string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("smtp send canceled: %w", err)
	}

	to, err := mail.ParseAddress(strings.TrimSpace(recipient))
	if err != nil {
		return fmt.Errorf("parse recipient %q: %w", recipient, err)
	}

	from, err := mail.ParseAddress(s.cfg.From)
	if err != nil {
		return fmt.Errorf("parse sender %q: %w", s.cfg.From, err)
	}

	msg, err := s.buildMessage(ctx, from, to, subject, htmlBody, textBody)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	if err := s.sendMail(addr, auth, from.Address, []string{to.Address}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	trace.Logger(ctx, s.logger).Debug().Str("to", to.Address).Msg("email digest sent")

	return nil
}

func (s *SMTPSender) buildMessage(ctx context.Context, from, to *mail.Address, subject, htmlBody, textBody string) ([]byte, error) {
	boundary := "digest-" + strings.ReplaceAll(uuid.NewString(), "-", "")

	var buf bytes.Buffer

	writeHeader(&buf, "From", from.String())
	writeHeader(&buf, "To", to.String())
	writeHeader(&buf, "Subject", mime.QEncoding.Encode("utf-8", subject))
	writeHeader(&buf, "Date", s.now().Format(time.RFC1123Z))
	writeHeader(&buf, "MIME-Version", "1.0")

	if id := trace.FromContext(ctx); id != "" {
		writeHeader(&buf, trace.HeaderName, id)
	}

	writeHeader(&buf, "Content-Type", `multipart/alternative; boundary="`+boundary+`"`)
	buf.WriteString("\r\n")

	if err := writePart(&buf, boundary, "text/plain", textBody); err != nil {
		return nil, err
	}

	if err := writePart(&buf, boundary, "text/html", htmlBody); err != nil {
		return nil, err
	}

	buf.WriteString("--" + boundary + "--\r\n")

	return buf.Bytes(), nil
}

func writeHeader(buf *bytes.Buffer, key, value string) {
	buf.WriteString(key + ": " + value + "\r\n")
}

func writePart(buf *bytes.Buffer, boundary, contentType, content string) error {
	buf.WriteString("--" + boundary + "\r\n")
	writeHeader(buf, "Content-Type", contentType+"; charset=utf-8")
	writeHeader(buf, "Content-Transfer-Encoding", "quoted-printable")
	buf.WriteString("\r\n")

	qp := quotedprintable.NewWriter(buf)
	if _, err := qp.Write([]byte(content)); err != nil {
		return fmt.Errorf("encode %s part: %w", contentType, err)
	}

	if err := qp.Close(); err != nil {
		return fmt.Errorf("encode %s part: %w", contentType, err)
	}

	buf.WriteString("\r\n")

	return nil
}
