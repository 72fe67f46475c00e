package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/orchidcraft/orchid-backend/pkg/config"
	"github.com/orchidcraft/orchid-backend/pkg/logger"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is a single transactional email.
type Message struct {
	ToEmail   string
	ToName    string
	Subject   string
	PlainText string
	HTML      string
}

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type sendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGrid delivers mail through the SendGrid v3 API.
type SendGrid struct {
	client   sendClient
	fromAddr string
	fromName string
}

// NewSendGrid builds a mailer from config.
func NewSendGrid(cfg config.SendgridConfig) (*SendGrid, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("sendgrid api key is required")
	}
	return &SendGrid{
		client:   sendgrid.NewSendClient(cfg.APIKey),
		fromAddr: cfg.DefaultFrom,
		fromName: cfg.FromName,
	}, nil
}

func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.ToEmail) == "" {
		return fmt.Errorf("recipient is required")
	}
	from := mail.NewEmail(s.fromName, s.fromAddr)
	to := mail.NewEmail(msg.ToName, msg.ToEmail)
	email := mail.NewSingleEmail(from, msg.Subject, to, msg.PlainText, msg.HTML)

	resp, err := s.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp != nil && resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// Log writes messages to the logger instead of sending them. Used in dev.
type Log struct {
	Logger *logger.Logger
}

func (l *Log) Send(ctx context.Context, msg Message) error {
	if l.Logger == nil {
		return nil
	}
	ctx = l.Logger.WithFields(ctx, map[string]any{
		"to":      msg.ToEmail,
		"subject": msg.Subject,
		"body":    msg.PlainText,
	})
	l.Logger.Info(ctx, "mailer.log_delivery")
	return nil
}

// New picks SendGrid when an API key is configured and the log mailer otherwise.
func New(cfg config.SendgridConfig, logg *logger.Logger) (Mailer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return &Log{Logger: logg}, nil
	}
	return NewSendGrid(cfg)
}
