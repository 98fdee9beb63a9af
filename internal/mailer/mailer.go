// Package mailer dispatches notification mail through the external mailer
// service.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// Message is one outgoing mail.
type Message struct {
	To      []string `json:"to"`
	From    string   `json:"from"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	CC      []string `json:"cc,omitempty"`
	BCC     []string `json:"bcc,omitempty"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

// Sender delivers a Message.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

type Config struct {
	URL     string
	Mock    bool
	Timeout time.Duration
	Retries uint64
}

// ConfigFromEnv reads MAILER_SERVICE_URL and MAILER_SERVICE_MOCK.
func ConfigFromEnv() Config {
	return Config{
		URL:     strings.TrimRight(os.Getenv("MAILER_SERVICE_URL"), "/"),
		Mock:    os.Getenv("MAILER_SERVICE_MOCK") == "1",
		Timeout: 5 * time.Second,
		Retries: 2,
	}
}

// New returns a LogSender in mock mode or when no URL is configured, and an
// HTTPSender otherwise.
func New(cfg Config, logger *zap.SugaredLogger) Sender {
	if cfg.Mock || cfg.URL == "" {
		return &LogSender{logger: logger}
	}
	return NewHTTPSender(cfg)
}

// HTTPSender posts messages as JSON to <URL>/send. 5xx responses and
// transport errors are retried with exponential backoff.
type HTTPSender struct {
	url     string
	client  *http.Client
	retries uint64
	base    time.Duration
}

func NewHTTPSender(cfg Config) *HTTPSender {
	return &HTTPSender{
		url:     cfg.URL + "/send",
		client:  &http.Client{Timeout: cfg.Timeout},
		retries: cfg.Retries,
		base:    100 * time.Millisecond,
	}
}

func (s *HTTPSender) Send(ctx context.Context, m Message) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode mail: %w", err)
	}

	backoff := retry.WithMaxRetries(s.retries, retry.NewExponential(s.base))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("post mail: %w", err))
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		switch {
		case resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("mailer service: status %d", resp.StatusCode))
		case resp.StatusCode >= 300:
			return fmt.Errorf("mailer service: status %d", resp.StatusCode)
		}
		return nil
	})
}

// LogSender logs messages instead of sending them.
type LogSender struct {
	logger *zap.SugaredLogger
}

func NewLogSender(logger *zap.SugaredLogger) *LogSender { return &LogSender{logger: logger} }

func (s *LogSender) Send(_ context.Context, m Message) error {
	s.logger.Infow("mail not sent (mock mailer)", "to", m.To, "from", m.From, "subject", m.Subject)
	return nil
}
