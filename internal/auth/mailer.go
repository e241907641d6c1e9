// internal/auth/mailer.go
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Mail is one outbound message.
type Mail struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Mailer delivers one-time codes and recovery links.
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// LogMailer writes mail to the log instead of sending it. Used in
// development when no webhook is configured.
type LogMailer struct {
	log *zap.SugaredLogger
}

func NewLogMailer(log *zap.SugaredLogger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, mail Mail) error {
	m.log.Infow("Mail (not sent)", "to", mail.To, "subject", mail.Subject, "body", mail.Body)
	return nil
}

// WebhookMailer posts mail as JSON to a delivery webhook. Three consecutive
// failures open the breaker for 30 seconds.
type WebhookMailer struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	log     *zap.SugaredLogger
}

func NewWebhookMailer(url string, log *zap.SugaredLogger) *WebhookMailer {
	m := &WebhookMailer{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
	m.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "mail-webhook",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnw("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return m
}

func (m *WebhookMailer) Send(ctx context.Context, mail Mail) error {
	_, err := m.breaker.Execute(func() (interface{}, error) {
		return nil, m.post(ctx, mail)
	})
	if err != nil {
		return fmt.Errorf("failed to deliver mail: %w", err)
	}
	return nil
}

func (m *WebhookMailer) post(ctx context.Context, mail Mail) error {
	body, err := json.Marshal(mail)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("mail webhook returned status %d", resp.StatusCode)
	}
	return nil
}
