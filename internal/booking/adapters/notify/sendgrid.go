// Package notify delivers email through the SendGrid v3 mail-send API.
// Failures never roll back the record that triggered the notification.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/BRAITOU555/reservationvtc6/internal/booking/domain"
	"github.com/BRAITOU555/reservationvtc6/internal/common/config"
)

type SendGrid struct {
	endpoint string
	apiKey   string
	from     string
	client   *http.Client
}

var _ domain.Notifier = (*SendGrid)(nil)

func NewSendGrid(cfg config.Notifier) *SendGrid {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &SendGrid{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		from:     cfg.From,
		client:   &http.Client{Timeout: timeout},
	}
}

type mailAddress struct {
	Email string `json:"email"`
}

type mailPayload struct {
	Personalizations []struct {
		To []mailAddress `json:"to"`
	} `json:"personalizations"`
	From    mailAddress `json:"from"`
	Subject string      `json:"subject"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
}

func (n *SendGrid) Send(ctx context.Context, to, subject, body string) error {
	payload := mailPayload{
		From:    mailAddress{Email: n.from},
		Subject: subject,
	}
	payload.Personalizations = append(payload.Personalizations, struct {
		To []mailAddress `json:"to"`
	}{To: []mailAddress{{Email: to}}})
	payload.Content = append(payload.Content, struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}{Type: "text/plain", Value: body})

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: marshal mail: %v", domain.ErrCollaborator, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domain.ErrCollaborator, err)
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: send mail: %v", domain.ErrCollaborator, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: mail-send returned %d: %s", domain.ErrCollaborator, resp.StatusCode, snippet)
	}
	return nil
}
