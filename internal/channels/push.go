package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// PushChannel posts reminders to an external push gateway as JSON. Delivery to
// devices is the gateway's concern; this channel only reports the HTTP outcome.
type PushChannel struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// PushSettings configure the push gateway channel.
type PushSettings struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

type pushPayload struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	Severity   string `json:"severity"`
	EmployeeID string `json:"employee_id"`
}

// NewPush constructs a push gateway channel.
func NewPush(cfg PushSettings) (*PushChannel, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("push channel: endpoint is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PushChannel{
		endpoint: endpoint,
		apiKey:   strings.TrimSpace(cfg.APIKey),
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// Name implements Channel.
func (c *PushChannel) Name() string { return "push" }

// Send posts the message to the gateway and fails on any non-2xx status.
func (c *PushChannel) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(pushPayload{
		Title:      msg.Subject,
		Body:       msg.Body,
		Severity:   msg.Severity,
		EmployeeID: msg.EmployeeID,
	})
	if err != nil {
		return fmt.Errorf("push channel: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("push channel: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("push channel: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push channel: gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
