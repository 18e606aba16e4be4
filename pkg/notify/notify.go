// Package notify delivers alert messages to a webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RequestTimeout for webhook requests
const RequestTimeout = 10 * time.Second

// Message is one alert for one user.
type Message struct {
	UserID   uuid.UUID      `json:"user_id"`
	Kind     string         `json:"kind"`
	Severity string         `json:"severity,omitempty"`
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	Data     map[string]any `json:"data,omitempty"`
}

// Notifier sends messages somewhere a person will see them.
type Notifier interface {
	Send(ctx context.Context, msg *Message) error
}

// Service posts messages as JSON to a webhook. Without a URL messages are only logged.
type Service struct {
	client *http.Client
	url    string
	logger *slog.Logger
}

// NewService creates a webhook notifier
func NewService(url string, logger *slog.Logger) *Service {
	return &Service{
		client: &http.Client{Timeout: RequestTimeout},
		url:    url,
		logger: logger,
	}
}

// Send delivers a single message.
func (s *Service) Send(ctx context.Context, msg *Message) error {
	if msg.Body == "" {
		return errors.New("notification body is required")
	}

	if s.url == "" {
		s.logger.Info("notification", "user_id", msg.UserID, "kind", msg.Kind, "title", msg.Title, "body", msg.Body)
		return nil
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		s.logger.Warn("notification rejected", "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("notification failed with status: %d", resp.StatusCode)
	}

	s.logger.Debug("notification sent", "user_id", msg.UserID, "kind", msg.Kind)
	return nil
}

// SendBatch delivers messages in order and returns every failure joined.
func (s *Service) SendBatch(ctx context.Context, messages []*Message) error {
	var errs []error
	for _, msg := range messages {
		if err := s.Send(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
