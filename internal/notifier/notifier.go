// Package notifier delivers assistant output back to users through the chat
// transport. The transport itself (message formatting, keyboards, retries)
// lives in a separate service; this side only posts to its internal API.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Result is a terminal generation outcome delivered to the user.
type Result struct {
	Category string `json:"category"`
	URL      string `json:"url"`
	Caption  string `json:"caption,omitempty"`
}

// Notifier sends text and result payloads to a user.
type Notifier interface {
	SendText(ctx context.Context, userID int64, text string) error
	SendResult(ctx context.Context, userID int64, result Result) error
}

// ChatNotifier posts to the chat gateway's internal HTTP API.
type ChatNotifier struct {
	baseURL string
	token   string
	client  *http.Client
	logger  zerolog.Logger
}

// NewChatNotifier creates a Notifier backed by the chat gateway.
func NewChatNotifier(baseURL, token string, logger zerolog.Logger) *ChatNotifier {
	return &ChatNotifier{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger.With().Str("service", "ChatNotifier").Logger(),
	}
}

type sendTextRequest struct {
	UserID int64  `json:"user_id"`
	Text   string `json:"text"`
}

type sendResultRequest struct {
	UserID int64  `json:"user_id"`
	Result Result `json:"result"`
}

func (n *ChatNotifier) SendText(ctx context.Context, userID int64, text string) error {
	return n.post(ctx, "/internal/messages", sendTextRequest{UserID: userID, Text: text})
}

func (n *ChatNotifier) SendResult(ctx context.Context, userID int64, result Result) error {
	return n.post(ctx, "/internal/results", sendResultRequest{UserID: userID, Result: result})
}

func (n *ChatNotifier) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("creating notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.token)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		n.logger.Error().Int("status_code", resp.StatusCode).Str("body", string(bodyBytes)).Msg("Chat gateway rejected notification")
		return fmt.Errorf("chat gateway returned status %d", resp.StatusCode)
	}
	return nil
}
