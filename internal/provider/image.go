package provider

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

// ImageClient talks to the asynchronous image generation API.
type ImageClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  zerolog.Logger
}

// NewImageClient creates a client for the image provider.
func NewImageClient(baseURL, apiKey string, logger zerolog.Logger) *ImageClient {
	return &ImageClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger.With().Str("provider", "image").Logger(),
	}
}

type imageSubmitRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
}

type imageSubmitResponse struct {
	TaskID string `json:"task_id"`
}

// imageStatusResponse is the provider's task payload. Status is one of
// pending, processing, succeeded, failed.
type imageStatusResponse struct {
	TaskID   string `json:"task_id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Output   struct {
		ImageURL string `json:"image_url"`
	} `json:"output"`
	Error string `json:"error,omitempty"`
}

// Submit starts a generation task and returns the remote task id.
func (c *ImageClient) Submit(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(imageSubmitRequest{Prompt: req.Prompt})
	if err != nil {
		return "", fmt.Errorf("marshaling image request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/tasks", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("creating image submit request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("submitting image task: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		c.logger.Error().Int("status_code", resp.StatusCode).Str("body", string(bodyBytes)).Msg("Image provider rejected submission")
		return "", fmt.Errorf("image provider returned status %d", resp.StatusCode)
	}

	var submitResp imageSubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&submitResp); err != nil {
		return "", fmt.Errorf("decoding image submit response: %w", err)
	}
	if submitResp.TaskID == "" {
		return "", fmt.Errorf("image provider returned no task id")
	}
	return submitResp.TaskID, nil
}

// CheckStatus fetches the task and maps the provider payload into the
// neutral Status shape.
func (c *ImageClient) CheckStatus(ctx context.Context, remoteTaskID string) (Status, error) {
	url := fmt.Sprintf("%s/v1/tasks/%s", c.baseURL, remoteTaskID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Status{}, fmt.Errorf("creating image status request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return Status{}, fmt.Errorf("checking image task %s: %w", remoteTaskID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Status{}, fmt.Errorf("image provider returned status %d for task %s", resp.StatusCode, remoteTaskID)
	}

	var statusResp imageStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&statusResp); err != nil {
		return Status{}, fmt.Errorf("decoding image status response: %w", err)
	}
	return mapImageStatus(statusResp), nil
}

func mapImageStatus(r imageStatusResponse) Status {
	s := Status{}
	switch r.Status {
	case "succeeded":
		s.Phase = PhaseSucceeded
		s.Output = r.Output.ImageURL
	case "failed":
		s.Phase = PhaseFailed
		s.Reason = r.Error
	case "processing":
		s.Phase = PhaseProcessing
	default:
		s.Phase = PhaseQueued
	}
	if !s.Phase.Terminal() && r.Progress > 0 {
		s.Progress = fmt.Sprintf("%d%%", r.Progress)
	}
	return s
}
