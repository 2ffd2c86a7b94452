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

// VideoClient talks to the asynchronous video generation API. The wire
// format differs from the image provider's; both map into the same Status.
type VideoClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  zerolog.Logger
}

// NewVideoClient creates a client for the video provider.
func NewVideoClient(baseURL, apiKey string, logger zerolog.Logger) *VideoClient {
	return &VideoClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger.With().Str("provider", "video").Logger(),
	}
}

type videoSubmitRequest struct {
	Prompt   string `json:"prompt"`
	Duration int    `json:"duration_seconds,omitempty"`
}

type videoSubmitResponse struct {
	ID string `json:"id"`
}

// videoStatusResponse is the provider's job payload. State is one of queued,
// running, success, error.
type videoStatusResponse struct {
	ID       string  `json:"id"`
	State    string  `json:"state"`
	Stage    string  `json:"stage,omitempty"`
	VideoURL string  `json:"video_url,omitempty"`
	Message  string  `json:"message,omitempty"`
	Percent  float64 `json:"percent,omitempty"`
}

// Submit starts a generation job and returns the remote job id.
func (c *VideoClient) Submit(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(videoSubmitRequest{Prompt: req.Prompt})
	if err != nil {
		return "", fmt.Errorf("marshaling video request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jobs", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("creating video submit request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("submitting video job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		bodyBytes, _ := io.ReadAll(resp.Body)
		c.logger.Error().Int("status_code", resp.StatusCode).Str("body", string(bodyBytes)).Msg("Video provider rejected submission")
		return "", fmt.Errorf("video provider returned status %d", resp.StatusCode)
	}

	var submitResp videoSubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&submitResp); err != nil {
		return "", fmt.Errorf("decoding video submit response: %w", err)
	}
	if submitResp.ID == "" {
		return "", fmt.Errorf("video provider returned no job id")
	}
	return submitResp.ID, nil
}

// CheckStatus fetches the job and maps the provider payload into the
// neutral Status shape.
func (c *VideoClient) CheckStatus(ctx context.Context, remoteTaskID string) (Status, error) {
	url := fmt.Sprintf("%s/jobs/%s", c.baseURL, remoteTaskID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Status{}, fmt.Errorf("creating video status request: %w", err)
	}
	httpReq.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return Status{}, fmt.Errorf("checking video job %s: %w", remoteTaskID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Status{}, fmt.Errorf("video provider returned status %d for job %s", resp.StatusCode, remoteTaskID)
	}

	var statusResp videoStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&statusResp); err != nil {
		return Status{}, fmt.Errorf("decoding video status response: %w", err)
	}
	return mapVideoStatus(statusResp), nil
}

func mapVideoStatus(r videoStatusResponse) Status {
	s := Status{}
	switch r.State {
	case "success":
		s.Phase = PhaseSucceeded
		s.Output = r.VideoURL
	case "error":
		s.Phase = PhaseFailed
		s.Reason = r.Message
	case "running":
		s.Phase = PhaseProcessing
	default:
		s.Phase = PhaseQueued
	}
	if !s.Phase.Terminal() {
		switch {
		case r.Stage != "":
			s.Progress = r.Stage
		case r.Percent > 0:
			s.Progress = fmt.Sprintf("%.0f%%", r.Percent)
		}
	}
	return s
}
