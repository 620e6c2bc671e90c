package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MohamedElaraby99/the-good-analyst-sub000/backend/models"
	"github.com/MohamedElaraby99/the-good-analyst-sub000/backend/services"
)

// APIClient talks to the video-progress HTTP surface. It implements Syncer.
type APIClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewAPIClient(baseURL, token string) *APIClient {
	return &APIClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type progressEnvelope struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Error   string               `json:"error"`
	Data    models.WatchProgress `json:"data"`
}

func (c *APIClient) Fetch(ctx context.Context, courseID, videoID string) (*models.WatchProgress, error) {
	url := fmt.Sprintf("%s/api/video-progress/%s/%s", c.BaseURL, courseID, videoID)
	return c.do(ctx, http.MethodGet, url, nil)
}

func (c *APIClient) Push(ctx context.Context, courseID, videoID string, upd services.ProgressUpdate) (*models.WatchProgress, error) {
	url := fmt.Sprintf("%s/api/video-progress/%s/%s", c.BaseURL, courseID, videoID)
	return c.do(ctx, http.MethodPut, url, upd)
}

// Reset clears the caller's record so the video can be rewatched from scratch.
func (c *APIClient) Reset(ctx context.Context, courseID, videoID string) (*models.WatchProgress, error) {
	url := fmt.Sprintf("%s/api/video-progress/%s?courseId=%s", c.BaseURL, videoID, courseID)
	return c.do(ctx, http.MethodDelete, url, nil)
}

func (c *APIClient) do(ctx context.Context, method, url string, body interface{}) (*models.WatchProgress, error) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var envelope progressEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decoding response from %s: %w", url, err)
	}

	if !envelope.Success {
		message := envelope.Message
		if message == "" {
			message = envelope.Error
		}
		return nil, fmt.Errorf("%s %s: %s (status %d)", method, url, message, resp.StatusCode)
	}

	return &envelope.Data, nil
}
