// Package video provides an HTTP client for asynchronous video
// generation backends, implementing the provider.Video port. Jobs are
// submitted once and then polled until they reach a terminal status.
package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nexgenlabs/studio/internal/port/provider"
	"github.com/nexgenlabs/studio/internal/resilience"
)

// Client submits generation jobs to a provider API and polls for results.
type Client struct {
	name         string
	baseURL      string
	apiKey       string
	pollInterval time.Duration
	pollTimeout  time.Duration
	httpClient   *http.Client
	breaker      *resilience.Breaker
}

// NewClient creates a video generation client. name identifies the
// upstream provider in results and logs.
func NewClient(name, baseURL, apiKey string, pollInterval, pollTimeout time.Duration) *Client {
	return &Client{
		name:         name,
		baseURL:      baseURL,
		apiKey:       apiKey,
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// Name returns the provider name.
func (c *Client) Name() string {
	return c.name
}

type jobStatus struct {
	JobID    string         `json:"job_id"`
	Status   string         `json:"status"`
	VideoURL string         `json:"video_url,omitempty"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Generate submits one job and polls until it completes, fails, or the
// poll timeout elapses. Terminal upstream statuses are normalized to
// "completed" and "failed".
func (c *Client) Generate(ctx context.Context, req provider.VideoRequest) (*provider.VideoResult, error) {
	submitted, err := c.submit(ctx, req)
	if err != nil {
		return nil, err
	}
	if terminal(submitted.Status) {
		return toResult(submitted), nil
	}

	deadline := time.NewTimer(c.pollTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(c.pollInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, fmt.Errorf("video job %s: timed out after %s", submitted.JobID, c.pollTimeout)
		case <-tick.C:
			status, err := c.poll(ctx, submitted.JobID)
			if err != nil {
				return nil, err
			}
			if terminal(status.Status) {
				if normalize(status.Status) == "failed" {
					return nil, fmt.Errorf("video job %s failed: %s", submitted.JobID, status.Error)
				}
				return toResult(status), nil
			}
		}
	}
}

func terminal(status string) bool {
	s := normalize(status)
	return s == "completed" || s == "failed"
}

// normalize folds provider-specific status vocabularies into
// completed / failed / processing.
func normalize(status string) string {
	switch status {
	case "completed", "success", "succeeded", "done":
		return "completed"
	case "failed", "error", "cancelled":
		return "failed"
	default:
		return "processing"
	}
}

func toResult(s *jobStatus) *provider.VideoResult {
	return &provider.VideoResult{
		VideoURL: s.VideoURL,
		Status:   normalize(s.Status),
		JobID:    s.JobID,
		Metadata: s.Metadata,
	}
}

func (c *Client) submit(ctx context.Context, req provider.VideoRequest) (*jobStatus, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal video request: %w", err)
	}
	status, err := c.doRequest(ctx, http.MethodPost, "/jobs", body)
	if err != nil {
		return nil, fmt.Errorf("submit video job: %w", err)
	}
	if status.JobID == "" && !terminal(status.Status) {
		return nil, fmt.Errorf("submit video job: no job_id in response")
	}
	return status, nil
}

func (c *Client) poll(ctx context.Context, jobID string) (*jobStatus, error) {
	status, err := c.doRequest(ctx, http.MethodGet, "/jobs/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("poll video job %s: %w", jobID, err)
	}
	return status, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) (*jobStatus, error) {
	var result *jobStatus
	call := func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("%s API error %d: %s", c.name, resp.StatusCode, string(data))
		}

		var parsed jobStatus
		if err := json.Unmarshal(data, &parsed); err != nil {
			return fmt.Errorf("unmarshal job status: %w", err)
		}
		result = &parsed
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(ctx, call); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := call(ctx); err != nil {
		return nil, err
	}
	return result, nil
}
