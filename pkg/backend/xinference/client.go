package xinference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/cuemby/modelkeeper/pkg/backend"
	"github.com/cuemby/modelkeeper/pkg/log"
	"github.com/cuemby/modelkeeper/pkg/types"
	"github.com/rs/zerolog"
)

const (
	modelsPath     = "/v1/models"
	maxDetailBytes = 512
)

// RetryConfig defines retry behavior for idempotent backend calls
type RetryConfig struct {
	MaxRetries      int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	RetryableStatus []int
}

// DefaultRetryConfig returns the retry policy used for listing models
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialDelay:    500 * time.Millisecond,
		MaxDelay:        5 * time.Second,
		BackoffFactor:   2.0,
		RetryableStatus: []int{429, 502, 503, 504},
	}
}

// Config holds Xinference client settings
type Config struct {
	BaseURL       string
	APIKey        string
	ListTimeout   time.Duration
	LaunchTimeout time.Duration
	Retry         RetryConfig
	HTTPClient    *http.Client
}

// Client talks to the Xinference RESTful API
type Client struct {
	baseURL       string
	apiKey        string
	listTimeout   time.Duration
	launchTimeout time.Duration
	retry         RetryConfig
	http          *http.Client
	logger        zerolog.Logger
}

var _ backend.Gateway = (*Client)(nil)

// NewClient creates a client for the Xinference server at cfg.BaseURL
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("xinference: base URL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	retry := cfg.Retry
	if retry.BackoffFactor == 0 {
		retry = DefaultRetryConfig()
	}

	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		listTimeout:   cfg.ListTimeout,
		launchTimeout: cfg.LaunchTimeout,
		retry:         retry,
		http:          httpClient,
		logger:        log.WithComponent("xinference"),
	}, nil
}

type modelEntry struct {
	ID string `json:"id"`
}

type launchRequest struct {
	ModelUID    *string `json:"model_uid"`
	ModelName   string  `json:"model_name"`
	ModelType   string  `json:"model_type"`
	ModelEngine string  `json:"model_engine,omitempty"`
}

type launchResponse struct {
	ModelUID string `json:"model_uid"`
}

// ListActive returns the uids of every running model
func (c *Client) ListActive(ctx context.Context) (types.ActiveSet, error) {
	const op = "list models"

	ctx, cancel := withTimeout(ctx, c.listTimeout)
	defer cancel()

	resp, err := c.doWithRetry(ctx, op, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodGet, modelsPath, nil)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &backend.UnavailableError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &backend.UnavailableError{Op: op, Status: resp.StatusCode, Err: statusError(resp.StatusCode, body)}
	}

	active, err := decodeModelList(body)
	if err != nil {
		return nil, &backend.UnavailableError{Op: op, Err: err}
	}
	return active, nil
}

// Launch starts a model and returns the uid Xinference assigned. Launches are
// never retried because the call is not idempotent.
func (c *Client) Launch(ctx context.Context, spec types.WorkloadSpec) (string, error) {
	op := "launch " + spec.Name

	ctx, cancel := withTimeout(ctx, c.launchTimeout)
	defer cancel()

	payload := launchRequest{
		ModelName:   spec.Name,
		ModelType:   spec.Type,
		ModelEngine: spec.Engine,
	}
	if spec.HasUID() {
		uid := spec.UID
		payload.ModelUID = &uid
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%s: encode request: %w", op, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, modelsPath, data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	c.logger.Debug().Str("workload", spec.Name).Str("uid", spec.UID).Msg("Launching model")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &backend.UnavailableError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &backend.UnavailableError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case isClientError(resp.StatusCode):
		return "", fmt.Errorf("%s: %w", op, &backend.RejectedError{Status: resp.StatusCode, Detail: detail(body)})
	default:
		return "", &backend.UnavailableError{Op: op, Status: resp.StatusCode, Err: statusError(resp.StatusCode, body)}
	}

	var out launchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", &backend.UnavailableError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	if out.ModelUID == "" {
		if spec.HasUID() {
			return spec.UID, nil
		}
		return "", &backend.UnavailableError{Op: op, Err: errors.New("response carries no model_uid")}
	}
	return out.ModelUID, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

// doWithRetry executes an idempotent request, retrying transport errors and
// retryable status codes with exponential backoff
func (c *Client) doWithRetry(ctx context.Context, op string, build func() (*http.Request, error)) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		req, err := build()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = &backend.UnavailableError{Op: op, Err: err}
		} else if c.shouldRetry(resp.StatusCode) {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxDetailBytes))
			resp.Body.Close()
			lastErr = &backend.UnavailableError{Op: op, Status: resp.StatusCode, Err: statusError(resp.StatusCode, body)}
		} else {
			return resp, nil
		}

		if attempt == c.retry.MaxRetries || ctx.Err() != nil {
			break
		}

		delay := c.calculateDelay(attempt)
		c.logger.Warn().
			Err(lastErr).
			Int("attempt", attempt+1).
			Int("max_retries", c.retry.MaxRetries).
			Dur("delay", delay).
			Msg("Backend request failed, retrying")

		if err := sleep(ctx, delay); err != nil {
			break
		}
	}

	return nil, lastErr
}

func (c *Client) shouldRetry(status int) bool {
	for _, code := range c.retry.RetryableStatus {
		if status == code {
			return true
		}
	}
	return false
}

// calculateDelay returns the exponential backoff delay with ±25% jitter
func (c *Client) calculateDelay(attempt int) time.Duration {
	delay := float64(c.retry.InitialDelay) * math.Pow(c.retry.BackoffFactor, float64(attempt))
	delay += delay * 0.25 * (2*rand.Float64() - 1)
	if c.retry.MaxDelay > 0 && delay > float64(c.retry.MaxDelay) {
		delay = float64(c.retry.MaxDelay)
	}
	return time.Duration(delay)
}

// decodeModelList accepts both the OpenAI-style list
// {"object":"list","data":[{"id":...}]} and the legacy {"<uid>": {...}} map
func decodeModelList(body []byte) (types.ActiveSet, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode model list: %w", err)
	}

	active := types.NewActiveSet()
	if data, ok := raw["data"]; ok && string(raw["object"]) == `"list"` {
		var entries []modelEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("decode model list: %w", err)
		}
		for _, e := range entries {
			active.Add(e.ID)
		}
		return active, nil
	}

	for uid := range raw {
		active.Add(uid)
	}
	return active, nil
}

// detail extracts a human-readable message from an error body
func detail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var s string
		if err := json.Unmarshal(payload.Detail, &s); err == nil {
			return truncate(s)
		}
		return truncate(string(payload.Detail))
	}
	return truncate(strings.TrimSpace(string(body)))
}

func statusError(status int, body []byte) error {
	if d := detail(body); d != "" {
		return errors.New(d)
	}
	return errors.New(strings.ToLower(http.StatusText(status)))
}

func truncate(s string) string {
	if len(s) > maxDetailBytes {
		return s[:maxDetailBytes] + "..."
	}
	return s
}

func isClientError(status int) bool {
	return status >= 400 && status < 500 && status != http.StatusRequestTimeout && status != http.StatusTooManyRequests
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
