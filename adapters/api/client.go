package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/layer-3/garuda/core"
	"github.com/layer-3/garuda/ports"
)

// maxErrorBody bounds how much of an error response is read for diagnostics.
const maxErrorBody = 64 * 1024

// DefaultTimeout is the application-level timeout applied to every round
// trip when the caller does not configure one.
const DefaultTimeout = 15 * time.Second

// Client is the REST transport to the wallet backend. Error statuses map
// onto the core taxonomy: 4xx becomes *core.APIError (so 401/403/404 can
// be told apart), while 5xx, timeouts and connectivity failures become
// *core.NetworkError. A timed-out call must never look like an unknown
// identity, or it would trigger the sign-up fallback.
type Client struct {
	base   *url.URL
	client *http.Client
}

// NewClient creates a backend client for baseURL. A non-positive timeout
// falls back to DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) (ports.API, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		base:   base,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// Call performs one round trip. body, when non-nil, is sent as JSON;
// bearer, when non-empty, is attached as an Authorization header.
func (c *Client) Call(ctx context.Context, method, path string, body any, bearer string) (json.RawMessage, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("invalid request path %q: %w", path, err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.ResolveReference(ref).String(), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &core.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return nil, &core.NetworkError{Err: err}
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, &core.NetworkError{Err: fmt.Errorf("backend returned status %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		return nil, &core.APIError{Status: resp.StatusCode, Message: errorMessage(data)}
	}

	return data, nil
}

// errorMessage extracts the backend's message field from an error body.
func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
