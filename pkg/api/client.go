// Package api is a typed HTTP client for the relationship mining backend.
//
// The backend is an opaque service: it extracts person entities from uploaded
// files, tracks processing jobs and runs multi agent conversations about the
// selected entities. This package only speaks its JSON API. Calls are never
// retried; callers decide what a failure means.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/metrics"
)

// DefaultBaseURL is used when NewClientParams.BaseURL is empty.
const DefaultBaseURL = "http://localhost:8000"

// Client talks to the backend API. It is safe for concurrent use.
//
// A Client should be created using NewClient.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClientParams defines the configuration for creating a Client.
//
// BaseURL is the backend root without the /api suffix. Timeout bounds every
// single request; zero means no client side timeout. HTTPClient replaces the
// default transport, which tests use to point at an httptest server.
type NewClientParams struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient creates a Client.
//
// Example:
//
//	client, err := api.NewClient(api.NewClientParams{
//		BaseURL: "http://localhost:8000",
//		Timeout: 30 * time.Second,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
func NewClient(params NewClientParams) (*Client, error) {
	base := strings.TrimSpace(params.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend base url %q", params.BaseURL)
	}

	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: params.Timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		http:    httpClient,
	}, nil
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Error is returned for every non 2xx response.
type Error struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: backend returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: backend returned status %d: %s", e.Op, e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// StatusCode returns the backend status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, query url.Values, body any, out any) (err error) {
	done := metrics.TimeAPICall(op)
	defer func() { done(err == nil) }()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(op, req, out)
}

func (c *Client) do(op string, req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: failed to execute request: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &Error{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

// errorMessage pulls the human readable part out of an error body. The
// backend answers {"detail": "..."}; proxies in front of it often answer
// {"message": "..."} or plain text.
func errorMessage(raw []byte) string {
	var body struct {
		Detail  any    `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		switch d := body.Detail.(type) {
		case string:
			if d != "" {
				return d
			}
		case nil:
		default:
			if b, err := json.Marshal(d); err == nil {
				return string(b)
			}
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return strings.TrimSpace(string(raw))
}
