package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/fleet-notify/internal/model"
)

// HTTPClient talks to the fleet server over its JSON API. Batch mutations
// are sent exactly once; only the idempotent summary fetch is retried when
// the server answers 429.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
	log        zerolog.Logger
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for transport diagnostics.
func WithLogger(l zerolog.Logger) HTTPOption {
	return func(c *HTTPClient) {
		c.log = l
	}
}

// WithMaxRetries bounds how often a rate-limited summary fetch is retried.
func WithMaxRetries(n int) HTTPOption {
	return func(c *HTTPClient) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// NewHTTPClient creates a client for the server at baseURL. The token is
// sent as a Bearer credential when non-empty.
func NewHTTPClient(baseURL, token string, timeout time.Duration, opts ...HTTPOption) *HTTPClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: 3,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MarkRead marks the batch as read.
func (c *HTTPClient) MarkRead(ctx context.Context, ids []string) (BatchResult, error) {
	return c.batch(ctx, "markRead", PathMarkRead, ids)
}

// MarkUnread marks the batch as unread.
func (c *HTTPClient) MarkUnread(ctx context.Context, ids []string) (BatchResult, error) {
	return c.batch(ctx, "markUnread", PathMarkUnread, ids)
}

// Delete removes the batch.
func (c *HTTPClient) Delete(ctx context.Context, ids []string) (BatchResult, error) {
	return c.batch(ctx, "delete", PathDelete, ids)
}

// MarkAllRead marks every notification of the current user as read.
func (c *HTTPClient) MarkAllRead(ctx context.Context) error {
	var env Envelope
	if err := c.do(ctx, "markAllRead", http.MethodPost, PathMarkAllRead, struct{}{}, &env, 0); err != nil {
		return err
	}
	if !env.Success {
		return &ServerError{Op: "markAllRead", Status: http.StatusOK, Message: env.Error}
	}
	return nil
}

// FetchSummary returns the authoritative counters and notification list.
func (c *HTTPClient) FetchSummary(ctx context.Context) (*model.Summary, error) {
	var env SummaryEnvelope
	if err := c.do(ctx, "fetchSummary", http.MethodGet, PathSummary, nil, &env, c.maxRetries); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, &ServerError{Op: "fetchSummary", Status: http.StatusOK, Message: env.Error}
	}
	summary := env.Summary
	return &summary, nil
}

// batch posts an id batch and decodes the count from the envelope.
func (c *HTTPClient) batch(ctx context.Context, op, path string, ids []string) (BatchResult, error) {
	var env Envelope
	if err := c.do(ctx, op, http.MethodPost, path, IDsRequest{IDs: ids}, &env, 0); err != nil {
		return BatchResult{}, err
	}
	if !env.Success {
		return BatchResult{}, &ServerError{Op: op, Status: http.StatusOK, Message: env.Error}
	}

	count := len(ids)
	switch {
	case env.MarkedCount != nil:
		count = *env.MarkedCount
	case env.DeletedCount != nil:
		count = *env.DeletedCount
	}
	return BatchResult{Count: count}, nil
}

// do builds the request, handles auth, optional 429 backoff and JSON
// (de)serialization. Transport failures come back as *NetworkError and
// non-2xx answers as *ServerError.
func (c *HTTPClient) do(
	ctx context.Context,
	op string,
	method string,
	path string,
	body interface{},
	result interface{},
	retries int,
) error {
	url := c.baseURL + path

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling %s request body: %w", op, err)
		}
		payload = data
	}

	for attempt := 0; ; attempt++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return fmt.Errorf("creating %s request: %w", op, err)
		}

		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.log.Warn().Err(err).Str("op", op).Str("path", path).Msg("request failed")
			return &NetworkError{Op: op, Err: err}
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return &NetworkError{Op: op, Err: fmt.Errorf("reading response body: %w", readErr)}
		}

		if retryable(resp.StatusCode) && attempt < retries {
			wait := retryAfterDuration(resp, attempt)
			c.log.Debug().Str("op", op).Int("status", resp.StatusCode).Dur("wait", wait).Msg("server busy, backing off")

			select {
			case <-ctx.Done():
				return &NetworkError{Op: op, Err: ctx.Err()}
			case <-time.After(wait):
				continue
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return serverErrorFrom(op, resp.StatusCode, respBody)
		}

		if result == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			c.log.Warn().Err(err).Str("op", op).Msg("unreadable response body")
			return &ServerError{Op: op, Status: resp.StatusCode}
		}

		return nil
	}
}

// serverErrorFrom extracts the server's error text from a failed response
// when it follows the envelope shape.
func serverErrorFrom(op string, status int, body []byte) *ServerError {
	var env Envelope
	if json.Unmarshal(body, &env) == nil && env.Error != "" {
		return &ServerError{Op: op, Status: status, Message: env.Error}
	}
	return &ServerError{Op: op, Status: status}
}

// retryable reports whether status asks the client to come back later.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
