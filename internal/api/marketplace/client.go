package marketplace

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

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrMissingID is returned when a 2xx response does not carry the
	// resource it should, e.g. a null body.
	ErrMissingID = errors.New("response has no id")
)

// APIError is returned for every non-2xx response.
type APIError struct {
	Status  int
	Message string // server-supplied, may be empty
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, http.StatusText(e.Status))
}

// UserMessage returns the server-supplied message, or "" when the server sent none.
func (e *APIError) UserMessage() string {
	return e.Message
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Client for requests to the marketplace REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	userAgent  string
	token      string
}

func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger:    logger,
		userAgent: "Jobmarket-Bot/1.0",
	}
}

// WithToken returns a client authenticated as the owner of token.
// The underlying HTTP connection pool is shared.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

// doRequest performs a single HTTP request. Failures are not retried.
func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, body interface{}) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("request failed",
			zap.String("method", method),
			zap.String("url", fullURL),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.logger.Debug("successful request",
			zap.String("method", method),
			zap.String("url", fullURL),
			zap.Int("status", resp.StatusCode),
		)
		return respBody, nil
	}

	c.logger.Error("API error",
		zap.String("method", method),
		zap.String("url", fullURL),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.String("body", string(respBody)),
	)

	apiErr := &APIError{Status: resp.StatusCode}
	var errResp ErrorResponse
	if err := json.Unmarshal(respBody, &errResp); err == nil {
		apiErr.Message = errResp.Text()
	}
	return nil, apiErr
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dest interface{}) error {
	data, err := c.doRequest(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return err
	}
	return c.parseResponse(data, dest)
}

func (c *Client) send(ctx context.Context, method, path string, body, dest interface{}) error {
	data, err := c.doRequest(ctx, method, path, nil, body)
	if err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	return c.parseResponse(data, dest)
}

// parseResponse accepts either a bare resource or a {"data": ...} envelope.
func (c *Client) parseResponse(data []byte, dest interface{}) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
		data = env.Data
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func resourcePath(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return "/" + strings.Join(escaped, "/")
}
