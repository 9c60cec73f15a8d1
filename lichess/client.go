// Package lichess is the HTTP client for the lichess.org API: OAuth (PKCE),
// tournament creation, standings and account lookups.
//
// Requests are throttled through a token bucket limiter; lichess asks API
// clients to keep request rates modest.
package lichess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Error is a request the host rejected: an HTTP status together with the
// message lichess returned. Timeouts and transport failures are not Errors.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("lichess: %d %s", e.Code, e.Message)
}

// IsNotFound reports whether err is the host saying the resource is gone.
func IsNotFound(err error) bool {
	var le *Error
	return errors.As(err, &le) && le.Code == http.StatusNotFound
}

// Client is the shared HTTP client for all lichess endpoints.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	clientID    string
	redirectURL string
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// NewClient creates a lichess HTTP client. clientID and redirectURL belong to
// the OAuth flow; baseURL is overridable for tests.
func NewClient(baseURL, clientID, redirectURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		clientID:    clientID,
		redirectURL: redirectURL,
		limiter:     rate.NewLimiter(rate.Every(150*time.Millisecond), 10),
		logger:      logger,
	}
}

// do performs a rate-limited request. A non-nil form switches the request to
// a form-encoded POST body. Responses outside 2xx map to *Error.
func (c *Client) do(ctx context.Context, method, path, token string, query, form url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Code: resp.StatusCode, Message: errorMessage(raw)}
	}
	return raw, nil
}

// errorMessage extracts the host's error text from a rejection body.
func errorMessage(raw []byte) string {
	var body struct {
		Error any `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != nil {
		switch e := body.Error.(type) {
		case string:
			return e
		default:
			if msg, err := json.Marshal(e); err == nil {
				return string(msg)
			}
		}
	}
	return truncate(raw, 200)
}

func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
