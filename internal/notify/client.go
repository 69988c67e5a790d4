// Package notify invokes named serverless functions over HTTP. The functions
// gateway owns side-effecting workflows (notification emails, external
// analysis triggers); this client treats them as opaque JSON-in/JSON-out calls.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Sentinel errors for functions gateway failures.
var (
	ErrFunctionsUnreachable = errors.New("functions gateway unreachable")
	ErrFunctionFailed       = errors.New("function invocation failed")
	ErrFunctionTimeout      = errors.New("function invocation timeout")
)

// Invoker is the interface for calling remote functions.
type Invoker interface {
	Invoke(ctx context.Context, function string, payload any) (json.RawMessage, error)
}

// HTTPClient implements Invoker against an HTTP functions gateway.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a new functions gateway client.
func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// Invoke POSTs the payload to /functions/v1/{function} and returns the raw
// JSON result. Non-2xx responses map to ErrFunctionFailed.
func (c *HTTPClient) Invoke(ctx context.Context, function string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	u := fmt.Sprintf("%s/functions/v1/%s", c.baseURL, function)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrFunctionFailed, function, resp.StatusCode)
	}

	if len(raw) == 0 {
		return json.RawMessage(`null`), nil
	}
	return json.RawMessage(raw), nil
}

// classifyError maps transport errors onto sentinel errors.
func classifyError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrFunctionTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrFunctionTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrFunctionsUnreachable, err)
}
