// Package http is the outbound HTTP client used to drive load against an
// instrumented server and to read its metrics snapshot.
package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptrace"
	"time"

	"github.com/pkg/errors"
)

// Client issues requests relative to a base URL with default headers.
type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a client. The default timeout is 30s.
func NewClient(options ...ClientOption) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		headers: make(map[string]string),
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// WithBaseURL sets the URL request paths are resolved against.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithMaxIdleConns sizes the idle connection pool per host, so concurrent
// workers reuse connections instead of dialing on every request.
func WithMaxIdleConns(n int) ClientOption {
	return func(c *Client) {
		if n <= 0 {
			return
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.MaxIdleConns = n
		transport.MaxIdleConnsPerHost = n
		c.httpClient.Transport = transport
	}
}

// Do executes req and reads the whole body.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := req.Build(ctx, c.baseURL)
	if err != nil {
		return nil, err
	}
	for key, value := range c.headers {
		if httpReq.Header.Get(key) == "" {
			httpReq.Header.Set(key, value)
		}
	}

	timing := Timing{StartTime: time.Now()}
	trace := &httptrace.ClientTrace{
		GotFirstResponseByte: func() {
			timing.TimeToFirstByte = time.Since(timing.StartTime)
		},
	}
	httpReq = httpReq.WithContext(httptrace.WithClientTrace(httpReq.Context(), trace))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", req.Method, httpReq.URL)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	timing.TotalTime = time.Since(timing.StartTime)
	if err != nil {
		return nil, errors.Wrap(err, "read response body")
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    httpResp.Header,
		Body:       body,
		Timing:     timing,
	}, nil
}

// GetJSON fetches path and returns the body, failing on a non-2xx status.
func (c *Client) GetJSON(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.Do(ctx, NewRequest(http.MethodGet, path).WithHeader("Accept", "application/json"))
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, errors.Errorf("GET %s: unexpected status %s", path, resp.Status)
	}
	return resp.Body, nil
}
