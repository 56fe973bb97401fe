// Package fetch performs the outbound HTTP requests of the pipeline: feed
// bodies, torrent binaries and HEAD probes.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxBodySize bounds any single response body. Torrent files and feeds are
// far below it.
const maxBodySize = 32 << 20

// Request describes one outbound HTTP request.
type Request struct {
	URL    string
	Method string
	Header http.Header
}

// Response holds a fully read response. Body is binary safe.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Doer executes requests. *Client is the production implementation.
type Doer interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// Client is a Doer over net/http.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient creates a Client with the given timeout and default user agent.
func NewClient(timeout time.Duration, userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
	}
}

// NewClientWith wraps an existing http.Client.
func NewClientWith(httpClient *http.Client, userAgent string) *Client {
	return &Client{httpClient: httpClient, userAgent: userAgent}
}

// Do executes req. Transport failures and non-2xx statuses are returned as
// *Error.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, nil)
	if err != nil {
		return nil, &Error{URL: req.URL, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if httpReq.Header.Get("User-Agent") == "" && c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &Error{URL: req.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &Error{URL: req.URL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &Error{URL: req.URL, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}
