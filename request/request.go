// Package request performs HTTP requests described by value nodes:
//
//	{"get": "https://example.com/news", "headers": {"Accept": "application/json"}}
//	{"post": "https://example.com/score", "body": {"points": 120}}
package request

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/LingHeChen/nodescript/value"
)

// Response is an HTTP response
type Response struct {
	StatusCode int               // HTTP status code
	Status     string            // HTTP status text
	Headers    map[string]string // first value of each header
	Body       []byte            // raw body
	Duration   time.Duration     // time taken by the request
}

// String returns the body as text
func (r *Response) String() string {
	return string(r.Body)
}

// JSON decodes the body, keeping object key order
func (r *Response) JSON() (value.Value, error) {
	return value.ParseJSON(r.Body)
}

// Client is an HTTP client
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithTimeout sets the request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
		if hc.Timeout == 0 {
			hc.Timeout = c.timeout
		}
	}
}

// New creates a Client
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		timeout:    30 * time.Second,
	}
	c.httpClient.Timeout = c.timeout

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Do performs the request described by node
func (c *Client) Do(node value.Value) (*Response, error) {
	return c.DoContext(context.Background(), node)
}

// DoContext performs the request described by node under ctx
func (c *Client) DoContext(ctx context.Context, node value.Value) (*Response, error) {
	start := time.Now()

	// 1. method and URL
	method, url, err := extractMethodAndURL(node)
	if err != nil {
		return nil, err
	}

	// 2. body
	bodyReader, err := prepareBody(node)
	if err != nil {
		return nil, err
	}

	// 3. request
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// 4. headers
	applyHeaders(req, node)

	// 5. send
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// 6. read
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	headers := make(map[string]string)
	for k, v := range resp.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Headers:    headers,
		Body:       respBody,
		Duration:   time.Since(start),
	}, nil
}

var methods = []string{"get", "post", "put", "delete", "patch", "head", "options"}

// extractMethodAndURL finds the method key and its URL
func extractMethodAndURL(node value.Value) (string, string, error) {
	for _, m := range methods {
		if v, ok := node.Field(m); ok {
			url, isStr := v.AsString()
			if !isStr || url == "" {
				return "", "", fmt.Errorf("%s: URL must be a non-empty string", m)
			}
			return strings.ToUpper(m), url, nil
		}
	}
	return "", "", fmt.Errorf("missing HTTP method (get/post/put/delete/patch/head/options)")
}

// prepareBody encodes the body field: strings are sent raw, containers as JSON
func prepareBody(node value.Value) (io.Reader, error) {
	body, ok := node.Field("body")
	if !ok || body.IsNull() {
		return nil, nil
	}

	switch body.Kind() {
	case value.KindString:
		s, _ := body.AsString()
		return strings.NewReader(s), nil
	case value.KindObject, value.KindArray:
		jsonBytes, err := body.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		return bytes.NewReader(jsonBytes), nil
	default:
		return nil, fmt.Errorf("unsupported body type: %s", body.Kind())
	}
}

// applyHeaders copies the headers object onto req
func applyHeaders(req *http.Request, node value.Value) {
	headers, ok := node.Field("headers")
	if !ok {
		return
	}
	obj, ok := headers.AsObject()
	if !ok {
		return
	}
	for _, k := range obj.Keys() {
		v, _ := obj.Get(k)
		req.Header.Set(k, v.Text())
	}
}

// ---------------------------------------------------------
// Default client
// ---------------------------------------------------------

var defaultClient = New()

// Do performs the request described by node with the default client
func Do(node value.Value) (*Response, error) {
	return defaultClient.Do(node)
}
