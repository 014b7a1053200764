// Package httpclient is the small HTTP collaborator vendor adapters share:
// a base URL, default headers, optional bearer auth, TLS verification
// toggle and a per-call deadline.
package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds a single call when the caller's context has no deadline.
const DefaultTimeout = 30 * time.Second

// ContentType selects how a request body is encoded.
type ContentType string

const (
	JSON ContentType = "json"
	Form ContentType = "form"
	Text ContentType = "text"
)

var (
	// ErrUnsupportedContentType is returned for an unknown ContentType or a
	// body the content type cannot encode.
	ErrUnsupportedContentType = errors.New("unsupported content type")
	// ErrInvalidJSON is returned by Response.JSON for a non-JSON body.
	ErrInvalidJSON = errors.New("invalid JSON response")
)

// HTTPError is returned for non-2xx responses. The response is returned
// alongside it so callers can keep the raw body.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error: %d - %s", e.StatusCode, strings.TrimSpace(string(e.Body)))
}

// Config configures a Client.
type Config struct {
	BaseURL     string
	Headers     map[string]string
	BearerToken string
	// InsecureSkipVerify turns off certificate verification.
	InsecureSkipVerify bool
	Timeout            time.Duration
	// Transport overrides the underlying round tripper (tests).
	Transport http.RoundTripper
}

// Client performs calls against one base URL.
type Client struct {
	baseURL string
	headers map[string]string
	bearer  string
	timeout time.Duration
	http    *http.Client
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return nil
}

// New builds a Client from cfg.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := cfg.Transport
	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.InsecureSkipVerify {
			t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // vendor endpoints with self-signed certs
		}
		transport = t
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		headers: headers,
		bearer:  cfg.BearerToken,
		timeout: timeout,
		http: &http.Client{
			Transport: transport,
			// Extra guard; the context deadline is the primary bound.
			Timeout: timeout + time.Second,
		},
	}
}

// WithTimeout wraps ctx with d unless it already carries a deadline.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// Get performs a GET with optional query parameters.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.Do(ctx, http.MethodGet, path, nil, "")
}

// Post performs a POST with body encoded as ct.
func (c *Client) Post(ctx context.Context, path string, body any, ct ContentType) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body, ct)
}

// Do performs a request and reads the whole response.
//
// A non-2xx status returns both the Response and an *HTTPError. Transport
// failures return no Response.
func (c *Client) Do(ctx context.Context, method, path string, body any, ct ContentType) (*Response, error) {
	ctx, cancel := WithTimeout(ctx, c.timeout)
	defer cancel()

	reader, contentType, err := encode(body, ct)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("request timeout or canceled: %w", err)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	out := &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: raw}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return out, &HTTPError{StatusCode: resp.StatusCode, Body: raw}
	}
	return out, nil
}

func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if path == "" {
		return c.baseURL
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func encode(body any, ct ContentType) (io.Reader, string, error) {
	if body == nil {
		return nil, "", nil
	}

	switch ct {
	case JSON, "":
		switch b := body.(type) {
		case []byte:
			return bytes.NewReader(b), "application/json", nil
		case json.RawMessage:
			return bytes.NewReader(b), "application/json", nil
		}
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("failed to marshal body: %w", err)
		}
		return bytes.NewReader(raw), "application/json", nil

	case Form:
		var values url.Values
		switch b := body.(type) {
		case url.Values:
			values = b
		case map[string]string:
			values = make(url.Values, len(b))
			for k, v := range b {
				values.Set(k, v)
			}
		default:
			return nil, "", fmt.Errorf("form body %T: %w", body, ErrUnsupportedContentType)
		}
		return strings.NewReader(values.Encode()), "application/x-www-form-urlencoded", nil

	case Text:
		switch b := body.(type) {
		case string:
			return strings.NewReader(b), "text/plain", nil
		case []byte:
			return bytes.NewReader(b), "text/plain", nil
		default:
			return nil, "", fmt.Errorf("text body %T: %w", body, ErrUnsupportedContentType)
		}
	}
	return nil, "", fmt.Errorf("%q: %w", ct, ErrUnsupportedContentType)
}
