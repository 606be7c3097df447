package connection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"
)

// Header names set on every request.
const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
	HeaderUserAgent     = "User-Agent"
)

// DefaultTimeout is the per-request timeout when none is configured.
const DefaultTimeout = 30 * time.Second

// maxResponseBody caps how much of a response body is read.
const maxResponseBody = 10 << 20

// ErrResponseTooLarge is returned when a response body exceeds the read cap.
var ErrResponseTooLarge = errors.New("response body too large")

// TokenSource returns the bearer token to attach, or "" for none.
type TokenSource func() string

// Observer receives the outcome of every completed request. status is 0 on
// transport failure.
type Observer func(method string, status int, elapsed time.Duration)

// Config configures an HTTPClient.
type Config struct {
	// BaseURL is prefixed to relative paths. A missing scheme means http.
	BaseURL string

	// Headers are sent with every request.
	Headers map[string]string

	// UserAgent overrides the default "x2conn".
	UserAgent string

	// Timeout applies when Client is nil. Default: DefaultTimeout.
	Timeout time.Duration

	// RequestsPerSecond limits outgoing requests. Zero disables the limit.
	RequestsPerSecond float64

	// Client is the underlying transport. Default: a client with Timeout.
	Client *http.Client

	// Token supplies the Authorization bearer value.
	Token TokenSource

	// Observer is notified after each request.
	Observer Observer
}

// HTTPClient provides HTTP communication with the X2 API.
type HTTPClient struct {
	baseURL   string
	origin    string
	headers   http.Header
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
	token     TokenSource
	observer  Observer
}

// NewHTTPClient creates a new HTTP client.
func NewHTTPClient(cfg Config) *HTTPClient {
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	headers := make(http.Header, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers.Set(k, v)
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "x2conn"
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	baseURL := NormalizeBaseURL(cfg.BaseURL)
	origin, _ := Origin(baseURL)

	return &HTTPClient{
		baseURL:   baseURL,
		origin:    origin,
		headers:   headers,
		userAgent: userAgent,
		client:    client,
		limiter:   limiter,
		token:     cfg.Token,
		observer:  cfg.Observer,
	}
}

// NormalizeBaseURL adds an http:// scheme when missing and drops any
// trailing slash.
func NormalizeBaseURL(server string) string {
	baseURL := strings.TrimSpace(server)
	if baseURL == "" {
		return ""
	}
	// Ensure baseURL has http:// prefix
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return strings.TrimRight(baseURL, "/")
}

// Origin returns scheme://host of rawURL.
func Origin(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url %q has no scheme or host", rawURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, opts...)
}

// Post performs a POST request.
func (c *HTTPClient) Post(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, opts...)
}

// Put performs a PUT request.
func (c *HTTPClient) Put(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, opts...)
}

// Delete performs a DELETE request.
func (c *HTTPClient) Delete(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, opts...)
}

// Do sends a request. path may be absolute (http:// or https://), in which
// case the base URL is ignored and the bearer token is only attached when
// the target shares the base URL's origin. The returned error is non-nil only when no
// response was received.
func (c *HTTPClient) Do(ctx context.Context, method, path string, opts ...RequestOption) (*Response, error) {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return nil, o.err
	}

	target, err := c.resolve(path, o.query)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, o.body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.addHeaders(req, &o)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.observe(method, 0, start)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody+1))
	c.observe(method, resp.StatusCode, start)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(body) > maxResponseBody {
		return nil, fmt.Errorf("%w: over %d bytes", ErrResponseTooLarge, maxResponseBody)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func (c *HTTPClient) resolve(path string, query url.Values) (string, error) {
	target := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		if c.baseURL == "" {
			return "", fmt.Errorf("no base url for relative path %q", path)
		}
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		target = c.baseURL + path
	}
	if len(query) == 0 {
		return target, nil
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + query.Encode(), nil
}

// addHeaders adds authentication and common headers.
func (c *HTTPClient) addHeaders(req *http.Request, o *requestOptions) {
	for k, v := range c.headers {
		req.Header[k] = append([]string(nil), v...)
	}
	req.Header.Set(HeaderUserAgent, c.userAgent)
	req.Header.Set(HeaderRequestID, ulid.Make().String())
	if o.contentType != "" {
		req.Header.Set("Content-Type", o.contentType)
	}
	req.Header.Set("Accept", "application/json")

	if !o.noAuth && c.token != nil && c.sameOrigin(req) {
		if token := c.token(); token != "" {
			req.Header.Set(HeaderAuthorization, "Bearer "+token)
		}
	}

	for k, v := range o.headers {
		req.Header[k] = append([]string(nil), v...)
	}
}

// sameOrigin reports whether req targets the base URL's scheme and host.
func (c *HTTPClient) sameOrigin(req *http.Request) bool {
	return c.origin != "" && strings.EqualFold(req.URL.Scheme+"://"+req.URL.Host, c.origin)
}

func (c *HTTPClient) observe(method string, status int, start time.Time) {
	if c.observer != nil {
		c.observer(method, status, time.Since(start))
	}
}
