package connection

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxErrorBody bounds the body text included in StatusError.Error.
const maxErrorBody = 256

// RequestOption customises a single request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	body        io.Reader
	contentType string
	headers     http.Header
	query       url.Values
	noAuth      bool
	err         error
}

// WithJSON encodes v as the JSON request body.
func WithJSON(v any) RequestOption {
	return func(o *requestOptions) {
		data, err := json.Marshal(v)
		if err != nil {
			o.err = fmt.Errorf("marshal body: %w", err)
			return
		}
		o.body = bytes.NewReader(data)
		o.contentType = "application/json"
	}
}

// WithBody sends raw bytes with the given content type.
func WithBody(data []byte, contentType string) RequestOption {
	return func(o *requestOptions) {
		o.body = bytes.NewReader(data)
		o.contentType = contentType
	}
}

// WithHeader sets a request header, overriding defaults of the same name.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = make(http.Header)
		}
		o.headers.Set(key, value)
	}
}

// WithQuery adds a query parameter.
func WithQuery(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.query == nil {
			o.query = make(url.Values)
		}
		o.query.Add(key, value)
	}
}

// WithoutAuth suppresses the Authorization header even when a token exists.
func WithoutAuth() RequestOption {
	return func(o *requestOptions) {
		o.noAuth = true
	}
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Err returns a *StatusError for non-2xx responses and nil otherwise.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	return &StatusError{StatusCode: r.StatusCode, Body: r.Body}
}

// Decode unmarshals the JSON body into target. Numbers decoded into
// interface values are kept as json.Number.
func (r *Response) Decode(target any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return errors.New("parse response: empty body")
	}
	dec := json.NewDecoder(bytes.NewReader(r.Body))
	dec.UseNumber()
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// ParseResponse checks the status and decodes the body into target.
// A nil target only checks the status.
func ParseResponse(resp *Response, target any) error {
	if err := resp.Err(); err != nil {
		return err
	}
	if target != nil {
		return resp.Decode(target)
	}
	return nil
}

// StatusError is a non-2xx response. The body is kept for the caller.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("status %d: %s", e.StatusCode, msg)
	}
	body := strings.TrimSpace(string(e.Body))
	if body == "" {
		return fmt.Sprintf("status %d", e.StatusCode)
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "..."
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, body)
}

// Message extracts the server's error message from a JSON body of the form
// {"code": "...", "message": "..."}. It returns "" when absent.
func (e *StatusError) Message() string {
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(e.Body, &errResp); err != nil || errResp.Message == "" {
		return ""
	}
	if errResp.Code != "" {
		return fmt.Sprintf("[%s] %s", errResp.Code, errResp.Message)
	}
	return errResp.Message
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
