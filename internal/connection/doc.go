// Package connection is the HTTP transport used by the session manager.
//
// HTTPClient resolves request paths against a base URL and attaches the
// headers every X2 call carries:
//
//   - Authorization: Bearer {token}, when a token source reports one
//   - X-Request-ID: a fresh ULID per request
//   - User-Agent: x2conn/{version}
//   - the static headers resolved at initialisation
//
// Responses are read fully and returned as *Response. Transport failures are
// returned as errors; non-2xx statuses are not, callers turn them into a
// *StatusError with Response.Err or ParseResponse.
package connection
