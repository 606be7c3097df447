package command

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/urfave/cli/v2"
)

// mockServer creates a test HTTP server with custom handlers.
type mockServer struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests []*http.Request
}

// newMockServer creates a new mock server. Handlers match the exact path
// first, then the longest registered prefix.
func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	m := &mockServer{
		handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.requests = append(m.requests, r.Clone(context.Background()))
		handler := m.match(r.URL.Path)
		m.mu.Unlock()

		if handler == nil {
			errorResponse(w, http.StatusNotFound, "not_found", "no route for "+r.URL.Path)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

func (m *mockServer) match(path string) http.HandlerFunc {
	if h, ok := m.handlers[path]; ok {
		return h
	}
	patterns := make([]string, 0, len(m.handlers))
	for p := range m.handlers {
		patterns = append(patterns, p)
	}
	sort.Slice(patterns, func(i, j int) bool { return len(patterns[i]) > len(patterns[j]) })
	for _, p := range patterns {
		if strings.HasPrefix(path, p) {
			return m.handlers[p]
		}
	}
	return nil
}

// handle registers a handler for a path pattern.
func (m *mockServer) handle(pattern string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[pattern] = handler
}

// lastRequest returns the most recent request to path.
func (m *mockServer) lastRequest(path string) *http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.requests) - 1; i >= 0; i-- {
		if m.requests[i].URL.Path == path {
			return m.requests[i]
		}
	}
	return nil
}

// jsonResponse writes a JSON response.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// errorResponse writes an error response.
func errorResponse(w http.ResponseWriter, status int, code, message string) {
	jsonResponse(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

// newX2Server returns a mock X2 API that accepts user/secret and issues
// token "tok-1".
func newX2Server(t *testing.T) *mockServer {
	t.Helper()
	m := newMockServer(t)
	m.handle("/token", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["username"] != "user" || body["password"] != "secret" {
			errorResponse(w, http.StatusUnauthorized, "invalid_credentials", "bad credentials")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"token": "tok-1"})
	})
	m.handle("/user/current", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			errorResponse(w, http.StatusUnauthorized, "unauthorized", "token rejected")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]any{"_id": "u1", "account": "user"})
	})
	m.handle("/user/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return m
}

// testEnv is a config file and token store isolated in a temp dir.
type testEnv struct {
	t      *testing.T
	server *mockServer
	config string
}

// envConfig holds YAML lines injected into the test config. API and
// Storage lines are indented into their sections; Extra is top-level.
type envConfig struct {
	API     []string
	Storage []string
	Extra   string
}

// newTestEnv writes a config pointing at server with a badger store in a
// temp dir. extra is appended as top-level YAML.
func newTestEnv(t *testing.T, server *mockServer, extra string) *testEnv {
	t.Helper()
	return newTestEnvWith(t, server, envConfig{Extra: extra})
}

func newTestEnvWith(t *testing.T, server *mockServer, ec envConfig) *testEnv {
	t.Helper()
	dir := t.TempDir()
	indent := func(lines []string) string {
		var b strings.Builder
		for _, l := range lines {
			b.WriteString("  " + l + "\n")
		}
		return b.String()
	}
	cfg := fmt.Sprintf(`api:
  base_url: %s
  timeout: 5s
%sstorage:
  backend: badger
  dir: %s
%slog:
  level: error
%s`, server.URL, indent(ec.API), filepath.Join(dir, "data"), indent(ec.Storage), ec.Extra)

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &testEnv{t: t, server: server, config: path}
}

type runResult struct {
	stdout string
	stderr string
	err    error
}

// run executes the CLI with the env's config file prepended.
func (e *testEnv) run(stdin string, args ...string) runResult {
	e.t.Helper()
	return runApp(stdin, append([]string{"--config", e.config}, args...)...)
}

func runApp(stdin string, args ...string) runResult {
	var stdout, stderr bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.Reader = strings.NewReader(stdin)
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.RunContext(context.Background(), append([]string{"x2conn"}, args...))
	return runResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// mustRun fails the test when the command errors.
func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	res := e.run("", args...)
	if res.err != nil {
		e.t.Fatalf("%v: %v\nstderr: %s", args, res.err, res.stderr)
	}
	return res.stdout
}

func decodeJSON(t *testing.T, s string) map[string]any {
	t.Helper()
	var v map[string]any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("decode %q: %v", s, err)
	}
	return v
}
