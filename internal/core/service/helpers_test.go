package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/x2conn/internal/core/domain"
	"github.com/yndnr/x2conn/internal/infra/clock"
	"github.com/yndnr/x2conn/internal/storage/memory"
	"github.com/yndnr/x2conn/internal/telemetry/logger"
)

var testStart = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type apiCall struct {
	Method string
	Path   string
	Auth   string
	Header http.Header
	Body   map[string]any
}

// fakeAPI is a scripted X2 API.
type fakeAPI struct {
	loginStatus  int
	token        string
	renewStatus  int
	renewToken   string
	userStatus   int
	config       map[string]any
	configStatus int

	// renewGate, when set, holds renewal responses until closed.
	// renewStarted receives a value when a renewal request arrives.
	renewGate    chan struct{}
	renewStarted chan struct{}

	// userGate and userStarted do the same for the current-user route.
	userGate    chan struct{}
	userStarted chan struct{}

	mu    sync.Mutex
	calls []apiCall
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		loginStatus:  http.StatusOK,
		token:        "1234",
		renewStatus:  http.StatusOK,
		userStatus:   http.StatusOK,
		configStatus: http.StatusOK,
		renewStarted: make(chan struct{}, 1),
	}
}

func (a *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	call := apiCall{
		Method: r.Method,
		Path:   r.URL.Path,
		Auth:   r.Header.Get("Authorization"),
		Header: r.Header.Clone(),
	}
	_ = json.NewDecoder(r.Body).Decode(&call.Body)

	a.mu.Lock()
	a.calls = append(a.calls, call)
	a.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == PathToken:
		if a.loginStatus != http.StatusOK {
			writeJSON(w, a.loginStatus, map[string]any{"code": "invalid_credentials", "message": "bad username or password"})
			return
		}
		if a.token == "" {
			writeJSON(w, http.StatusOK, map[string]any{})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"token": a.token})

	case r.Method == http.MethodPost && r.URL.Path == DefaultRenewPath:
		select {
		case a.renewStarted <- struct{}{}:
		default:
		}
		if a.renewGate != nil {
			<-a.renewGate
		}
		if a.renewStatus >= 300 {
			w.WriteHeader(a.renewStatus)
			return
		}
		if a.renewToken != "" {
			writeJSON(w, a.renewStatus, map[string]any{"token": a.renewToken})
			return
		}
		w.WriteHeader(a.renewStatus)

	case r.Method == http.MethodGet && r.URL.Path == PathCurrentUser:
		select {
		case a.userStarted <- struct{}{}:
		default:
		}
		if a.userGate != nil {
			<-a.userGate
		}
		if a.userStatus != http.StatusOK {
			w.WriteHeader(a.userStatus)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"_id": 1234, "account": 1234})

	case strings.HasPrefix(r.URL.Path, PathSendPasswordReset),
		strings.HasPrefix(r.URL.Path, PathResetPassword),
		strings.HasPrefix(r.URL.Path, PathUpdatePassword):
		w.WriteHeader(http.StatusNoContent)

	case r.URL.Path == "/config.json":
		if a.configStatus != http.StatusOK {
			w.WriteHeader(a.configStatus)
			return
		}
		writeJSON(w, http.StatusOK, a.config)

	case r.URL.Path == "/items/1":
		writeJSON(w, http.StatusOK, map[string]any{"id": 1})

	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"code": "not_found", "message": "no such route"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *fakeAPI) callsTo(path string) []apiCall {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []apiCall
	for _, c := range a.calls {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func (a *fakeAPI) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

type testEnv struct {
	api    *fakeAPI
	server *httptest.Server
	clock  *clock.Fake
	store  *memory.TokenStore
	mgr    *Manager
	events *eventLog
}

// newTestEnv starts a fake API and a manager that is not yet initialised.
func newTestEnv(t *testing.T, api *fakeAPI, opts Options) *testEnv {
	t.Helper()

	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	clk := clock.NewFake(testStart)
	store, _ := opts.Store.(*memory.TokenStore)
	if store == nil {
		store = memory.NewTokenStore()
		opts.Store = store
	}
	opts.Clock = clk
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	m, err := NewManager(opts)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	t.Cleanup(func() { _ = m.Close(context.Background()) })

	return &testEnv{
		api:    api,
		server: server,
		clock:  clk,
		store:  store,
		mgr:    m,
		events: recordEvents(m),
	}
}

// newInitializedEnv returns an environment initialised against the fake API.
func newInitializedEnv(t *testing.T, api *fakeAPI, opts Options) *testEnv {
	t.Helper()

	env := newTestEnv(t, api, opts)
	if _, err := env.mgr.Init(context.Background(), InitConfig{HTTP: &HTTPConfig{BaseURL: env.server.URL}}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return env
}

func (e *testEnv) login(t *testing.T) *LoginResult {
	t.Helper()

	res, err := e.mgr.Login(context.Background(), "user", "password")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	return res
}

func (e *testEnv) storedToken(t *testing.T) (string, bool) {
	t.Helper()

	token, ok, err := e.store.Get(context.Background())
	if err != nil {
		t.Fatalf("store.Get() error = %v", err)
	}
	return token, ok
}

type eventLog struct {
	mu     sync.Mutex
	events []domain.Event
}

func recordEvents(m *Manager) *eventLog {
	l := &eventLog{}
	for _, name := range []domain.EventName{domain.EventLogin, domain.EventLogout, domain.EventRenew, domain.EventInactivity} {
		m.Subscribe(name, func(ev domain.Event) {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.events = append(l.events, ev)
		})
	}
	return l
}

func (l *eventLog) names() []domain.EventName {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.EventName, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.Name
	}
	return out
}

func (l *eventLog) last(name domain.EventName) (domain.Event, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := len(l.events) - 1; i >= 0; i-- {
		if l.events[i].Name == name {
			return l.events[i], true
		}
	}
	return domain.Event{}, false
}

func equalNames(got []domain.EventName, want ...domain.EventName) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()

	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}
