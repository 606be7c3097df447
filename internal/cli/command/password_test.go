package command

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/yndnr/x2conn/internal/core/domain"
)

func TestPassword(t *testing.T) {
	server := newX2Server(t)
	var mu sync.Mutex
	bodies := map[string]map[string]any{}
	body := func(path string) map[string]any {
		mu.Lock()
		defer mu.Unlock()
		return bodies[path]
	}
	server.handle("/user/", func(w http.ResponseWriter, r *http.Request) {
		var b map[string]any
		_ = json.NewDecoder(r.Body).Decode(&b)
		mu.Lock()
		bodies[r.URL.Path] = b
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	env := newTestEnv(t, server, "")

	env.mustRun("password", "send-reset", "-a", "portal", "a@b.com")
	if got := body("/user/send-password-reset/a@b.com"); got["application"] != "portal" {
		t.Errorf("send-reset body = %v", got)
	}

	env.mustRun("password", "reset", "--new-password", "n3w", "reset-tok")
	if got := body("/user/reset-password/reset-tok"); got["newPassword"] != "n3w" {
		t.Errorf("reset body = %v", got)
	}

	res := env.run("", "password", "update", "--current-password", "secret", "--new-password", "n3w", "a@b.com")
	if !domain.IsAuthError(res.err) {
		t.Fatalf("update without session: err = %v, want auth error", res.err)
	}

	env.mustRun("login", "-u", "user", "-p", "secret")
	env.mustRun("password", "update", "--current-password", "secret", "--new-password", "n3w", "a@b.com")
	got := body("/user/update-password/a@b.com")
	if got["currentPassword"] != "secret" || got["newPassword"] != "n3w" {
		t.Errorf("update body = %v", got)
	}
}

func TestPassword_MissingArguments(t *testing.T) {
	t.Setenv("X2CONN_NEW_PASSWORD", "")
	env := newTestEnv(t, newX2Server(t), "")

	for _, args := range [][]string{
		{"password", "send-reset", "-a", "portal"},
		{"password", "reset", "--new-password", "x"},
		{"password", "reset", "tok"},
	} {
		if res := env.run("", args...); res.err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}
