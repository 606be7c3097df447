package command

import (
	"strings"
	"testing"
)

func TestConfigShow_MasksSecrets(t *testing.T) {
	env := newTestEnvWith(t, newX2Server(t), envConfig{Storage: []string{"encryption_key: supersecretkey"}})
	out := env.mustRun("--header", "Authorization: Basic abcdef", "config", "show")

	if strings.Contains(out, "supersecretkey") {
		t.Error("encryption key printed in clear")
	}
	if strings.Contains(out, "abcdef") {
		t.Error("authorization header printed in clear")
	}
	if !strings.Contains(out, "base_url: "+env.server.URL) {
		t.Errorf("base_url missing from:\n%s", out)
	}
}

func TestConfigValidate(t *testing.T) {
	env := newTestEnv(t, newX2Server(t), "")
	if out := env.mustRun("config", "validate"); !strings.Contains(out, env.config) {
		t.Errorf("validate output %q does not name the file", out)
	}

	tests := []struct {
		name  string
		extra string
		want  string
	}{
		{name: "log level", extra: "", want: "log.level"},
		{name: "output", extra: "output: xml\n", want: "output"},
		{name: "renew margin", extra: "session:\n  token_duration: 1m\n  renew_margin: 2m\n", want: "renew_margin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, newX2Server(t), tt.extra)
			args := []string{"config", "validate"}
			if tt.name == "log level" {
				args = append([]string{"--log-level", "loud"}, args...)
			}
			res := env.run("", args...)
			if res.err == nil || !strings.Contains(res.err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %s", res.err, tt.want)
			}
		})
	}
}

func TestConfig_MissingExplicitFile(t *testing.T) {
	res := runApp("", "--config", "/nonexistent/x2conn.yaml", "status")
	if res.err == nil {
		t.Fatal("expected error for missing config file")
	}
}
