package command

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/x2conn/internal/core/domain"
	"github.com/yndnr/x2conn/pkg/token"
)

// InitCommand resolves and prints the environment configuration.
func InitCommand() *cli.Command {
	return &cli.Command{
		Name:    "init",
		Aliases: []string{"env"},
		Usage:   "Resolve the environment configuration",
		Action:  runInit,
	}
}

// envView is the printed form of a resolved environment.
type envView struct {
	BaseURL     string             `json:"base_url" yaml:"base_url"`
	Environment domain.Environment `json:"environment" yaml:"environment"`
	Prod        bool               `json:"prod" yaml:"prod"`
	Headers     map[string]string  `json:"headers,omitempty" yaml:"headers,omitempty"`
	Extra       map[string]any     `json:"extra,omitempty" yaml:"extra,omitempty"`
	Restored    bool               `json:"session_restored" yaml:"session_restored"`
}

func runInit(c *cli.Context) error {
	sess, err := openSession(c, nil)
	if err != nil {
		return err
	}
	defer sess.Close(c.Context)

	return render(c, sess.envView())
}

func (s *session) envView() envView {
	env := s.mgr.EnvironmentConfig()
	return envView{
		BaseURL:     env.BaseURL,
		Environment: env.Environment,
		Prod:        s.mgr.IsProd(),
		Headers:     maskHeaders(env.Headers),
		Extra:       env.Extra,
		Restored:    s.result.Restored,
	}
}

// LoginCommand exchanges credentials for a token and stores it.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in and store the session token",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "username",
				Aliases:  []string{"u"},
				Usage:    "Account name",
				EnvVars:  []string{"X2CONN_USERNAME"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "password",
				Aliases: []string{"p"},
				Usage:   "Password (prefer --password-stdin)",
				EnvVars: []string{"X2CONN_PASSWORD"},
			},
			&cli.BoolFlag{
				Name:  "password-stdin",
				Usage: "Read the password from stdin",
			},
		},
		Action: runLogin,
	}
}

type loginView struct {
	Username  string    `json:"username" yaml:"username"`
	ExpiresAt time.Time `json:"expires_at" yaml:"expires_at"`
}

func runLogin(c *cli.Context) error {
	password := c.String("password")
	if c.Bool("password-stdin") {
		p, err := readSecret(c.App.Reader)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		password = p
	}
	if password == "" {
		return errors.New("password is required: use --password, --password-stdin or X2CONN_PASSWORD")
	}

	sess, err := openSession(c, nil)
	if err != nil {
		return err
	}
	defer sess.Close(c.Context)

	spin := progress(c, "Logging in...")
	result, err := sess.mgr.Login(c.Context, c.String("username"), password)
	spin.done(err, "Logged in")
	if err != nil {
		return err
	}
	return render(c, loginView{Username: result.Username, ExpiresAt: result.ExpiresAt})
}

// readSecret reads the first line of r.
func readSecret(r io.Reader) (string, error) {
	if r == nil {
		r = os.Stdin
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// LogoutCommand discards the stored session.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Discard the stored session",
		Action: runLogout,
	}
}

func runLogout(c *cli.Context) error {
	sess, err := openSession(c, nil)
	if err != nil {
		return err
	}
	defer sess.Close(c.Context)

	was := sess.mgr.IsAuthenticated()
	if err := sess.mgr.Logout(c.Context); err != nil {
		return err
	}
	if was {
		fmt.Fprintln(c.App.Writer, "Logged out")
	} else {
		fmt.Fprintln(c.App.Writer, "Not logged in")
	}
	return nil
}

// WhoamiCommand fetches the current user from the API.
func WhoamiCommand() *cli.Command {
	return &cli.Command{
		Name:   "whoami",
		Usage:  "Show the user behind the stored session",
		Action: runWhoami,
	}
}

func runWhoami(c *cli.Context) error {
	sess, err := openSession(c, nil)
	if err != nil {
		return err
	}
	defer sess.Close(c.Context)

	user, err := sess.mgr.GetSession(c.Context)
	if err != nil {
		return err
	}
	return render(c, map[string]any(user))
}

// StatusCommand reports the local session state without calling the API.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show the local session state",
		Action: runStatus,
	}
}

type statusView struct {
	Environment   domain.Environment `json:"environment" yaml:"environment"`
	BaseURL       string             `json:"base_url" yaml:"base_url"`
	Authenticated bool               `json:"authenticated" yaml:"authenticated"`
	ExpiresAt     time.Time          `json:"expires_at,omitzero" yaml:"expires_at,omitempty"`
	Fingerprint   string             `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	TokenFormat   string             `json:"token_format,omitempty" yaml:"token_format,omitempty"`
	Subject       string             `json:"subject,omitempty" yaml:"subject,omitempty"`
	TokenExpires  *time.Time         `json:"token_expires_at,omitempty" yaml:"token_expires_at,omitempty"`
	Store         string             `json:"store" yaml:"store"`
}

func runStatus(c *cli.Context) error {
	sess, err := openSession(c, nil)
	if err != nil {
		return err
	}
	defer sess.Close(c.Context)

	return render(c, sess.statusView())
}

func (s *session) statusView() statusView {
	env := s.mgr.EnvironmentConfig()
	view := statusView{
		Environment:   env.Environment,
		BaseURL:       env.BaseURL,
		Authenticated: s.mgr.IsAuthenticated(),
		Store:         s.cfg.Storage.Backend,
	}
	if view.Authenticated {
		view.ExpiresAt = s.mgr.Session().ExpiresAt
	}

	if tok := s.mgr.Session().Token; tok != "" {
		view.Fingerprint = token.Fingerprint(tok)
		if info, err := token.Inspect(tok); err == nil {
			view.TokenFormat = info.Format
			view.Subject = info.Subject
			view.TokenExpires = info.ExpiresAt
		}
	}
	return view
}

// maskHeaders hides values of credential-bearing headers.
func maskHeaders(h map[string]string) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		name := strings.ToLower(k)
		if name == "authorization" || strings.Contains(name, "key") || strings.Contains(name, "token") {
			v = "****"
		}
		out[k] = v
	}
	return out
}
