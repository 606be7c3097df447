package command

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/x2conn/internal/cli/repl"
	"github.com/yndnr/x2conn/internal/config"
	"github.com/yndnr/x2conn/internal/connection"
	"github.com/yndnr/x2conn/internal/core/domain"
)

// shellCommands are the commands the shell understands, for help and
// completion.
var shellCommands = []string{
	"login", "logout", "whoami", "status", "env",
	"get", "post", "put", "delete",
}

// ShellCommand runs an interactive shell over one live session. The
// session is renewed in the background while the shell is open and every
// entered line counts as user activity.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Interactive shell over a live session",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "watch-inactivity",
				Usage: "Log out when no line was entered between renewals",
			},
			&cli.StringFlag{
				Name:  "history-file",
				Usage: "History file (default ~/.x2conn/history)",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not read or write history",
			},
		},
		Action: runShell,
	}
}

func runShell(c *cli.Context) error {
	sess, err := openSession(c, nil)
	if err != nil {
		return err
	}
	defer sess.Close(c.Context)

	log := GetLogger(c)
	sess.mgr.Subscribe(domain.EventLogout, func(ev domain.Event) {
		if p, ok := ev.Payload.(domain.LogoutEvent); ok && p.Reason != domain.LogoutRequested {
			fmt.Fprintf(c.App.ErrWriter, "\nsession ended: %s\n", p.Reason)
		}
	})
	if c.Bool("watch-inactivity") || sess.cfg.Session.WatchInactivity {
		sess.mgr.WatchForInactivity()
	}

	historyFile := ""
	if !c.Bool("no-history") {
		historyFile = c.String("history-file")
		if historyFile == "" {
			historyFile = filepath.Join(config.HomeDir(), "history")
		}
	}
	history := repl.NewHistory(historyFile)
	if err := history.Load(); err != nil {
		log.Warn("history not loaded", "error", err)
	}

	sh := &shell{c: c, sess: sess}
	r := repl.New(repl.Config{
		Input:     c.App.Reader,
		Output:    c.App.Writer,
		Executor:  sh.exec,
		Completer: repl.NewCompleter(shellCommands),
		History:   history,
		OnLine:    sess.mgr.RecordActivity,
	})

	runErr := r.Run(c.Context)
	if err := history.Save(); err != nil {
		log.Warn("history not saved", "error", err)
	}
	return runErr
}

type shell struct {
	c    *cli.Context
	sess *session
}

func (s *shell) exec(ctx context.Context, args []string) error {
	mgr := s.sess.mgr

	switch cmd := args[0]; cmd {
	case "login":
		if len(args) != 3 {
			return errors.New("usage: login USERNAME PASSWORD")
		}
		result, err := mgr.Login(ctx, args[1], args[2])
		if err != nil {
			return err
		}
		return render(s.c, loginView{Username: result.Username, ExpiresAt: result.ExpiresAt})
	case "logout":
		return mgr.Logout(ctx)
	case "whoami":
		user, err := mgr.GetSession(ctx)
		if err != nil {
			return err
		}
		return render(s.c, map[string]any(user))
	case "status":
		return render(s.c, s.sess.statusView())
	case "env":
		return render(s.c, s.sess.envView())
	case "get", "post", "put", "delete":
		return s.request(ctx, strings.ToUpper(cmd), args[1:])
	default:
		return fmt.Errorf("unknown command %q, try help", cmd)
	}
}

func (s *shell) request(ctx context.Context, method string, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return fmt.Errorf("usage: %s PATH [JSON]", strings.ToLower(method))
	}

	var opts []connection.RequestOption
	if len(args) == 2 {
		if method == http.MethodGet || method == http.MethodDelete {
			return fmt.Errorf("%s takes no body", strings.ToLower(method))
		}
		opts = append(opts, connection.WithBody([]byte(args[1]), "application/json"))
	}

	mgr := s.sess.mgr
	var (
		resp *connection.Response
		err  error
	)
	switch method {
	case http.MethodGet:
		resp, err = mgr.Get(ctx, args[0], opts...)
	case http.MethodPost:
		resp, err = mgr.Post(ctx, args[0], opts...)
	case http.MethodPut:
		resp, err = mgr.Put(ctx, args[0], opts...)
	case http.MethodDelete:
		resp, err = mgr.Delete(ctx, args[0], opts...)
	}
	if err != nil {
		return err
	}
	return writeBody(s.c, resp.Body)
}
