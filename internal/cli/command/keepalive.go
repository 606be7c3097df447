package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/x2conn/internal/config"
	"github.com/yndnr/x2conn/internal/core/domain"
	"github.com/yndnr/x2conn/internal/infra/confloader"
	"github.com/yndnr/x2conn/internal/infra/shutdown"
	"github.com/yndnr/x2conn/internal/storage"
	"github.com/yndnr/x2conn/internal/telemetry/logger"
	"github.com/yndnr/x2conn/internal/telemetry/metric"
)

const shutdownTimeout = 10 * time.Second

// KeepaliveCommand keeps the stored session renewed until it ends or the
// process is signalled.
func KeepaliveCommand() *cli.Command {
	return &cli.Command{
		Name:  "keepalive",
		Usage: "Keep the stored session renewed",
		Description: "Renews the session ahead of token expiry until logout, renewal failure,\n" +
			"inactivity or SIGINT/SIGTERM. With --activity-stdin every input line\n" +
			"counts as user activity.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "watch-inactivity",
				Usage: "Log out when no activity was seen between renewals",
			},
			&cli.BoolFlag{
				Name:  "activity-stdin",
				Usage: "Record activity for every line read from stdin",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address",
			},
		},
		Action: runKeepalive,
	}
}

func runKeepalive(c *cli.Context) error {
	cfg := GetConfig(c)
	log := GetLogger(c)
	metrics := metric.NewRegistry(nil)

	sess, err := openSession(c, metrics)
	if err != nil {
		return err
	}
	if !sess.mgr.IsAuthenticated() {
		_ = sess.Close(c.Context)
		return domain.ErrUnauthenticated.WithDetails("no stored session, log in first")
	}

	if b, ok := sess.store.TokenStore.(*storage.BadgerTokenStore); ok {
		b.RegisterMetrics(metrics.Registerer())
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	handler := shutdown.NewHandler(shutdownTimeout)
	handler.OnShutdown(func(ctx context.Context) error {
		return sess.Close(ctx)
	})

	var (
		mu     sync.Mutex
		reason domain.LogoutReason
	)
	unsubscribe := sess.mgr.Subscribe(domain.EventLogout, func(ev domain.Event) {
		if p, ok := ev.Payload.(domain.LogoutEvent); ok {
			mu.Lock()
			reason = p.Reason
			mu.Unlock()
		}
		cancel()
	})
	handler.OnShutdown(func(context.Context) error {
		unsubscribe()
		return nil
	})
	sess.mgr.Subscribe(domain.EventRenew, func(ev domain.Event) {
		if p, ok := ev.Payload.(domain.RenewEvent); ok {
			log.Info("session renewed", "expires_at", p.ExpiresAt, "rotated", p.Rotated)
		}
	})

	if c.Bool("watch-inactivity") || cfg.Session.WatchInactivity {
		sess.mgr.WatchForInactivity()
	}
	if c.Bool("activity-stdin") {
		go recordActivity(c.App.Reader, sess.mgr.RecordActivity)
	}

	addr := c.String("metrics-addr")
	if addr == "" {
		addr = cfg.Metrics.Addr
	}
	if addr != "" {
		srv, err := serveMetrics(addr, metrics, log)
		if err != nil {
			unsubscribe()
			_ = sess.Close(c.Context)
			return err
		}
		handler.OnShutdown(srv.Shutdown)
	}

	if file := getConfigFile(c); file != "" {
		stop, err := watchLogLevel(file, log)
		if err != nil {
			log.Warn("config watch disabled", "error", err)
		} else {
			handler.OnShutdown(func(context.Context) error { return stop() })
		}
	}

	log.Info("keepalive started",
		"environment", sess.mgr.Environment(),
		"user", sess.mgr.Username(),
		"expires_at", sess.mgr.Session().ExpiresAt)

	if err := handler.WaitContext(ctx); err != nil {
		log.Warn("shutdown", "error", err)
	}

	mu.Lock()
	defer mu.Unlock()
	switch reason {
	case "":
		fmt.Fprintln(c.App.Writer, "Stopped; session kept")
		return nil
	case domain.LogoutRenewalFailed, domain.LogoutTokenRejected:
		return domain.ErrRenewalFailed.WithDetails(fmt.Sprintf("session ended: %s", reason))
	default:
		fmt.Fprintf(c.App.Writer, "Session ended: %s\n", reason)
		return nil
	}
}

// recordActivity calls record for every line of r until EOF.
func recordActivity(r io.Reader, record func()) {
	if r == nil {
		return
	}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		record()
	}
}

func serveMetrics(addr string, metrics *metric.Registry, log logger.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", "error", err)
		}
	}()
	log.Info("serving metrics", "addr", ln.Addr().String())
	return srv, nil
}

// watchLogLevel applies log level changes in file without a restart.
func watchLogLevel(file string, log logger.Logger) (stop func() error, err error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(logger.Slog(log)))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(file); err != nil {
		_ = w.Stop()
		return nil, err
	}

	w.OnChange(func(path string) {
		cfg, err := config.Load(path)
		if err != nil {
			log.Warn("config reload failed", "path", path, "error", err)
			return
		}
		if !logger.ValidLevel(cfg.Log.Level) {
			log.Warn("config reload: invalid log level", "level", cfg.Log.Level)
			return
		}
		logger.SetLevel(cfg.Log.Level)
		log.Info("log level reloaded", "level", cfg.Log.Level)
	})
	w.StartAsync()
	return w.Stop, nil
}
