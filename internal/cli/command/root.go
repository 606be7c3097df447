package command

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/x2conn/internal/cli/output"
	"github.com/yndnr/x2conn/internal/config"
	"github.com/yndnr/x2conn/internal/core/service"
	"github.com/yndnr/x2conn/internal/infra/buildinfo"
	"github.com/yndnr/x2conn/internal/infra/tlsroots"
	"github.com/yndnr/x2conn/internal/storage"
	"github.com/yndnr/x2conn/internal/telemetry/logger"
	"github.com/yndnr/x2conn/internal/telemetry/metric"
)

// Metadata keys set by the Before hook.
const (
	metaConfig     = "config"
	metaConfigFile = "configFile"
	metaLogger     = "logger"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:     "x2conn",
		Usage:    "Session client for the X2 API",
		Version:  buildinfo.String(),
		Flags:    globalFlags(),
		Metadata: map[string]any{},
		Commands: []*cli.Command{
			InitCommand(),
			LoginCommand(),
			LogoutCommand(),
			WhoamiCommand(),
			StatusCommand(),
			PasswordCommand(),
			RequestCommand(),
			TokenCommand(),
			KeepaliveCommand(),
			ConfigCommand(),
			ShellCommand(),
		},
		Before: setup,
	}
}

// globalFlags returns the global CLI flags. Flags override the config file,
// which overrides the X2CONN_* environment defaults.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Client config file (default ~/.x2conn/config.yaml)",
			EnvVars: []string{"X2CONN_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "base-url",
			Aliases: []string{"s"},
			Usage:   "X2 API base URL",
		},
		&cli.StringFlag{
			Name:  "config-url",
			Usage: "URL of the remote environment document",
		},
		&cli.StringFlag{
			Name:    "environment",
			Aliases: []string{"e"},
			Usage:   "Environment tag when no remote document is used (DEV, STAGING, PROD)",
		},
		&cli.StringSliceFlag{
			Name:    "header",
			Aliases: []string{"H"},
			Usage:   "Extra header for every request, as 'Name: value'",
		},
		&cli.StringFlag{
			Name:  "store",
			Usage: "Token store backend: memory, badger, redis",
		},
		&cli.StringFlag{
			Name:  "store-dir",
			Usage: "Directory of the badger token store",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
	}
}

// GlobalFlags holds the parsed global flags.
type GlobalFlags struct {
	Config      string
	BaseURL     string
	ConfigURL   string
	Environment string
	Headers     []string
	Store       string
	StoreDir    string
	Output      string
	LogLevel    string
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Config:      c.String("config"),
		BaseURL:     c.String("base-url"),
		ConfigURL:   c.String("config-url"),
		Environment: c.String("environment"),
		Headers:     c.StringSlice("header"),
		Store:       c.String("store"),
		StoreDir:    c.String("store-dir"),
		Output:      c.String("output"),
		LogLevel:    c.String("log-level"),
	}
}

// apply overlays the flags that were given on cfg.
func (f *GlobalFlags) apply(cfg *config.ClientConfig) error {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.API.BaseURL, f.BaseURL)
	set(&cfg.API.ConfigPath, f.ConfigURL)
	set(&cfg.API.Environment, f.Environment)
	set(&cfg.Storage.Backend, f.Store)
	set(&cfg.Storage.Dir, f.StoreDir)
	set(&cfg.Output, f.Output)
	set(&cfg.Log.Level, f.LogLevel)

	for _, h := range f.Headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			name, value, ok = strings.Cut(h, "=")
		}
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return fmt.Errorf("invalid header %q, want 'Name: value'", h)
		}
		if cfg.API.Headers == nil {
			cfg.API.Headers = make(map[string]string)
		}
		cfg.API.Headers[name] = strings.TrimSpace(value)
	}
	return nil
}

// setup loads and verifies the configuration and builds the logger.
func setup(c *cli.Context) error {
	flags := ParseGlobalFlags(c)

	cfg, err := config.Load(flags.Config)
	if err != nil {
		return err
	}
	if err := flags.apply(cfg); err != nil {
		return err
	}
	if err := config.Verify(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	logger.SetDefault(log)

	c.App.Metadata[metaConfig] = cfg
	c.App.Metadata[metaConfigFile] = configFile(flags.Config)
	c.App.Metadata[metaLogger] = log
	return nil
}

// configFile returns the file the configuration came from, or "".
func configFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	path := config.DefaultConfigPath()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return ""
	}
	return path
}

// GetConfig retrieves the loaded configuration from context.
func GetConfig(c *cli.Context) *config.ClientConfig {
	if cfg, ok := c.App.Metadata[metaConfig].(*config.ClientConfig); ok {
		return cfg
	}
	return config.Default()
}

// GetLogger retrieves the logger from context.
func GetLogger(c *cli.Context) logger.Logger {
	if l, ok := c.App.Metadata[metaLogger].(logger.Logger); ok {
		return l
	}
	return logger.Default()
}

func getConfigFile(c *cli.Context) string {
	s, _ := c.App.Metadata[metaConfigFile].(string)
	return s
}

// session is one initialised manager over the configured token store.
type session struct {
	cfg    *config.ClientConfig
	mgr    *service.Manager
	store  *storage.Opened
	certs  *tlsroots.Watcher
	result *service.InitResult
}

// openSession opens the token store and initialises a manager, restoring
// a stored token if there is one.
func openSession(c *cli.Context, metrics *metric.Registry) (*session, error) {
	cfg := GetConfig(c)
	log := GetLogger(c)

	opts := managerOptions(cfg, nil, log, metrics)
	var certs *tlsroots.Watcher
	if tlsOpts := cfg.TLSOptions(); !tlsOpts.IsZero() {
		tlsCfg, w, err := tlsroots.NewClientConfig(tlsOpts, logger.Slog(log))
		if err != nil {
			return nil, fmt.Errorf("api tls: %w", err)
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = tlsCfg
		opts.HTTPClient = &http.Client{Timeout: cfg.API.Timeout, Transport: transport}
		if w != nil {
			w.StartAsync()
			certs = w
		}
	}
	stopCerts := func() {
		if certs != nil {
			certs.Stop()
		}
	}

	store, err := storage.Open(cfg.StorageConfig(), logger.Slog(log))
	if err != nil {
		stopCerts()
		return nil, fmt.Errorf("open token store: %w", err)
	}
	opts.Store = store

	mgr, err := service.NewManager(opts)
	if err != nil {
		stopCerts()
		_ = store.Close()
		return nil, err
	}

	result, err := mgr.Init(c.Context, initConfig(cfg))
	if err != nil {
		stopCerts()
		_ = mgr.Close(c.Context)
		_ = store.Close()
		return nil, err
	}

	return &session{cfg: cfg, mgr: mgr, store: store, certs: certs, result: result}, nil
}

// Close stops the manager and releases the store. The token stays stored.
func (s *session) Close(ctx context.Context) error {
	if s.certs != nil {
		s.certs.Stop()
	}
	mgrErr := s.mgr.Close(ctx)
	if err := s.store.Close(); err != nil {
		return err
	}
	return mgrErr
}

func managerOptions(cfg *config.ClientConfig, store storage.TokenStore, log logger.Logger, metrics *metric.Registry) service.Options {
	return service.Options{
		Store:                   store,
		Logger:                  log,
		Metrics:                 metrics,
		Timeout:                 cfg.API.Timeout,
		TokenDuration:           cfg.Session.TokenDuration,
		RenewMargin:             cfg.Session.RenewMargin,
		InactivityCheckInterval: cfg.Session.InactivityCheckInterval,
		InactivityTimeout:       cfg.Session.InactivityTimeout,
		RenewPath:               cfg.API.RenewPath,
		RequestsPerSecond:       cfg.API.RequestsPerSecond,
	}
}

// initConfig maps the api section onto the manager's configuration
// sources. Without a base URL or headers only the remote document is used.
func initConfig(cfg *config.ClientConfig) service.InitConfig {
	ic := service.InitConfig{ConfigPath: cfg.API.ConfigPath}
	if cfg.API.BaseURL != "" || len(cfg.API.Headers) > 0 || cfg.API.ConfigPath == "" && cfg.API.Environment != "" {
		ic.HTTP = &service.HTTPConfig{
			BaseURL:     cfg.API.BaseURL,
			Headers:     cfg.API.Headers,
			Environment: cfg.API.Environment,
		}
	}
	return ic
}

// outputFormat returns the configured output format.
func outputFormat(c *cli.Context) output.Format {
	f, err := output.ParseFormat(GetConfig(c).Output)
	if err != nil {
		return output.FormatTable
	}
	return f
}

// render writes data to stdout in the configured format.
func render(c *cli.Context, data any) error {
	return output.Write(c.App.Writer, outputFormat(c), data)
}

// progress starts a spinner on stderr when it is a terminal and returns
// nil otherwise. All Spinner methods are no-ops on nil.
func progress(c *cli.Context, message string) *spinner {
	f, ok := c.App.ErrWriter.(*os.File)
	if !ok {
		return nil
	}
	info, err := f.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice == 0 {
		return nil
	}
	s := output.NewSpinner(f, message)
	s.Start()
	return &spinner{s}
}

type spinner struct{ s *output.Spinner }

func (p *spinner) done(err error, success string) {
	if p == nil {
		return
	}
	if err != nil {
		p.s.Fail(err.Error())
		return
	}
	p.s.Success(success)
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
