package tlsroots

import (
	"crypto/tls"
	"errors"
	"log/slog"
)

// Options describes the client side of the API connection.
type Options struct {
	// CAFile and CADir add trusted roots on top of the system pool.
	CAFile string
	CADir  string

	// CertFile and KeyFile enable a client certificate. Both or neither.
	CertFile string
	KeyFile  string

	// ServerName overrides the name checked against the server certificate.
	ServerName string

	// InsecureSkipVerify disables server certificate checks.
	InsecureSkipVerify bool
}

// IsZero reports whether o leaves the default TLS behavior unchanged.
func (o Options) IsZero() bool {
	return o == Options{}
}

// Validate checks that the certificate and key are given together.
func (o Options) Validate() error {
	if (o.CertFile == "") != (o.KeyFile == "") {
		return errors.New("tlsroots: cert_file and key_file must be set together")
	}
	return nil
}

// NewClientConfig builds a client tls.Config. The returned Watcher is nil
// without a client certificate; otherwise the caller starts and stops it.
func NewClientConfig(o Options, logger *slog.Logger) (*tls.Config, *Watcher, error) {
	if err := o.Validate(); err != nil {
		return nil, nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ServerName:         o.ServerName,
		InsecureSkipVerify: o.InsecureSkipVerify,
	}

	if o.CAFile != "" || o.CADir != "" {
		pool := NewPool()
		if o.CAFile != "" {
			if err := pool.AddCertFile(o.CAFile); err != nil {
				return nil, nil, err
			}
		}
		if o.CADir != "" {
			if err := pool.AddCertDir(o.CADir, logger); err != nil {
				return nil, nil, err
			}
		}
		cfg.RootCAs = pool.Pool()
	}

	if o.CertFile == "" {
		return cfg, nil, nil
	}

	w, err := NewWatcher(o.CertFile, o.KeyFile, WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	cfg.GetClientCertificate = w.GetClientCertificate
	return cfg, w, nil
}
