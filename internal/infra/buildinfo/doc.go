// Package buildinfo exposes build information for x2conn.
//
// Values are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/x2conn/internal/infra/buildinfo.Version=v1.0.0 \
//	  -X github.com/yndnr/x2conn/internal/infra/buildinfo.Commit=abc123"
//
// The version also forms the User-Agent sent with every API request.
package buildinfo
