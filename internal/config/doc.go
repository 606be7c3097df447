// Package config defines the x2conn client configuration.
//
//   - spec.go: configuration structure (koanf tags)
//   - default.go: default values and paths
//   - load.go: file + environment loading through confloader
//   - verify.go: validation
//   - sanitize.go: secret masking for display
package config
