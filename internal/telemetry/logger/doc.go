// Package logger provides structured logging for x2conn.
//
// It wraps log/slog:
//
//   - logger.go: Logger interface, configuration and the global level
//   - context.go: context-carried loggers with request ID and operation
//   - redact.go: masking of bearer tokens, JWTs and credential fields
//
// Every handler created by New runs attributes through the redactor, so a
// session token can be passed as a log value without leaking.
package logger
