// Package repl provides the interactive shell for x2conn.
//
//   - repl.go: read loop, line splitting and dispatch
//   - completer.go: command name suggestions
//   - history.go: history persistence in ~/.x2conn/history
//
// The REPL knows nothing about sessions; the caller supplies an Executor
// and an optional OnLine hook run before every non-empty line.
package repl
