// Package command defines the x2conn CLI on urfave/cli/v2.
//
//   - root.go: application, global flags, configuration bootstrap
//   - session.go: init, login, logout, whoami, status
//   - password.go: password reset and update
//   - request.go: authenticated request get|post|put|delete
//   - token.go: offline token inspection
//   - keepalive.go: daemon keeping the stored session renewed
//   - config.go: show and validate the client configuration
//   - shell.go: interactive shell over one live session
//
// Every command loads the configuration, opens the token store, and runs
// one service.Manager for its duration. The token store is what carries a
// session from one invocation to the next.
package command
