package main

import (
	"os"

	"github.com/yndnr/x2conn/internal/cli/command"
	"github.com/yndnr/x2conn/internal/core/domain"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		command.PrintError("%v", err)
		os.Exit(exitCode(err))
	}
}

// exitCode distinguishes authentication failures so scripts can re-login.
func exitCode(err error) int {
	switch {
	case domain.IsAuthError(err):
		return 3
	case domain.IsRenewalFailure(err):
		return 4
	case domain.IsConfigError(err):
		return 2
	default:
		return 1
	}
}
