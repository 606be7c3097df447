package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/x2conn/internal/cli/output"
	"github.com/yndnr/x2conn/internal/config"
)

// ConfigCommand returns the config command group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Client configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the effective configuration with secrets masked",
				Action: runConfigShow,
			},
			{
				Name:   "validate",
				Usage:  "Check the configuration",
				Action: runConfigValidate,
			},
		},
	}
}

func runConfigShow(c *cli.Context) error {
	cfg := config.Sanitize(GetConfig(c))
	format := outputFormat(c)
	if format == output.FormatTable {
		format = output.FormatYAML
	}
	return output.Write(c.App.Writer, format, cfg)
}

// runConfigValidate reports success; loading and verification already
// happened in the Before hook, which fails the command on error.
func runConfigValidate(c *cli.Context) error {
	file := getConfigFile(c)
	if file == "" {
		file = "defaults"
	}
	fmt.Fprintf(c.App.Writer, "Configuration OK (%s)\n", file)
	return nil
}
