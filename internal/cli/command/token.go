package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/x2conn/internal/storage"
	"github.com/yndnr/x2conn/internal/telemetry/logger"
	"github.com/yndnr/x2conn/pkg/token"
)

// TokenCommand returns the token command group.
func TokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Inspect session tokens",
		Subcommands: []*cli.Command{
			{
				Name:      "inspect",
				Usage:     "Decode a token without verifying it",
				ArgsUsage: "[TOKEN]",
				Description: "Without an argument the stored session token is inspected.\n" +
					"Signatures are not checked; the output is informational only.",
				Action: runTokenInspect,
			},
		},
	}
}

func runTokenInspect(c *cli.Context) error {
	raw := strings.TrimSpace(c.Args().First())
	if raw == "" {
		stored, err := storedToken(c)
		if err != nil {
			return err
		}
		raw = stored
	}

	info, err := token.Inspect(raw)
	if err != nil {
		return err
	}
	return render(c, info)
}

// storedToken reads the token store directly, without contacting the API.
func storedToken(c *cli.Context) (string, error) {
	cfg := GetConfig(c)
	store, err := storage.Open(cfg.StorageConfig(), logger.Slog(GetLogger(c)))
	if err != nil {
		return "", fmt.Errorf("open token store: %w", err)
	}
	defer store.Close()

	tok, ok, err := store.Get(c.Context)
	if err != nil {
		return "", fmt.Errorf("read token store: %w", err)
	}
	if !ok || tok == "" {
		return "", errors.New("no stored token: log in first or pass a token")
	}
	return tok, nil
}
