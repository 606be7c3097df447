package command

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"
)

// PasswordCommand returns the password command group.
func PasswordCommand() *cli.Command {
	return &cli.Command{
		Name:  "password",
		Usage: "Password reset and update",
		Subcommands: []*cli.Command{
			passwordSendResetCommand(),
			passwordResetCommand(),
			passwordUpdateCommand(),
		},
	}
}

func passwordSendResetCommand() *cli.Command {
	return &cli.Command{
		Name:      "send-reset",
		Usage:     "Ask the API to mail a reset link",
		ArgsUsage: "EMAIL",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "application",
				Aliases:  []string{"a"},
				Usage:    "Application named in the reset mail",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			email := c.Args().First()
			if email == "" {
				return errors.New("email is required")
			}

			sess, err := openSession(c, nil)
			if err != nil {
				return err
			}
			defer sess.Close(c.Context)

			if err := sess.mgr.SendPasswordReset(c.Context, email, c.String("application")); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "Reset mail requested for %s\n", email)
			return nil
		},
	}
}

func passwordResetCommand() *cli.Command {
	return &cli.Command{
		Name:      "reset",
		Usage:     "Set a new password with a reset token",
		ArgsUsage: "RESET_TOKEN",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "new-password",
				Usage:   "New password",
				EnvVars: []string{"X2CONN_NEW_PASSWORD"},
			},
		},
		Action: func(c *cli.Context) error {
			resetToken := c.Args().First()
			if resetToken == "" {
				return errors.New("reset token is required")
			}
			newPassword, err := secretFlag(c, "new-password")
			if err != nil {
				return err
			}

			sess, err := openSession(c, nil)
			if err != nil {
				return err
			}
			defer sess.Close(c.Context)

			if err := sess.mgr.ResetPassword(c.Context, newPassword, resetToken); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "Password reset")
			return nil
		},
	}
}

func passwordUpdateCommand() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Change the password of the logged in account",
		ArgsUsage: "EMAIL",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "current-password",
				Usage:   "Current password",
				EnvVars: []string{"X2CONN_PASSWORD"},
			},
			&cli.StringFlag{
				Name:    "new-password",
				Usage:   "New password",
				EnvVars: []string{"X2CONN_NEW_PASSWORD"},
			},
		},
		Action: func(c *cli.Context) error {
			email := c.Args().First()
			if email == "" {
				return errors.New("email is required")
			}
			current, err := secretFlag(c, "current-password")
			if err != nil {
				return err
			}
			newPassword, err := secretFlag(c, "new-password")
			if err != nil {
				return err
			}

			sess, err := openSession(c, nil)
			if err != nil {
				return err
			}
			defer sess.Close(c.Context)

			if err := sess.mgr.UpdatePassword(c.Context, email, current, newPassword); err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "Password updated")
			return nil
		},
	}
}

func secretFlag(c *cli.Context, name string) (string, error) {
	v := c.String(name)
	if v == "" {
		return "", fmt.Errorf("--%s is required", name)
	}
	return v, nil
}
