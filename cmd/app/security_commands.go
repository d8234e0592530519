package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/keyfort/keyfort/cmd/app/commands"
	"github.com/keyfort/keyfort/internal/app"
	"github.com/keyfort/keyfort/internal/config"
)

func getSecurityCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "purge-sessions",
			Usage: "Delete sessions that fell outside the inactivity window",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				sessionUseCase, err := container.SessionUseCase()
				if err != nil {
					return err
				}

				return commands.RunPurgeSessions(
					ctx,
					sessionUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
				)
			},
		},
		{
			Name:  "unlock-account",
			Usage: "Clear a user's lockout state ahead of the lock deadline",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "user-id",
					Aliases:  []string{"u"},
					Required: true,
					Usage:    "User identifier to unlock",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				lockUseCase, err := container.AccountLockUseCase()
				if err != nil {
					return err
				}

				return commands.RunUnlockAccount(
					ctx,
					lockUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("user-id"),
				)
			},
		},
		{
			Name:  "force-logout",
			Usage: "Terminate every session a user has",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "user-id",
					Aliases:  []string{"u"},
					Required: true,
					Usage:    "User identifier to log out everywhere",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				sessionUseCase, err := container.SessionUseCase()
				if err != nil {
					return err
				}

				return commands.RunForceLogout(
					ctx,
					sessionUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("user-id"),
				)
			},
		},
		{
			Name:  "security-stats",
			Usage: "Aggregate security event counts over the trailing days",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "days",
					Aliases: []string{"d"},
					Value:   7,
					Usage:   "Number of trailing days to aggregate",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				monitorUseCase, err := container.MonitorUseCase()
				if err != nil {
					return err
				}

				return commands.RunSecurityStats(
					ctx,
					monitorUseCase,
					commands.DefaultIO().Writer,
					int(cmd.Int("days")),
					cmd.String("format"),
				)
			},
		},
	}
}
