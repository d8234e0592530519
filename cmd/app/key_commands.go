package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/keyfort/keyfort/cmd/app/commands"
	"github.com/keyfort/keyfort/internal/app"
	"github.com/keyfort/keyfort/internal/config"
	cryptoService "github.com/keyfort/keyfort/internal/crypto/service"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-master-key",
			Usage: "Generate a new master key for envelope encryption",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "kms-provider",
					Value: "",
					Usage: "KMS provider (localsecrets, gcpkms, awskms, azurekeyvault, hashivault)",
				},
				&cli.StringFlag{
					Name:  "kms-key-uri",
					Value: "",
					Usage: "KMS key URI (e.g., base64key://, gcpkms://projects/.../cryptoKeys/...)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunCreateMasterKey(
					ctx,
					cryptoService.NewKMSService(),
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("kms-provider"),
					cmd.String("kms-key-uri"),
				)
			},
		},
		{
			Name:  "rotate-keys",
			Usage: "Mint a new data key and re-encrypt stored field envelopes",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "if-due",
					Value: false,
					Usage: "Only rotate when the active key reached its lifetime",
				},
				&cli.BoolFlag{
					Name:  "daemon",
					Value: false,
					Usage: "Keep running and rotate whenever the active key is due",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				rotationUseCase, err := container.RotationUseCase()
				if err != nil {
					return err
				}

				if cmd.Bool("daemon") {
					commands.RunRotationScheduler(
						ctx,
						rotationUseCase,
						container.Logger(),
						cfg.RotationCheckInterval,
					)
					return nil
				}

				return commands.RunRotateKeys(
					ctx,
					rotationUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.Bool("if-due"),
				)
			},
		},
		{
			Name:  "rotation-status",
			Usage: "Show the current key rotation schedule state",
			Flags: []cli.Flag{
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

				rotationUseCase, err := container.RotationUseCase()
				if err != nil {
					return err
				}

				return commands.RunRotationStatus(
					ctx,
					rotationUseCase,
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
	}
}
