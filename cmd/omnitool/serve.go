package main

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/omnitool-ai/omnitool-sub002/pkg/log"
	"github.com/omnitool-ai/omnitool-sub002/pkg/web"
	cli "github.com/urfave/cli/v3"
)

func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the component catalog and execution API over HTTP",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			logger := log.WithModule("api")

			logger.InfoContext(ctx, "Initializing Omnitool server")

			rt, err := newRuntime(ctx, command, logger)
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			handlers := web.NewAPIHandlers(rt.service, rt.store, validator.New(validator.WithRequiredStructEnabled()))

			return web.NewServer(logger, handlers, rt.metrics).Start(command.Int("port"))
		},
	}
}
