package main

import (
	"context"
	"os"
	"time"

	"github.com/omnitool-ai/omnitool-sub002/pkg/log"
	cli "github.com/urfave/cli/v3"
)

const (
	defaultPort   = 1688
	defaultCDNTTL = 24 * time.Hour
)

func main() {
	cmd := &cli.Command{
		Name:                  "omnitool",
		Usage:                 "Load, build and execute Omnitool components",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "components",
				Usage:   "Directory of component definition files (yaml or json)",
				Sources: cli.EnvVars("COMPONENTS_PATH"),
			},
			&cli.StringFlag{
				Name:  "plugins-path",
				Usage: "Path to the directory containing macro plugins",
				Value: "./plugins",
			},
			&cli.StringSliceFlag{
				Name:  "openapi",
				Usage: "OpenAPI document to import as <namespace>=<file>, may be repeated",
			},
			&cli.StringSliceFlag{
				Name:  "api-header",
				Usage: "Header sent to a namespace's API as <namespace>:<Header>=<value>, may be repeated",
			},
			&cli.StringFlag{
				Name:    "cdn",
				Usage:   "File store URL (memory:// or redis://host:port/db)",
				Value:   "memory://",
				Sources: cli.EnvVars("CDN_URL"),
			},
			&cli.StringFlag{
				Name:    "cdn-public-url",
				Usage:   "Base URL files are served from",
				Sources: cli.EnvVars("CDN_PUBLIC_URL"),
			},
			&cli.DurationFlag{
				Name:  "cdn-ttl",
				Usage: "Lifetime of temporary files",
				Value: defaultCDNTTL,
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.BoolFlag{
				Name:    "otel",
				Usage:   "Export traces over OTLP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.FloatFlag{
				Name:    "otel-sample-ratio",
				Usage:   "Fraction of root traces to sample",
				Value:   1,
				Sources: cli.EnvVars("OTEL_SAMPLE_RATIO"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log output format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			log.Setup(command.String("log-level"), command.String("log-format"))

			return ctx, nil
		},
		Commands: []*cli.Command{
			NewServeCommand(),
			NewRunCommand(),
			NewValidateCommand(),
			NewSocketsCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.WithModule("omnitool").Error("Command failed", "error", err)
		os.Exit(1)
	}
}
