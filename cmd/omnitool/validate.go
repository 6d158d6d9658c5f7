package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/omnitool-ai/omnitool-sub002/pkg/cmd"
	"github.com/omnitool-ai/omnitool-sub002/pkg/log"
	"github.com/omnitool-ai/omnitool-sub002/pkg/registry"
	"github.com/omnitool-ai/omnitool-sub002/pkg/sockets"
	cli "github.com/urfave/cli/v3"
)

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Load every component definition and check that it builds",
		Action: func(ctx context.Context, command *cli.Command) error {
			logger := log.WithModule("validate")

			reg, err := cmd.NewRegistry(ctx, logger, command.String("components"), command.String("plugins-path"))
			if err != nil {
				return err
			}

			if _, err := cmd.ImportOpenAPI(ctx, reg, command.StringSlice("openapi"), logger); err != nil {
				return err
			}

			counts, err := validateRegistry(ctx, reg, sockets.NewRegistry(logger))
			for ns, n := range counts {
				logger.InfoContext(ctx, "Namespace validated", "namespace", ns, "components", n)
			}

			if err != nil {
				return err
			}

			logger.InfoContext(ctx, "All components valid", "total", len(reg.List()))

			return nil
		},
	}
}

// validateRegistry builds every registered component and returns the number
// of valid components per namespace with the joined build failures.
func validateRegistry(ctx context.Context, reg *registry.Registry, socks *sockets.Registry) (map[string]int, error) {
	counts := map[string]int{}

	var errs []error

	for _, format := range reg.List() {
		key := format.Key()

		c, err := reg.Get(key)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))

			continue
		}

		if _, err := c.Build(ctx, socks, nil); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))

			continue
		}

		counts[format.APINamespace]++
	}

	return counts, errors.Join(errs...)
}
