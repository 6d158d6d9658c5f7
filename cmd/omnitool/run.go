package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/omnitool-ai/omnitool-sub002/pkg/log"
	"github.com/omnitool-ai/omnitool-sub002/pkg/services"
	cli "github.com/urfave/cli/v3"
)

var errMissingKey = errors.New("missing component key")

func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Execute a single component and print its outputs as JSON",
		ArgsUsage: "<namespace.operationId>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "data",
				Usage: "Node data as a JSON object",
			},
			&cli.StringSliceFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Wired input value as <name>=<value>, may be repeated",
			},
			&cli.StringFlag{
				Name:  "user",
				Usage: "User the job runs as",
				Value: "cli",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			key := command.Args().First()
			if key == "" {
				return errMissingKey
			}

			logger := log.WithModule("run")

			req, err := parseRunRequest(command.String("user"), command.String("data"), command.StringSlice("input"))
			if err != nil {
				return err
			}

			rt, err := newRuntime(ctx, command, logger)
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			result, execErr := rt.service.Execute(ctx, key, req)
			if result != nil {
				if err := printJSON(command.Root().Writer, result.Outputs); err != nil {
					return err
				}
			}

			return execErr
		},
	}
}

func parseRunRequest(user, data string, inputs []string) (services.ExecuteRequest, error) {
	req := services.ExecuteRequest{
		UserID: user,
		Data:   map[string]any{},
		Inputs: map[string][]any{},
	}

	if data != "" {
		if err := json.Unmarshal([]byte(data), &req.Data); err != nil {
			return req, fmt.Errorf("invalid --data: %w", err)
		}
	}

	for _, entry := range inputs {
		name, raw, ok := strings.Cut(entry, "=")
		if !ok || name == "" {
			return req, fmt.Errorf("invalid --input %q, want <name>=<value>", entry)
		}

		req.Inputs[name] = append(req.Inputs[name], inputValue(raw))
	}

	return req, nil
}

// inputValue reads raw as JSON and falls back to the plain string.
func inputValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}

	return v
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
