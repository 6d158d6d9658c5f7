package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/omnitool-ai/omnitool-sub002/pkg/log"
	"github.com/omnitool-ai/omnitool-sub002/pkg/services"
	cli "github.com/urfave/cli/v3"
)

func NewSocketsCommand() *cli.Command {
	return &cli.Command{
		Name:  "sockets",
		Usage: "List the sockets used by the registered components",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print as JSON",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			rt, err := newRuntime(ctx, command, log.WithModule("sockets"))
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			list := rt.service.Sockets(ctx)

			if command.Bool("json") {
				return printJSON(command.Root().Writer, list)
			}

			return printSockets(command.Root().Writer, list)
		},
	}
}

func printSockets(w io.Writer, list []services.SocketInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "NAME\tKIND\tARRAY\tFORMAT\tSIBLINGS")

	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n", s.Name, s.Kind, s.Array, s.Format, strings.Join(s.Siblings, ","))
	}

	return tw.Flush()
}
