package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/omnitool-ai/omnitool-sub002/pkg/apiexec"
	"github.com/omnitool-ai/omnitool-sub002/pkg/openapi"
	"github.com/omnitool-ai/omnitool-sub002/pkg/registry"
)

// ImportOpenAPI registers a component per operation of every "<namespace>=<file>"
// document and returns the executor options routing each namespace to its server.
func ImportOpenAPI(ctx context.Context, reg *registry.Registry, documents []string, logger *slog.Logger) ([]apiexec.Option, error) {
	importer := openapi.NewImporter(logger)
	opts := make([]apiexec.Option, 0, len(documents))

	for _, doc := range documents {
		namespace, path, ok := strings.Cut(doc, "=")
		if !ok || namespace == "" || path == "" {
			return nil, fmt.Errorf("invalid openapi document %q, want <namespace>=<file>", doc)
		}

		ns, err := importer.ImportFile(ctx, namespace, path)
		if err != nil {
			return nil, err
		}

		for _, format := range ns.Components {
			if err := reg.Register(format); err != nil {
				return nil, err
			}
		}

		if ns.BaseURL != "" {
			opts = append(opts, apiexec.WithBaseURL(namespace, ns.BaseURL))
		}
	}

	return opts, nil
}

// ParseAPIHeaders turns "<namespace>:<Header>=<value>" entries into executor options.
func ParseAPIHeaders(entries []string) ([]apiexec.Option, error) {
	opts := make([]apiexec.Option, 0, len(entries))

	for _, entry := range entries {
		namespace, rest, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("invalid api header %q, want <namespace>:<Header>=<value>", entry)
		}

		key, value, ok := strings.Cut(rest, "=")
		if !ok || namespace == "" || key == "" {
			return nil, fmt.Errorf("invalid api header %q, want <namespace>:<Header>=<value>", entry)
		}

		opts = append(opts, apiexec.WithHeader(namespace, key, value))
	}

	return opts, nil
}
