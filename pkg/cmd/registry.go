// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/omnitool-ai/omnitool-sub002/pkg/native"
	"github.com/omnitool-ai/omnitool-sub002/pkg/registry"
)

// NewRegistry builds the component registry: native components first, then
// macro plugins, then the definition files under componentsPath. Empty paths
// are skipped.
func NewRegistry(ctx context.Context, logger *slog.Logger, componentsPath, pluginsPath string) (*registry.Registry, error) {
	reg := registry.NewRegistry(logger)

	if err := native.Register(reg); err != nil {
		return nil, err
	}

	if pluginsPath != "" {
		count, err := reg.LoadMacroPlugins(pluginsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load macro plugins: %w", err)
		}

		logger.InfoContext(ctx, "Registered plugin macros", "count", count)
	}

	if componentsPath == "" {
		return reg, nil
	}

	if _, err := os.Stat(componentsPath); err != nil {
		return nil, fmt.Errorf("components path: %w", err)
	}

	result, err := reg.LoadDir(componentsPath)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Loaded component definitions",
		"path", componentsPath, "components", result.Components, "patches", result.Patches)

	return reg, nil
}
