package registry

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"plugin"

	"github.com/omnitool-ai/omnitool-sub002/pkg/components"
)

// MacroSymbol is the exported variable a macro plugin provides:
//
//	var Macros = map[string]components.Macros{...}
const MacroSymbol = "Macros"

// LoadMacroPlugins opens every shared object under <pluginsPath>/macros and
// registers the named macro sets each one exports.
func (r *Registry) LoadMacroPlugins(pluginsPath string) (int, error) {
	sets, err := loadPlugin[*map[string]components.Macros](r.logger, filepath.Join(pluginsPath, "macros"), MacroSymbol)
	if err != nil {
		return 0, err
	}

	count := 0

	for _, set := range sets {
		if set == nil {
			continue
		}

		for name, m := range *set {
			r.RegisterMacro(name, m)
			count++
		}
	}

	return count, nil
}

func loadPlugin[T any](logger *slog.Logger, rootPath string, symbolName string) ([]T, error) {
	pluginPathList, err := fs.Glob(os.DirFS(rootPath), "*.so")
	if err != nil {
		return nil, err
	}

	l := logger.With(slog.String("path", rootPath), slog.String("symbol", symbolName))
	l.Info("Loading plugins", "count", len(pluginPathList))

	pluginList := make([]T, 0, len(pluginPathList))

	for _, p := range pluginPathList {
		plg, err := plugin.Open(filepath.Join(rootPath, p))
		if err != nil {
			return nil, fmt.Errorf("failed to open plugin %s: %w", p, err)
		}

		v, err := plg.Lookup(symbolName)
		if err != nil {
			return nil, fmt.Errorf("plugin %s: %w", p, err)
		}

		castV, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("plugin %s: symbol %s has type %T", p, symbolName, v)
		}

		pluginList = append(pluginList, castV)

		l.Info("Loaded plugin", slog.String("plugin", p))
	}

	return pluginList, nil
}
