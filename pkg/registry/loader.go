package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
	"gopkg.in/yaml.v3"
)

// LoadResult counts what LoadDir registered.
type LoadResult struct {
	Components int
	Patches    int
}

// LoadDir registers every definition found in YAML or JSON files under dir.
// A document carrying a patchId is a patch; patches are applied after all
// components are registered so file order does not matter.
func (r *Registry) LoadDir(dir string) (LoadResult, error) {
	var (
		result  LoadResult
		patches []models.ComponentPatch
	)

	files, err := definitionFiles(dir)
	if err != nil {
		return result, err
	}

	l := r.logger.With("path", dir)
	l.Info("Loading component definitions", "files", len(files))

	for _, file := range files {
		docs, err := readDocuments(file)
		if err != nil {
			return result, err
		}

		for _, doc := range docs {
			if _, ok := doc["patchId"]; ok {
				patch, err := models.DecodePatch(doc)
				if err != nil {
					return result, fmt.Errorf("%s: %w", file, err)
				}

				patches = append(patches, patch)

				continue
			}

			format, err := models.DecodeFormat(doc)
			if err != nil {
				return result, fmt.Errorf("%s: %w", file, err)
			}

			err = r.Register(format)
			if err != nil {
				return result, fmt.Errorf("%s: %w", file, err)
			}

			result.Components++
		}
	}

	for _, patch := range patches {
		err = r.RegisterPatch(patch)
		if err != nil {
			return result, err
		}

		result.Patches++
	}

	l.Info("Loaded component definitions", "components", result.Components, "patches", result.Patches)

	return result, nil
}

func definitionFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml", ".json":
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions from %s: %w", dir, err)
	}

	sort.Strings(files)

	return files, nil
}

// readDocuments decodes every document of a file: YAML streams may hold
// several, JSON files hold one object or an array of objects.
func readDocuments(path string) ([]map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return decodeJSON(path, raw)
	}

	var docs []map[string]any

	decoder := yaml.NewDecoder(bytes.NewReader(raw))

	for {
		var doc map[string]any

		err := decoder.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}

		if len(doc) > 0 {
			docs = append(docs, doc)
		}
	}

	return docs, nil
}

func decodeJSON(path string, raw []byte) ([]map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)

	if bytes.HasPrefix(trimmed, []byte("[")) {
		var docs []map[string]any

		err := json.Unmarshal(trimmed, &docs)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}

		return docs, nil
	}

	var doc map[string]any

	err := json.Unmarshal(trimmed, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return []map[string]any{doc}, nil
}
