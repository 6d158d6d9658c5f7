package registry

import (
	"encoding/json"
	"fmt"

	"dario.cat/mergo"
	"github.com/omnitool-ai/omnitool-sub002/pkg/models"
)

// ApplyPatch deep-merges patch over a copy of base. Fields set on the patch
// win, including false and zero values named in patch.Explicit. Nested ports
// and controls merge field by field and lists are replaced.
func ApplyPatch(base models.ComponentFormat, patch models.ComponentPatch) (models.ComponentFormat, error) {
	dst, err := toDocument(base)
	if err != nil {
		return base, err
	}

	src, err := toDocument(patch)
	if err != nil {
		return base, err
	}

	delete(src, "patchId")
	restoreExplicit(src, dst, patch.Explicit)

	err = mergo.Merge(&dst, src, mergo.WithOverride)
	if err != nil {
		return base, fmt.Errorf("failed to merge patch %s into %s: %w", patch.PatchID, base.Key(), err)
	}

	b, err := json.Marshal(dst)
	if err != nil {
		return base, fmt.Errorf("failed to encode patched %s: %w", base.Key(), err)
	}

	var out models.ComponentFormat

	err = json.Unmarshal(b, &out)
	if err != nil {
		return base, fmt.Errorf("failed to decode patched %s: %w", base.Key(), err)
	}

	return fillNames(out), nil
}

func toDocument(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}

	doc := make(map[string]any)

	err = json.Unmarshal(b, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}

	return doc, nil
}

// restoreExplicit puts back the keys of explicit that encoding src dropped
// as empty, using the zero value of the field they override in dst.
func restoreExplicit(src, dst, explicit map[string]any) {
	for key, value := range explicit {
		current, ok := src[key]
		if ok {
			nested, isMap := value.(map[string]any)
			srcMap, srcIsMap := current.(map[string]any)
			dstMap, dstIsMap := dst[key].(map[string]any)

			if isMap && srcIsMap && dstIsMap {
				restoreExplicit(srcMap, dstMap, nested)
			}

			continue
		}

		if zero, ok := zeroLike(dst[key]); ok {
			src[key] = zero
		}
	}
}

func zeroLike(v any) (any, bool) {
	switch v.(type) {
	case bool:
		return false, true
	case float64:
		return 0.0, true
	case string:
		return "", true
	case []any:
		return []any{}, true
	default:
		return nil, false
	}
}
