package template

import (
	"encoding/json"
	"fmt"
	"os"
)

// DeepMerge merges incoming into base and returns the result. For keys
// present in both, two mapping values merge recursively; any other
// value is replaced wholesale by the incoming one (arrays and scalars
// are never concatenated). Keys present only in base are preserved.
// The merge is a total function: any two inputs produce a result, so no
// merge-conflict error kind exists.
func DeepMerge(base, incoming map[string]any) map[string]any {
	result := make(map[string]any, len(base)+len(incoming))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range incoming {
		if baseMap, ok := result[k].(map[string]any); ok {
			if incomingMap, ok := v.(map[string]any); ok {
				result[k] = DeepMerge(baseMap, incomingMap)
				continue
			}
		}
		result[k] = v
	}
	return result
}

// mergeSettingsFile deep-merges the JSON document at srcPath into the
// one at destPath, writing the result back to destPath. An unparseable
// existing document is replaced by the incoming one; an unparseable
// incoming document leaves the destination untouched.
func mergeSettingsFile(destPath, srcPath string) error {
	srcData, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("reading staged settings: %w", err)
	}
	var incoming map[string]any
	if err := json.Unmarshal(srcData, &incoming); err != nil {
		// Incoming settings are not a JSON object: keep the user's file.
		return nil
	}

	var base map[string]any
	if destData, err := os.ReadFile(destPath); err == nil {
		_ = json.Unmarshal(destData, &base)
	}
	if base == nil {
		base = map[string]any{}
	}

	merged := DeepMerge(base, incoming)
	out, err := json.MarshalIndent(merged, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding merged settings: %w", err)
	}
	out = append(out, '\n')
	return os.WriteFile(destPath, out, 0644)
}
