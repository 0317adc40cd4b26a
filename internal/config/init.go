package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Init writes an example base configuration to dir/default.yaml. The file
// mirrors the built-in defaults so operators can start from a complete,
// working document and delete what they do not need.
func Init(dir string, force bool) error {
	path := filepath.Join(dir, "default.yaml")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	data, err := yaml.Marshal(exampleDocument())
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// exampleDocument unflattens the defaults table into nested yaml sections.
// Durations are rendered as duration strings ("5s") rather than nanosecond
// integers so the generated file stays readable and round-trips through the
// resolver. Identity fields are omitted; they are computed at startup.
func exampleDocument() map[string]any {
	doc := map[string]any{}

	keys := make([]string, 0)
	table := defaultValues()
	for key := range table {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := table[key]
		if d, ok := value.(time.Duration); ok {
			value = d.String()
		}

		parts := strings.Split(key, ".")
		section := doc
		for _, part := range parts[:len(parts)-1] {
			next, ok := section[part].(map[string]any)
			if !ok {
				next = map[string]any{}
				section[part] = next
			}
			section = next
		}
		section[parts[len(parts)-1]] = value
	}

	return doc
}
