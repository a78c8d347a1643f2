package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LoadRegoFiles returns the .rego modules under dir keyed by file name.
// Subdirectories are not walked.
func LoadRegoFiles(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read policy dir: %w", err)
	}

	modules := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), ".rego") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read policy %s: %w", name, err)
		}
		modules[name] = string(data)
	}
	return modules, nil
}

// moduleNames lists loaded modules in a stable order for logging.
func moduleNames(modules map[string]string) []string {
	names := make([]string, 0, len(modules))
	for name := range modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
