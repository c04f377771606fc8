//go:build linux || darwin

package transform

import (
	"fmt"
	"os"
	"path/filepath"
	"plugin"
	"sort"
	"strings"
)

// LoadPlugins opens each path (a .so file or a directory of them) and
// registers every entry of the exported Transformers map.
func LoadPlugins(paths []string) error {
	for _, path := range paths {
		if path == "" {
			continue
		}
		resolved, err := resolvePluginPaths(path)
		if err != nil {
			return err
		}
		for _, pluginPath := range resolved {
			p, err := plugin.Open(pluginPath)
			if err != nil {
				return fmt.Errorf("open plugin %s: %w", pluginPath, err)
			}
			sym, err := p.Lookup("Transformers")
			if err != nil {
				return fmt.Errorf("plugin %s: missing Transformers symbol", pluginPath)
			}
			if err := registerPluginSymbol(pluginPath, sym); err != nil {
				return err
			}
		}
	}
	return nil
}

func resolvePluginPaths(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("plugin not found: %s", path)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read plugin dir %s: %w", path, err)
	}
	var matches []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".so") {
			continue
		}
		matches = append(matches, filepath.Join(path, entry.Name()))
	}
	sort.Strings(matches)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no plugins found in %s", path)
	}
	return matches, nil
}

func registerPluginSymbol(path string, sym any) error {
	switch v := sym.(type) {
	case map[string]func(any, map[string]any) (any, error):
		for name, fn := range v {
			registerPlugin(name, fn)
		}
		return nil
	case *map[string]func(any, map[string]any) (any, error):
		for name, fn := range *v {
			registerPlugin(name, fn)
		}
		return nil
	default:
		return fmt.Errorf("plugin %s: Transformers has incompatible type", path)
	}
}
