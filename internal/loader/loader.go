// Copyright 2025 The Reginald Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package loader implements the plugin loader (component C2): it
// instantiates every enabled plugin using the class-hint locator strategy of
// the orchestrator's plugin contract, never by matching on plugin names.
package loader

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/mediaforge-dev/mediaforge/internal/plugin"
	"github.com/mediaforge-dev/mediaforge/internal/registry"
)

// errLoader is the sentinel wrapped by every loader failure.
var errLoader = errors.New("failed to load plugin")

// PluginConfig is the per-plugin slice of the configuration surface the
// loader needs: whether the plugin is enabled and its opaque settings.
type PluginConfig struct {
	Enabled  bool
	Settings any
}

// Load instantiates every plugin named in enabled using the class-hint
// locator strategy: an explicit manifest class_hint wins; otherwise a hint is
// derived from the plugin's name. A lookup or construction failure for any
// enabled plugin is fatal — the loader never partially loads.
func Load(reg *registry.Registry, enabled map[string]PluginConfig) (map[string]plugin.Plugin, error) {
	plugins := make(map[string]plugin.Plugin, len(enabled))

	for name, cfg := range enabled {
		if !cfg.Enabled {
			continue
		}

		m, ok := reg.Get(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q is enabled but not present in the registry", errLoader, name)
		}

		hint := m.ClassHint
		if hint == "" {
			hint = deriveHint(m.Name)
		}

		factory, ok := plugin.Lookup(hint)
		if !ok {
			return nil, fmt.Errorf("%w: no factory registered for class hint %q (plugin %q)", errLoader, hint, name)
		}

		p, err := factory(cfg.Settings)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to construct %q: %w", errLoader, name, err)
		}

		plugins[name] = p
	}

	return plugins, nil
}

// deriveHint derives a class-hint identifier from a plugin name by the
// convention: split on "_" or "-", capitalize each part, append "Plugin".
// For example, "mock_test" becomes "MockTestPlugin".
func deriveHint(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var b strings.Builder

	for _, part := range parts {
		b.WriteString(capitalize(part))
	}

	b.WriteString("Plugin")

	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])

	return string(r)
}
