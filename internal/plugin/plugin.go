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

// Package plugin defines the orchestrator's plugin contract: the Manifest
// metadata record, the Plugin interface a concrete plugin body implements,
// and the opaque Result shape the core passes through to the response
// document. Plugins register themselves under a class-hint identifier at
// package init time, the same way [database/sql.Register] and
// [image.RegisterFormat] work, so the loader never needs reflection or
// name-based dispatch to find a constructor.
package plugin

import (
	"context"
	"fmt"
	"sync"
)

// Category is the kind of a plugin, as declared in its manifest.
type Category string

// The two plugin categories the core understands.
const (
	CategoryInput  Category = "input"
	CategoryOutput Category = "output"
)

// Manifest is the metadata record read from a plugin's plugin.json file. It
// never changes after the registry loads it.
type Manifest struct {
	Name                string   `json:"name"`
	Version             string   `json:"version"`
	Category            Category `json:"category"`
	ClassHint           string   `json:"class_hint,omitempty"`
	DependsOn           []string `json:"depends_on,omitempty"`
	Expects             []string `json:"expects,omitempty"`
	CategoriesSupported []string `json:"categories_supported,omitempty"`
}

// Status is the core-observed subtree of a [Result]. Everything else in a
// Result is opaque and passed through to the response document untouched.
type Status struct {
	Success      bool   `json:"success"`
	NotSupported bool   `json:"not_supported,omitempty"`
	StartedAt    string `json:"started_at,omitempty"`
	FinishedAt   string `json:"finished_at,omitempty"`
	DurationMS   int64  `json:"duration_ms,omitempty"`
	Error        string `json:"error,omitempty"`
	Validation   any    `json:"validation,omitempty"`
}

// Result is the payload a plugin returns from Execute. The "status" and
// "category" keys are the only ones the core inspects; every other key is
// opaque and copied through verbatim.
type Result map[string]any

// StatusOf extracts the core-observed status subtree from a Result. A result
// with no "status" key, or one that is not shaped as expected, is treated as
// a failed outcome with a synthesized diagnostic error.
func StatusOf(r Result) Status {
	raw, ok := r["status"]
	if !ok {
		return Status{Success: false, Error: "plugin result has no status"} //nolint:exhaustruct
	}

	m, ok := raw.(map[string]any)
	if !ok {
		return Status{Success: false, Error: "plugin result status is not an object"} //nolint:exhaustruct
	}

	var s Status

	if v, ok := m["success"].(bool); ok {
		s.Success = v
	}

	if v, ok := m["not_supported"].(bool); ok {
		s.NotSupported = v
	}

	if v, ok := m["started_at"].(string); ok {
		s.StartedAt = v
	}

	if v, ok := m["finished_at"].(string); ok {
		s.FinishedAt = v
	}

	if v, ok := m["error"].(string); ok {
		s.Error = v
	}

	s.Validation = m["validation"]

	return s
}

// CategoryOf extracts the generic, plugin-agnostic top-level "category"
// signal from a Result, if present.
func CategoryOf(r Result) (string, bool) {
	v, ok := r["category"]
	if !ok {
		return "", false
	}

	s, ok := v.(string)

	return s, ok
}

// Plugin is the single interface every plugin body implements. Construction
// is realized by a registered [Factory]; invocation is this one method.
type Plugin interface {
	// Execute runs the plugin against the given context and returns its
	// result. For input plugins, data is empty. For output plugins, data is a
	// snapshot of the match's accumulated results at invocation time.
	Execute(ctx context.Context, data map[string]any) (Result, error)
}

// Factory constructs a Plugin from its manifest-declared, opaque
// configuration value.
type Factory func(cfg any) (Plugin, error)

// errFactoryExists is returned by Register when a class hint is already
// registered.
var errFactoryExists = fmt.Errorf("factory already registered")

var (
	registryMu sync.RWMutex           //nolint:gochecknoglobals // guards factories
	factories  = map[string]Factory{} //nolint:gochecknoglobals // populated at plugin init time
)

// Register associates hint with factory so the loader can later construct a
// plugin instance by class hint alone. It is meant to be called from a
// plugin package's init function, never from the core.
func Register(hint string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, ok := factories[hint]; ok {
		panic(fmt.Sprintf("%v: %s", errFactoryExists, hint))
	}

	factories[hint] = factory
}

// Lookup returns the factory registered under hint, if any.
func Lookup(hint string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	f, ok := factories[hint]

	return f, ok
}
