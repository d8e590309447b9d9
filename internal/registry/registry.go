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

// Package registry implements the manifest registry (component C1): it
// enumerates plugin manifests from a root directory, validates them, and
// indexes them by name. The registry never partially loads: any parse or
// validation failure is fatal and reported as a single [Error] listing every
// offending file.
package registry

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/mediaforge-dev/mediaforge/internal/plugin"
)

// manifestFile is the conventional manifest filename within each plugin
// directory.
const manifestFile = "plugin.json"

// manifestGlob is matched against each immediate subdirectory entry's
// relative "<dir>/plugin.json" path, so a root containing nested vendor or
// scratch subtrees that do not carry their own manifest never confuses the
// registry into trying (and failing) to parse them.
const manifestGlob = "*/" + manifestFile

// expectsPattern matches a single `expects` path segment: "seg" or
// "seg.seg", where seg is a non-empty identifier.
var expectsPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+(\.[A-Za-z0-9_-]+)?$`)

// Error is returned when one or more manifests fail to parse or validate. It
// lists every offending path so startup failures are diagnosable in one
// report instead of one-at-a-time.
type Error struct {
	Offenses []Offense
}

// Offense is a single manifest file that failed to load.
type Offense struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "failed to load %d plugin manifest(s):", len(e.Offenses))

	for _, o := range e.Offenses {
		fmt.Fprintf(&b, "\n  %s: %v", o.Path, o.Err)
	}

	return b.String()
}

// Registry is the name-indexed map of validated manifests produced by Load.
type Registry struct {
	manifests map[string]plugin.Manifest
}

// Load enumerates the immediate subdirectories of root, parses any
// plugin.json file found in each, validates it, and returns a Registry
// indexed by manifest name. fs is the filesystem to scan, allowing callers
// to substitute an in-memory filesystem for tests and dry-run mode.
func Load(fs afero.Fs, root string) (*Registry, error) {
	entries, err := afero.ReadDir(fs, root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan manifest root %q: %w", root, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	manifests := make(map[string]plugin.Manifest, len(entries))

	var offenses []Offense

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		rel := entry.Name() + "/" + manifestFile

		ok, err := doublestar.Match(manifestGlob, rel)
		if err != nil || !ok {
			continue
		}

		path := strings.TrimSuffix(root, "/") + "/" + rel

		if exists, err := afero.Exists(fs, path); err != nil || !exists {
			continue
		}

		m, err := loadOne(fs, path)
		if err != nil {
			offenses = append(offenses, Offense{Path: path, Err: err})

			continue
		}

		if _, ok := manifests[m.Name]; ok {
			offenses = append(offenses, Offense{
				Path: path,
				Err:  fmt.Errorf("%w: duplicate plugin name %q", errInvalidManifest, m.Name),
			})

			continue
		}

		manifests[m.Name] = m
	}

	if len(offenses) > 0 {
		return nil, &Error{Offenses: offenses}
	}

	return &Registry{manifests: manifests}, nil
}

// Get returns the manifest registered under name.
func (r *Registry) Get(name string) (plugin.Manifest, bool) {
	m, ok := r.manifests[name]

	return m, ok
}

// All returns every manifest in the registry, in no particular order.
func (r *Registry) All() []plugin.Manifest {
	out := make([]plugin.Manifest, 0, len(r.manifests))
	for _, m := range r.manifests {
		out = append(out, m)
	}

	return out
}

// Len returns the number of manifests in the registry.
func (r *Registry) Len() int {
	return len(r.manifests)
}

func loadOne(fs afero.Fs, path string) (plugin.Manifest, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return plugin.Manifest{}, fmt.Errorf("failed to read manifest: %w", err) //nolint:exhaustruct
	}

	var m plugin.Manifest

	if err := json.Unmarshal(data, &m); err != nil {
		return plugin.Manifest{}, fmt.Errorf("failed to parse manifest: %w", err) //nolint:exhaustruct
	}

	if err := validate(m); err != nil {
		return plugin.Manifest{}, err
	}

	return m, nil
}

func validate(m plugin.Manifest) error {
	if m.Name == "" {
		return fmt.Errorf("%w: missing name", errInvalidManifest)
	}

	if m.Version == "" {
		return fmt.Errorf("%w: missing version", errInvalidManifest)
	}

	if m.Category != plugin.CategoryInput && m.Category != plugin.CategoryOutput {
		return fmt.Errorf("%w: invalid category %q", errInvalidManifest, m.Category)
	}

	for _, e := range m.Expects {
		if !expectsPattern.MatchString(e) {
			return fmt.Errorf("%w: invalid expects entry %q", errInvalidManifest, e)
		}
	}

	return nil
}

