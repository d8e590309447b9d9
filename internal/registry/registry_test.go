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

package registry_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediaforge-dev/mediaforge/internal/plugin"
	"github.com/mediaforge-dev/mediaforge/internal/registry"
)

func writeManifest(t *testing.T, fs afero.Fs, dir, body string) {
	t.Helper()

	require.NoError(t, fs.MkdirAll(dir, 0o755))
	require.NoError(t, afero.WriteFile(fs, dir+"/plugin.json", []byte(body), 0o644))
}

func TestLoadIndexesByName(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeManifest(t, fs, "/plugins/a", `{"name":"a","version":"1.0.0","category":"input"}`)
	writeManifest(t, fs, "/plugins/b", `{
		"name":"b","version":"1.0.0","category":"output",
		"depends_on":["a"],"expects":["a","a.sub"]
	}`)

	reg, err := registry.Load(fs, "/plugins")
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	m, ok := reg.Get("b")
	require.True(t, ok)
	assert.Equal(t, plugin.CategoryOutput, m.Category)
	assert.Equal(t, []string{"a"}, m.DependsOn)
}

func TestLoadRejectsDuplicateNames(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeManifest(t, fs, "/plugins/a", `{"name":"dup","version":"1.0.0","category":"input"}`)
	writeManifest(t, fs, "/plugins/b", `{"name":"dup","version":"1.0.0","category":"input"}`)

	_, err := registry.Load(fs, "/plugins")
	require.Error(t, err)

	var regErr *registry.Error

	require.ErrorAs(t, err, &regErr)
	assert.Len(t, regErr.Offenses, 1)
}

func TestLoadRejectsInvalidCategory(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeManifest(t, fs, "/plugins/a", `{"name":"a","version":"1.0.0","category":"bogus"}`)

	_, err := registry.Load(fs, "/plugins")
	require.Error(t, err)
}

func TestLoadRejectsMalformedExpects(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeManifest(t, fs, "/plugins/a", `{
		"name":"a","version":"1.0.0","category":"output","expects":["a.b.c"]
	}`)

	_, err := registry.Load(fs, "/plugins")
	require.Error(t, err)
}

func TestLoadEmptyRootIsNotAnError(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/plugins", 0o755))

	reg, err := registry.Load(fs, "/plugins")
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Len())
}
