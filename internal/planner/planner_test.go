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

package planner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediaforge-dev/mediaforge/internal/planner"
	"github.com/mediaforge-dev/mediaforge/internal/plugin"
)

func TestResolveLinearChain(t *testing.T) {
	t.Parallel()

	manifests := map[string]plugin.Manifest{
		"b": {Name: "b", Category: plugin.CategoryOutput},
		"c": {Name: "c", Category: plugin.CategoryOutput, DependsOn: []string{"b"}},
	}

	plan, err := planner.Resolve(manifests)
	require.NoError(t, err)
	assert.Equal(t, planner.Plan{{"b"}, {"c"}}, plan)
}

func TestResolveTieBreaksByName(t *testing.T) {
	t.Parallel()

	manifests := map[string]plugin.Manifest{
		"z": {Name: "z", Category: plugin.CategoryOutput},
		"a": {Name: "a", Category: plugin.CategoryOutput},
		"m": {Name: "m", Category: plugin.CategoryOutput},
	}

	plan, err := planner.Resolve(manifests)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, []string{"a", "m", "z"}, plan[0])
}

func TestResolveDetectsCycle(t *testing.T) {
	t.Parallel()

	manifests := map[string]plugin.Manifest{
		"b": {Name: "b", Category: plugin.CategoryOutput, DependsOn: []string{"c"}},
		"c": {Name: "c", Category: plugin.CategoryOutput, DependsOn: []string{"b"}},
	}

	_, err := planner.Resolve(manifests)
	require.Error(t, err)
}

func TestResolveRejectsUnknownDependency(t *testing.T) {
	t.Parallel()

	manifests := map[string]plugin.Manifest{
		"b": {Name: "b", Category: plugin.CategoryOutput, DependsOn: []string{"ghost"}},
	}

	_, err := planner.Resolve(manifests)
	require.Error(t, err)
}

func TestAvailabilityAddsTopLevelAndSubkeys(t *testing.T) {
	t.Parallel()

	results := map[string]any{
		"index":      0,
		"input_path": "x",
		"B": map[string]any{
			"status": map[string]any{"success": true},
			"parsed": map[string]any{"title": "x"},
		},
	}

	set := planner.Availability(results)

	assert.Contains(t, set, "B")
	assert.Contains(t, set, "B.parsed")
	assert.NotContains(t, set, "B.status")
	assert.NotContains(t, set, "index")
	assert.NotContains(t, set, "input_path")
}

func TestReadySatisfiedAndUnsatisfied(t *testing.T) {
	t.Parallel()

	set := map[string]struct{}{"B.parsed": {}}

	assert.True(t, planner.Ready([]string{"B.parsed"}, set))
	assert.False(t, planner.Ready([]string{"B.other"}, set))
	assert.True(t, planner.Ready(nil, set))
}
