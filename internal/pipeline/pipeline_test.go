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

package pipeline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediaforge-dev/mediaforge/internal/pipeline"
	"github.com/mediaforge-dev/mediaforge/internal/planner"
	"github.com/mediaforge-dev/mediaforge/internal/plugin"
)

type funcPlugin struct {
	execute func(ctx context.Context, data map[string]any) (plugin.Result, error)
}

func (f *funcPlugin) Execute(ctx context.Context, data map[string]any) (plugin.Result, error) {
	return f.execute(ctx, data)
}

func successResult(extra map[string]any) plugin.Result {
	r := plugin.Result{"status": map[string]any{"success": true}}
	for k, v := range extra {
		r[k] = v
	}

	return r
}

func TestRunLinearChain(t *testing.T) {
	t.Parallel()

	inputPlugins := map[string]plugin.Plugin{
		"a": &funcPlugin{execute: func(context.Context, map[string]any) (plugin.Result, error) {
			return plugin.Result{"items": []any{
				map[string]any{"input": "x"},
			}}, nil
		}},
	}

	outputPlugins := map[string]plugin.Plugin{
		"b": &funcPlugin{execute: func(context.Context, map[string]any) (plugin.Result, error) {
			return successResult(map[string]any{"parsed": map[string]any{"title": "x"}}), nil
		}},
		"c": &funcPlugin{execute: func(_ context.Context, data map[string]any) (plugin.Result, error) {
			_, ok := data["b"].(map[string]any)
			require.True(t, ok)

			return successResult(map[string]any{"data": map[string]any{"foo": 1}}), nil
		}},
	}

	manifests := map[string]plugin.Manifest{
		"b": {Name: "b", Category: plugin.CategoryOutput},
		"c": {Name: "c", Category: plugin.CategoryOutput, DependsOn: []string{"b"}, Expects: []string{"b.parsed"}},
	}

	plan, err := planner.Resolve(manifests)
	require.NoError(t, err)

	matches, err := pipeline.Run(context.Background(), inputPlugins, outputPlugins, manifests, plan, pipeline.Config{})
	require.NoError(t, err)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, []string{"b", "c"}, m.Status.SuccessPlugins)
	assert.True(t, m.Status.Success)
}

func TestRunUnsatisfiedExpectsBecomesNotSupported(t *testing.T) {
	t.Parallel()

	inputPlugins := map[string]plugin.Plugin{
		"a": &funcPlugin{execute: func(context.Context, map[string]any) (plugin.Result, error) {
			return plugin.Result{"items": []any{map[string]any{"input": "x"}}}, nil
		}},
	}

	outputPlugins := map[string]plugin.Plugin{
		"b": &funcPlugin{execute: func(context.Context, map[string]any) (plugin.Result, error) {
			return successResult(nil), nil
		}},
		"c": &funcPlugin{execute: func(context.Context, map[string]any) (plugin.Result, error) {
			return successResult(nil), nil
		}},
	}

	manifests := map[string]plugin.Manifest{
		"b": {Name: "b", Category: plugin.CategoryOutput},
		"c": {Name: "c", Category: plugin.CategoryOutput, DependsOn: []string{"b"}, Expects: []string{"b.parsed"}},
	}

	plan, err := planner.Resolve(manifests)
	require.NoError(t, err)

	matches, err := pipeline.Run(context.Background(), inputPlugins, outputPlugins, manifests, plan, pipeline.Config{})
	require.NoError(t, err)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, []string{"c"}, m.Status.NotSupportedPlugins)
	assert.Empty(t, m.Status.FailedPlugins)
	assert.True(t, m.Status.Success)
}

func TestRunParallelGroupFaultIsolation(t *testing.T) {
	t.Parallel()

	inputPlugins := map[string]plugin.Plugin{
		"a": &funcPlugin{execute: func(context.Context, map[string]any) (plugin.Result, error) {
			return plugin.Result{"items": []any{map[string]any{"input": "x"}}}, nil
		}},
	}

	outputPlugins := map[string]plugin.Plugin{
		"p": &funcPlugin{execute: func(context.Context, map[string]any) (plugin.Result, error) {
			return successResult(nil), nil
		}},
		"q": &funcPlugin{execute: func(context.Context, map[string]any) (plugin.Result, error) {
			panic("boom")
		}},
		"r": &funcPlugin{execute: func(context.Context, map[string]any) (plugin.Result, error) {
			return successResult(nil), nil
		}},
	}

	manifests := map[string]plugin.Manifest{
		"p": {Name: "p", Category: plugin.CategoryOutput},
		"q": {Name: "q", Category: plugin.CategoryOutput},
		"r": {Name: "r", Category: plugin.CategoryOutput},
	}

	plan, err := planner.Resolve(manifests)
	require.NoError(t, err)

	matches, err := pipeline.Run(context.Background(), inputPlugins, outputPlugins, manifests, plan, pipeline.Config{})
	require.NoError(t, err)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.ElementsMatch(t, []string{"p", "r"}, m.Status.SuccessPlugins)
	assert.Equal(t, []string{"q"}, m.Status.FailedPlugins)
	assert.False(t, m.Status.Success)

	qStatus := plugin.StatusOf(m.Results["q"])
	assert.NotEmpty(t, qStatus.Error)
}

func TestRunCategoryPropagation(t *testing.T) {
	t.Parallel()

	inputPlugins := map[string]plugin.Plugin{
		"a": &funcPlugin{execute: func(context.Context, map[string]any) (plugin.Result, error) {
			return plugin.Result{"items": []any{map[string]any{"input": "x"}}}, nil
		}},
	}

	var observedCategory string

	outputPlugins := map[string]plugin.Plugin{
		"k": &funcPlugin{execute: func(context.Context, map[string]any) (plugin.Result, error) {
			return successResult(map[string]any{"category": "movie"}), nil
		}},
		"l": &funcPlugin{execute: func(_ context.Context, data map[string]any) (plugin.Result, error) {
			observedCategory, _ = data["category"].(string)

			return successResult(nil), nil
		}},
	}

	manifests := map[string]plugin.Manifest{
		"k": {Name: "k", Category: plugin.CategoryOutput},
		"l": {Name: "l", Category: plugin.CategoryOutput, DependsOn: []string{"k"}},
	}

	plan, err := planner.Resolve(manifests)
	require.NoError(t, err)

	_, err = pipeline.Run(context.Background(), inputPlugins, outputPlugins, manifests, plan, pipeline.Config{})
	require.NoError(t, err)
	assert.Equal(t, "movie", observedCategory)
}

func TestRunEmptyBatch(t *testing.T) {
	t.Parallel()

	inputPlugins := map[string]plugin.Plugin{
		"a": &funcPlugin{execute: func(context.Context, map[string]any) (plugin.Result, error) {
			return plugin.Result{}, nil
		}},
	}

	matches, err := pipeline.Run(context.Background(), inputPlugins, nil, nil, nil, pipeline.Config{})
	require.NoError(t, err)
	assert.Empty(t, matches)
}
