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

// Package pipeline implements the pipeline executor (component C4): it
// drives the input plugins to produce matches, then for each match iterates
// the dependency resolver's execution plan, running ready plugins, splicing
// their results, propagating category, classifying outcomes, and recording
// timing.
//
// A plugin body that panics is isolated here: the invocation goroutine
// recovers locally and converts the panic into a failed outcome. That
// recovery is deliberately separate from [internal/panichandler], which is
// reserved for bugs in the orchestrator's own goroutines.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mediaforge-dev/mediaforge/internal/logging"
	"github.com/mediaforge-dev/mediaforge/internal/model"
	"github.com/mediaforge-dev/mediaforge/internal/planner"
	"github.com/mediaforge-dev/mediaforge/internal/plugin"
)

// Config bounds the executor's concurrency and per-plugin patience.
type Config struct {
	// WorkerPoolSize is the number of matches processed concurrently across
	// the batch. 1 (the default) preserves strict serial, in-order
	// processing.
	WorkerPoolSize int

	// PluginTimeout bounds a single plugin invocation. Zero means no
	// timeout.
	PluginTimeout time.Duration
}

// errAbort is returned when the batch is canceled mid-flight by an external
// signal; matches not yet completed are dropped from the result, per §5.
var errAbort = errors.New("batch aborted")

// Run drives the full pipeline for one batch: the input phase, then the
// per-match output phase for every match it produces. It returns the
// completed matches in input order; if ctx is canceled before every match
// finishes, it returns the matches that did complete along with errAbort.
func Run(
	ctx context.Context,
	inputPlugins map[string]plugin.Plugin,
	outputPlugins map[string]plugin.Plugin,
	manifests map[string]plugin.Manifest,
	plan planner.Plan,
	cfg Config,
) ([]*model.Match, error) {
	matches := runInputPhase(ctx, inputPlugins)

	if cfg.WorkerPoolSize < 1 {
		cfg.WorkerPoolSize = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.WorkerPoolSize)

	completed := make([]bool, len(matches))

	for i, m := range matches {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil //nolint:nilerr // cooperative cancellation, not a failure
			}

			runMatch(gctx, m, outputPlugins, manifests, plan, cfg)
			completed[i] = true

			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // goroutines never return a non-nil error themselves

	if ctx.Err() != nil {
		out := make([]*model.Match, 0, len(matches))

		for i, ok := range completed {
			if ok {
				out = append(out, matches[i])
			}
		}

		return out, fmt.Errorf("%w: %w", errAbort, ctx.Err())
	}

	return matches, nil
}

// runInputPhase invokes every input plugin, in ascending name order, and
// concatenates the work items they produce into an ordered list of Matches,
// per §4.4.1.
func runInputPhase(ctx context.Context, inputPlugins map[string]plugin.Plugin) []*model.Match {
	names := make([]string, 0, len(inputPlugins))
	for name := range inputPlugins {
		names = append(names, name)
	}

	sort.Strings(names)

	var matches []*model.Match

	for _, name := range names {
		result, err := inputPlugins[name].Execute(ctx, nil)
		if err != nil {
			logging.WarnContext(ctx, "input plugin failed", "plugin", name, "error", err)

			continue
		}

		for _, item := range extractItems(result) {
			inputPath, _ := item["input"].(string)
			matches = append(matches, model.NewMatch(len(matches), name, inputPath, plugin.Result(item)))
		}
	}

	return matches
}

// extractItems reads the conventional "items" key of an input plugin's
// result: a list of nested result maps, one per work item.
func extractItems(result plugin.Result) []map[string]any {
	raw, ok := result["items"]
	if !ok {
		return nil
	}

	list, ok := raw.([]any)
	if !ok {
		if typed, ok := raw.([]map[string]any); ok {
			return typed
		}

		return nil
	}

	items := make([]map[string]any, 0, len(list))

	for _, v := range list {
		if m, ok := v.(map[string]any); ok {
			items = append(items, m)
		}
	}

	return items
}

// runMatch drives the output phase for one Match: serially over the plan's
// Groups, computing the availability set before each Group fires, running
// ready plugins concurrently within the Group, and deferring the rest.
func runMatch(
	ctx context.Context,
	m *model.Match,
	outputPlugins map[string]plugin.Plugin,
	manifests map[string]plugin.Manifest,
	plan planner.Plan,
	cfg Config,
) {
	started := time.Now()

	logging.DebugContext(ctx, "match started", "match", m.Index, "correlation_id", m.CorrelationID, "input", m.InputPath)

	pending := make([][]string, len(plan))
	for i, group := range plan {
		pending[i] = append([]string(nil), group...)
	}

	for i, group := range pending {
		if len(group) == 0 {
			continue
		}

		availability := planner.Availability(toAnyMap(m.Results))

		var ready, deferred []string

		for _, name := range group {
			manifest := manifests[name]
			if planner.Ready(manifest.Expects, availability) {
				ready = append(ready, name)
			} else {
				deferred = append(deferred, name)
			}
		}

		if i+1 < len(pending) {
			pending[i+1] = append(pending[i+1], deferred...)
		} else {
			for _, name := range deferred {
				m.RecordNotSupported(name)
			}
		}

		runGroup(ctx, m, ready, outputPlugins, cfg)
	}

	m.Seal(started, time.Now())
}

// runGroup invokes every ready plugin concurrently and splices each result
// into m once the whole Group completes, per §4.4.2 step 4 and §5's
// ordering guarantee (results are spliced atomically with respect to the
// next Group's availability computation, since runGroup fully returns
// before runMatch recomputes it).
func runGroup(ctx context.Context, m *model.Match, ready []string, outputPlugins map[string]plugin.Plugin, cfg Config) {
	if len(ready) == 0 {
		return
	}

	type outcome struct {
		name   string
		result plugin.Result
	}

	outcomes := make([]outcome, len(ready))

	g, gctx := errgroup.WithContext(ctx)

	data := toAnyMap(m.Results)
	if m.Category != "" {
		data["category"] = m.Category
	}

	for i, name := range ready {
		g.Go(func() error {
			outcomes[i] = outcome{name: name, result: invoke(gctx, name, outputPlugins[name], data, cfg.PluginTimeout)}

			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // invoke never returns an error itself

	for _, o := range outcomes {
		m.RecordOutcome(o.name, o.result)

		logging.DebugContext(ctx, "plugin finished", "plugin", o.name, "match", m.Index, "correlation_id", m.CorrelationID)
	}
}

// invoke runs a single plugin invocation, recovering from a panic in the
// plugin body and converting both panics and timeouts into a synthesized
// failed status, per §4.4.6. This recovery is local to the pipeline and
// never escalates to [logging.BootstrapWriter] or the process-fatal
// panichandler.
func invoke(ctx context.Context, name string, p plugin.Plugin, data map[string]any, timeout time.Duration) (result plugin.Result) {
	started := time.Now()

	var faultErr error

	func() {
		defer func() {
			if r := recover(); r != nil {
				faultErr = fmt.Errorf("panic in plugin %s: %v", name, r)
			}
		}()

		callCtx := ctx

		if timeout > 0 {
			var cancel context.CancelFunc

			callCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		var err error

		result, err = p.Execute(callCtx, data)
		if err != nil {
			faultErr = err
		}
	}()

	finished := time.Now()

	if faultErr == nil {
		return result
	}

	msg := faultErr.Error()
	if errors.Is(faultErr, context.DeadlineExceeded) {
		msg = "timeout"
	}

	logging.WarnContext(ctx, "plugin invocation failed", "plugin", name, "error", msg)

	return plugin.Result{
		"status": map[string]any{
			"success":       false,
			"not_supported": false,
			"error":         msg,
			"started_at":    started.Format(time.RFC3339Nano),
			"finished_at":   finished.Format(time.RFC3339Nano),
			"duration_ms":   finished.Sub(started).Milliseconds(),
		},
	}
}

func toAnyMap(results map[string]plugin.Result) map[string]any {
	out := make(map[string]any, len(results))
	for k, v := range results {
		out[k] = map[string]any(v)
	}

	return out
}
