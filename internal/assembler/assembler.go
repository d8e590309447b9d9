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

// Package assembler implements the response assembler and task runner
// (component C5). It folds a batch's matches into the canonical response
// document, plugin-agnostically, and drives the user-defined print/save/
// summary tasks over each match as it is folded in.
package assembler

import (
	"sort"
	"time"

	"github.com/mediaforge-dev/mediaforge/internal/model"
	"github.com/mediaforge-dev/mediaforge/internal/plugin"
)

// Config carries the load-time configuration snapshot embedded verbatim into
// the response and the categories_supported union used for the summary.
type Config struct {
	Options    any
	Plugins    any
	Tasks      any
	Categories []string
}

// Assemble folds matches into the canonical response document (§6.1). It is
// strictly plugin-agnostic: every plugin result is copied verbatim under
// matches[i].plugins, and the only fields it derives are the core-owned
// status and summary aggregates.
func Assemble(
	matches []*model.Match,
	inputPluginName string,
	outputPluginNames []string,
	startedAt, finishedAt time.Time,
	cfg Config,
) model.Response {
	names := append([]string(nil), outputPluginNames...)
	sort.Strings(names)

	categories := append([]string(nil), cfg.Categories...)
	sort.Strings(categories)

	docs := make([]model.MatchDocument, 0, len(matches))

	var (
		totalTasks  int
		totalErrors int
	)

	for _, m := range matches {
		docs = append(docs, toDocument(m))

		if len(m.Status.FailedPlugins) > 0 {
			totalErrors++
		}

		totalTasks += len(m.Tasks)
	}

	return model.Response{
		Globals: model.ResponseGlobals{
			Status: model.GlobalStatus{
				Success:    totalErrors == 0,
				StartedAt:  startedAt,
				FinishedAt: finishedAt,
				DurationMS: finishedAt.Sub(startedAt).Milliseconds(),
				Matches:    len(matches),
				Tasks:      totalTasks,
				Errors:     totalErrors,
			},
			Summary: model.Summary{
				InputPluginUsed:   inputPluginName,
				OutputPluginsUsed: names,
				Categories:        categories,
				TotalSizeBytes:    totalSizeBytes(matches),
				TotalDurationSec:  finishedAt.Sub(startedAt).Seconds(),
			},
			Config: model.ConfigSnapshot{
				Options: cfg.Options,
				Plugins: cfg.Plugins,
				Tasks:   cfg.Tasks,
			},
		},
		Matches: docs,
	}
}

// toDocument copies m's plugin results verbatim and renders only the
// core-owned status and output blocks.
func toDocument(m *model.Match) model.MatchDocument {
	plugins := make(map[string]plugin.Result, len(m.Results))
	for name, result := range m.Results {
		plugins[name] = result
	}

	return model.MatchDocument{
		Globals: model.MatchGlobals{
			Index:     m.Index,
			InputPath: m.InputPath,
			Status: model.MatchStatusDoc{
				Success:             m.Status.Success,
				SuccessPlugins:      m.Status.SuccessPlugins,
				FailedPlugins:       m.Status.FailedPlugins,
				NotSupportedPlugins: m.Status.NotSupportedPlugins,
				StartedAt:           m.Status.StartedAt,
				FinishedAt:          m.Status.FinishedAt,
				DurationMS:          m.Status.DurationMS,
			},
			Output: model.MatchOutput{Tasks: m.Tasks},
		},
		Plugins: plugins,
	}
}

// totalSizeBytes sums the opaque status.size_bytes field where plugins
// choose to report it; absent in the core's status contract (§3.2), but a
// convention enough plugins follow that the summary aggregates it when
// present.
func totalSizeBytes(matches []*model.Match) int64 {
	var total int64

	for _, m := range matches {
		for _, result := range m.Results {
			status, ok := result["status"].(map[string]any)
			if !ok {
				continue
			}

			switch v := status["size_bytes"].(type) {
			case int64:
				total += v
			case int:
				total += int64(v)
			case float64:
				total += int64(v)
			}
		}
	}

	return total
}
