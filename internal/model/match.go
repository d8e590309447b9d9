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

// Package model holds the data types shared between the pipeline executor
// (C4) and the response assembler and task runner (C5): the per-match
// record, its status summary, and the task outcomes recorded against it.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/mediaforge-dev/mediaforge/internal/plugin"
)

// Match is one unit of work in a batch. The executor owns it exclusively for
// its entire lifetime; it is sealed before task execution, after which the
// task runner appends to Tasks and the assembler reads it.
type Match struct {
	Index     int
	InputPath string

	// CorrelationID identifies this match in diagnostic log lines so
	// concurrent per-match events can be told apart. It never appears in the
	// response document; that stays plugin-agnostic and opaque by design.
	CorrelationID uuid.UUID

	// Results maps plugin name to that plugin's full, opaque result. It is
	// seeded with the input plugin's own entry and grows by one entry per
	// output plugin as each Group completes.
	Results map[string]plugin.Result

	// Category is the generic, plugin-agnostic "category" signal most
	// recently propagated by any plugin's result (§4.4.4).
	Category string

	Status MatchStatus
	Tasks  []TaskOutcome
}

// MatchStatus summarizes the outcome of every output plugin invoked for a
// Match.
type MatchStatus struct {
	SuccessPlugins      []string
	FailedPlugins       []string
	NotSupportedPlugins []string
	Success             bool
	StartedAt           time.Time
	FinishedAt          time.Time
	DurationMS          int64
}

// NewMatch returns a Match seeded from one input plugin's contribution, per
// the input phase contract (§4.4.1).
func NewMatch(index int, inputPluginName, inputPath string, payload plugin.Result) *Match {
	return &Match{
		Index:         index,
		InputPath:     inputPath,
		CorrelationID: uuid.New(),
		Results:       map[string]plugin.Result{inputPluginName: payload},
		Category:      "",
		Status:        MatchStatus{}, //nolint:exhaustruct // filled in by the executor
		Tasks:         nil,
	}
}

// RecordOutcome classifies a plugin invocation's result into exactly one of
// the three disjoint outcome lists, per §4.4.3, and splices the result into
// Results.
func (m *Match) RecordOutcome(name string, result plugin.Result) {
	m.Results[name] = result

	status := plugin.StatusOf(result)

	switch {
	case status.Success:
		m.Status.SuccessPlugins = append(m.Status.SuccessPlugins, name)
	case status.NotSupported:
		m.Status.NotSupportedPlugins = append(m.Status.NotSupportedPlugins, name)
	default:
		m.Status.FailedPlugins = append(m.Status.FailedPlugins, name)
	}

	if category, ok := plugin.CategoryOf(result); ok {
		m.Category = category
	}
}

// RecordNotSupported appends name to the not_supported list. It stores no
// reason string and adds no entry to Results. It is used when a plugin is carried forward
// past the last Group because its expects predicate never became satisfied
// (§4.4.2 step 5).
func (m *Match) RecordNotSupported(name string) {
	m.Status.NotSupportedPlugins = append(m.Status.NotSupportedPlugins, name)
}

// Seal finalizes the match's status after the output phase completes.
func (m *Match) Seal(startedAt, finishedAt time.Time) {
	m.Status.StartedAt = startedAt
	m.Status.FinishedAt = finishedAt
	m.Status.DurationMS = finishedAt.Sub(startedAt).Milliseconds()
	m.Status.Success = len(m.Status.FailedPlugins) == 0
}
