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

package model

import (
	"time"

	"github.com/mediaforge-dev/mediaforge/internal/plugin"
)

// Response is the canonical aggregated document produced by the assembler
// (§6.1). Marshaled with encoding/json.
type Response struct {
	Globals ResponseGlobals `json:"globals"`
	Matches []MatchDocument `json:"matches"`
}

// ResponseGlobals is the batch-wide globals block.
type ResponseGlobals struct {
	Status  GlobalStatus   `json:"status"`
	Summary Summary        `json:"summary"`
	Config  ConfigSnapshot `json:"config"`
}

// GlobalStatus is the batch-wide status aggregate.
type GlobalStatus struct {
	Success    bool      `json:"success"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMS int64     `json:"duration_ms"`
	Matches    int       `json:"matches"`
	Tasks      int       `json:"tasks"`
	Errors     int       `json:"errors"`
}

// Summary is the batch-wide summary block.
type Summary struct {
	InputPluginUsed   string   `json:"input_plugin_used"`
	OutputPluginsUsed []string `json:"output_plugins_used"`
	Categories        []string `json:"categories"`
	TotalSizeBytes    int64    `json:"total_size_bytes"`
	TotalDurationSec  float64  `json:"total_duration_seconds"`
}

// ConfigSnapshot is a verbatim, load-time snapshot of the configuration.
type ConfigSnapshot struct {
	Options any `json:"options"`
	Plugins any `json:"plugins"`
	Tasks   any `json:"tasks"`
}

// MatchDocument is one match's entry in the response.
type MatchDocument struct {
	Globals MatchGlobals             `json:"globals"`
	Plugins map[string]plugin.Result `json:"plugins"`
}

// MatchGlobals is the core-owned per-match globals block.
type MatchGlobals struct {
	Index     int            `json:"index"`
	InputPath string         `json:"input_path"`
	Status    MatchStatusDoc `json:"status"`
	Output    MatchOutput    `json:"output"`
}

// MatchStatusDoc is the JSON shape of a MatchStatus.
type MatchStatusDoc struct {
	Success             bool      `json:"success"`
	SuccessPlugins      []string  `json:"success_plugins"`
	FailedPlugins       []string  `json:"failed_plugins"`
	NotSupportedPlugins []string  `json:"not_supported_plugins"`
	StartedAt           time.Time `json:"started_at"`
	FinishedAt          time.Time `json:"finished_at"`
	DurationMS          int64     `json:"duration_ms"`
}

// MatchOutput carries the task outcomes recorded for a match.
type MatchOutput struct {
	Tasks []TaskOutcome `json:"tasks"`
}
