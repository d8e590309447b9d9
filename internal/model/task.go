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

// TaskType is the kind of a user-defined task.
type TaskType string

// The three task kinds the runner understands.
const (
	TaskPrint   TaskType = "print"
	TaskSave    TaskType = "save"
	TaskSummary TaskType = "summary"
)

// TaskConfig is one user-defined task record from the configuration's
// "tasks" list (§6.4), in configuration order.
type TaskConfig struct {
	Name        string   `mapstructure:"name"`
	Type        TaskType `mapstructure:"type"`
	Condition   string   `mapstructure:"condition"`
	Template    string   `mapstructure:"template"`
	Destination string   `mapstructure:"destination"`
}

// TaskOutcome records what happened when a task ran (or was skipped) against
// one Match.
type TaskOutcome struct {
	Name        string   `json:"name"`
	Type        TaskType `json:"type"`
	Success     bool     `json:"success"`
	Rendered    string   `json:"rendered,omitempty"`
	Destination string   `json:"destination,omitempty"`
	DryRun      bool     `json:"dry_run,omitempty"`
	Error       string   `json:"error,omitempty"`
}
