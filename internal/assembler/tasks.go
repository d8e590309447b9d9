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

package assembler

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/spf13/afero"

	"github.com/mediaforge-dev/mediaforge/internal/logging"
	"github.com/mediaforge-dev/mediaforge/internal/model"
)

// Printer is the sink for "print" task output. [internal/iostreams.IOStreams]
// satisfies it.
type Printer interface {
	Print(string)
}

// Runner executes user-defined tasks against each match as the batch
// progresses, per §4.5.2.
type Runner struct {
	Tasks    []model.TaskConfig
	Fs       afero.Fs
	Printer  Printer
	DryRun   bool
	Hardlink bool
}

// RunMatch evaluates every task against m in configuration order, appending a
// TaskOutcome for each regardless of skip, success, or failure. isLast must
// be true exactly for the final Match of the batch, so that summary tasks
// fire exactly once.
func (r *Runner) RunMatch(m *model.Match, globals model.ResponseGlobals, otherMatches []*model.Match, isLast bool) {
	for _, t := range r.Tasks {
		if t.Type == model.TaskSummary && !isLast {
			m.Tasks = append(m.Tasks, model.TaskOutcome{Name: t.Name, Type: t.Type, Success: true})

			continue
		}

		r.runOne(t, m, globals, otherMatches)
	}
}

func (r *Runner) runOne(t model.TaskConfig, m *model.Match, globals model.ResponseGlobals, otherMatches []*model.Match) {
	data := renderContext(m, globals, otherMatches)

	if t.Condition != "" {
		ok, err := evalCondition(t.Condition, data)
		if err != nil {
			m.Tasks = append(m.Tasks, model.TaskOutcome{
				Name: t.Name, Type: t.Type, Success: false,
				Error: fmt.Sprintf("condition: %v", err),
			})

			return
		}

		if !ok {
			m.Tasks = append(m.Tasks, model.TaskOutcome{Name: t.Name, Type: t.Type, Success: true})

			return
		}
	}

	rendered, err := render(t.Template, data)
	if err != nil {
		m.Tasks = append(m.Tasks, model.TaskOutcome{
			Name: t.Name, Type: t.Type, Success: false,
			Error: fmt.Sprintf("template: %v", err),
		})

		return
	}

	switch t.Type {
	case model.TaskPrint, model.TaskSummary:
		r.Printer.Print(rendered)
		m.Tasks = append(m.Tasks, model.TaskOutcome{Name: t.Name, Type: t.Type, Success: true, Rendered: rendered})
	case model.TaskSave:
		m.Tasks = append(m.Tasks, r.runSave(t, rendered, data))
	default:
		m.Tasks = append(m.Tasks, model.TaskOutcome{
			Name: t.Name, Type: t.Type, Success: false,
			Error: "unknown task type " + string(t.Type),
		})
	}
}

func (r *Runner) runSave(t model.TaskConfig, rendered string, data map[string]any) model.TaskOutcome {
	dest, err := render(t.Destination, data)
	if err != nil {
		return model.TaskOutcome{Name: t.Name, Type: t.Type, Success: false, Error: fmt.Sprintf("destination: %v", err)}
	}

	dest = uniqueDestination(r.Fs, dest)

	if r.DryRun {
		return model.TaskOutcome{Name: t.Name, Type: t.Type, Success: true, Destination: dest, DryRun: true}
	}

	source, _ := data["input_path"].(string)

	if err := r.place(dest, source, rendered); err != nil {
		return model.TaskOutcome{Name: t.Name, Type: t.Type, Success: false, Destination: dest, Error: err.Error()}
	}

	return model.TaskOutcome{Name: t.Name, Type: t.Type, Success: true, Destination: dest}
}

// place performs the save task's file placement operation (§4.5.2 step 6):
// the match's own source file is moved (renamed) or hardlinked to dest,
// creating parent directories as needed. Hardlink mode only applies against
// the real OS filesystem: an afero.MemMapFs (used in most tests) has no
// hardlink semantics, so it falls through to a move. When source is empty,
// or the filesystem has no such source file to place (a match not backed by
// a real file on disk), rendered content is written to dest instead.
func (r *Runner) place(dest, source, rendered string) error {
	if err := r.Fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil { //nolint:mnd // standard directory mode
		return fmt.Errorf("create destination directory: %w", err)
	}

	if source != "" {
		if r.Hardlink {
			if _, ok := r.Fs.(*afero.OsFs); ok {
				if err := os.Link(source, dest); err == nil {
					return nil
				}
			} else if err := r.Fs.Rename(source, dest); err == nil {
				return nil
			}
		} else if err := r.Fs.Rename(source, dest); err == nil {
			return nil
		}
	}

	if err := afero.WriteFile(r.Fs, dest, []byte(rendered), 0o644); err != nil { //nolint:mnd // standard file mode
		return fmt.Errorf("write destination file: %w", err)
	}

	return nil
}

// uniqueDestination appends a monotone numeric suffix to dest's base name
// until the path does not already exist, per §5's collision policy.
func uniqueDestination(fs afero.Fs, dest string) string {
	if ok, _ := afero.Exists(fs, dest); !ok {
		return dest
	}

	ext := filepath.Ext(dest)
	base := strings.TrimSuffix(dest, ext)

	for i := 1; ; i++ {
		candidate := base + "-" + strconv.Itoa(i) + ext
		if ok, _ := afero.Exists(fs, candidate); !ok {
			return candidate
		}
	}
}

// renderContext builds the template data available to a task: the match's
// plugin results at the top level, core-owned per-match fields, the
// batch-so-far globals, and an index into the other matches by position.
func renderContext(m *model.Match, globals model.ResponseGlobals, otherMatches []*model.Match) map[string]any {
	data := make(map[string]any, len(m.Results)+4)

	for name, result := range m.Results {
		data[name] = map[string]any(result)
	}

	data["index"] = m.Index
	data["input_path"] = m.InputPath
	data["category"] = m.Category
	data["match_status"] = m.Status
	data["globals"] = globals
	data["matches"] = otherMatches

	return data
}

// evalCondition renders cond as a template and interprets its trimmed output
// as truthy unless it is empty, "false", or "0".
func evalCondition(cond string, data map[string]any) (bool, error) {
	rendered, err := render(cond, data)
	if err != nil {
		return false, err
	}

	rendered = strings.TrimSpace(rendered)

	return rendered != "" && rendered != "false" && rendered != "0", nil
}

func render(tmpl string, data map[string]any) (string, error) {
	t, err := template.New("task").Parse(tmpl)
	if err != nil {
		logging.Warn("task template parse failed", "error", err)

		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}
