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

// Package main is the entry point for mediaforge, the plugin-orchestrated
// media-metadata enrichment engine.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/afero"

	"github.com/mediaforge-dev/mediaforge/internal/assembler"
	"github.com/mediaforge-dev/mediaforge/internal/cli"
	"github.com/mediaforge-dev/mediaforge/internal/config"
	"github.com/mediaforge-dev/mediaforge/internal/iostreams"
	"github.com/mediaforge-dev/mediaforge/internal/loader"
	"github.com/mediaforge-dev/mediaforge/internal/logging"
	"github.com/mediaforge-dev/mediaforge/internal/model"
	"github.com/mediaforge-dev/mediaforge/internal/panichandler"
	"github.com/mediaforge-dev/mediaforge/internal/pipeline"
	"github.com/mediaforge-dev/mediaforge/internal/planner"
	"github.com/mediaforge-dev/mediaforge/internal/plugin"
	"github.com/mediaforge-dev/mediaforge/internal/registry"
)

func main() {
	os.Exit(run())
}

func run() int {
	defer panichandler.Handle()

	ctx, cancel, cfg, err := cli.Bootstrap(os.Args[1:])
	if err != nil {
		return exitCodeOf(err)
	}

	defer cancel()

	code, err := execute(ctx, cfg)
	if err != nil {
		logging.ErrorContext(ctx, "run failed", "error", err)

		return exitCodeOf(err)
	}

	return code
}

// execute wires the core components in data-flow order: Config → registry
// (C1) → loader (C2) → planner (C3) → pipeline (C4, with the task runner
// firing per match) → assembler (C5) → report.
func execute(ctx context.Context, cfg *config.Config) (int, error) {
	fs := afero.NewOsFs()

	reg, err := registry.Load(fs, cfg.Options.ManifestRoot)
	if err != nil {
		return cli.ExitStartupError, cli.NewExitError(cli.ExitStartupError, fmt.Errorf("load manifests: %w", err))
	}

	enabled := make(map[string]loader.PluginConfig, len(cfg.Plugins))
	for name, pc := range cfg.Plugins {
		enabled[name] = loader.PluginConfig{Enabled: pc.Enabled, Settings: pc.Settings}
	}

	plugins, err := loader.Load(reg, enabled)
	if err != nil {
		return cli.ExitStartupError, cli.NewExitError(cli.ExitStartupError, err)
	}

	inputPlugins, outputPlugins, outputManifests := splitByCategory(reg, plugins)

	plan, err := planner.Resolve(outputManifests)
	if err != nil {
		return cli.ExitStartupError, cli.NewExitError(cli.ExitStartupError, err)
	}

	started := time.Now()

	pcfg := pipeline.Config{
		WorkerPoolSize: cfg.Options.WorkerPoolSize,
		PluginTimeout:  time.Duration(cfg.Options.PluginTimeoutMS) * time.Millisecond,
	}

	matches, runErr := pipeline.Run(ctx, inputPlugins, outputPlugins, outputManifests, plan, pcfg)
	if runErr != nil && ctx.Err() == nil {
		return cli.ExitRuntimeFault, cli.NewExitError(cli.ExitRuntimeFault, runErr)
	}

	inputName := firstInputPluginName(inputPlugins)
	assembleCfg := assembler.Config{
		Options:    cfg.Options,
		Plugins:    cfg.Plugins,
		Tasks:      cfg.Tasks,
		Categories: categoriesSupported(outputManifests),
	}

	// Assembled once to hand the task runner the batch-so-far globals (§4.5.2
	// step 4), then again after tasks mutate each Match's task outcomes so the
	// written report reflects them.
	preTaskGlobals := assembler.Assemble(matches, inputName, outputPluginNames(outputPlugins), started, time.Now(), assembleCfg).Globals
	runTasks(matches, cfg, fs, preTaskGlobals)

	resp := assembler.Assemble(matches, inputName, outputPluginNames(outputPlugins), started, time.Now(), assembleCfg)

	if err := writeReport(fs, cfg.Options.ReportPath, resp); err != nil {
		logging.WarnContext(ctx, "failed to write report", "error", err)
	}

	if data, err := json.MarshalIndent(resp, "", "  "); err == nil {
		iostreams.Streams.Print(string(data))
	}

	if runErr != nil {
		return cli.ExitRuntimeFault, cli.NewExitError(cli.ExitRuntimeFault, runErr)
	}

	if !resp.Globals.Status.Success {
		return cli.ExitMatchFailed, nil
	}

	return cli.ExitSuccess, nil
}

func runTasks(matches []*model.Match, cfg *config.Config, fs afero.Fs, globals model.ResponseGlobals) {
	runner := &assembler.Runner{
		Tasks:    cfg.Tasks,
		Fs:       fs,
		Printer:  iostreams.Streams,
		DryRun:   cfg.Options.DryRun,
		Hardlink: cfg.Options.Hardlink,
	}

	for i, m := range matches {
		runner.RunMatch(m, globals, matches, i == len(matches)-1)
	}
}

func splitByCategory(
	reg *registry.Registry,
	plugins map[string]plugin.Plugin,
) (inputs, outputs map[string]plugin.Plugin, outputManifests map[string]plugin.Manifest) {
	inputs = make(map[string]plugin.Plugin)
	outputs = make(map[string]plugin.Plugin)
	outputManifests = make(map[string]plugin.Manifest)

	for name, p := range plugins {
		m, ok := reg.Get(name)
		if !ok {
			continue
		}

		switch m.Category {
		case plugin.CategoryInput:
			inputs[name] = p
		case plugin.CategoryOutput:
			outputs[name] = p
			outputManifests[name] = m
		}
	}

	return inputs, outputs, outputManifests
}

func firstInputPluginName(inputPlugins map[string]plugin.Plugin) string {
	names := outputPluginNames(inputPlugins)
	if len(names) == 0 {
		return ""
	}

	return names[0]
}

func outputPluginNames(plugins map[string]plugin.Plugin) []string {
	names := make([]string, 0, len(plugins))
	for name := range plugins {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func categoriesSupported(manifests map[string]plugin.Manifest) []string {
	set := make(map[string]struct{})

	for _, m := range manifests {
		for _, c := range m.CategoriesSupported {
			set[c] = struct{}{}
		}
	}

	categories := make([]string, 0, len(set))
	for c := range set {
		categories = append(categories, c)
	}

	sort.Strings(categories)

	return categories
}

func writeReport(fs afero.Fs, path string, resp model.Response) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}

	if err := afero.WriteFile(fs, path, data, 0o644); err != nil { //nolint:mnd // standard file mode
		return fmt.Errorf("write report file: %w", err)
	}

	return nil
}

func exitCodeOf(err error) int {
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	return cli.ExitRuntimeFault
}
