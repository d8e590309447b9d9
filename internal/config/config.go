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

// Package config contains the program configuration. The configuration is
// parsed from a TOML file, with a handful of command-line flags overriding
// individual options (§6.4, §6.5).
package config

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pelletier/go-toml/v2"

	"github.com/mediaforge-dev/mediaforge/internal/fspath"
	"github.com/mediaforge-dev/mediaforge/internal/logging"
	"github.com/mediaforge-dev/mediaforge/internal/model"
)

// EnvPrefix is the prefix of the program's environment variable names.
// Resolve reads no environment variable for the config file location.
const EnvPrefix = "MEDIAFORGE"

const defaultFileName = "mediaforge"

// Errors returned from the configuration parser.
var (
	ErrInvalidConfig      = errors.New("invalid config")
	errConfigFileNotFound = errors.New("config file not found")
)

// Options holds the orchestrator's own settings (§6.4's "options" table).
type Options struct {
	DryRun          bool   `mapstructure:"dry_run"`
	Debug           bool   `mapstructure:"debug"`
	Hardlink        bool   `mapstructure:"hardlink"`
	WorkerPoolSize  int    `mapstructure:"worker_pool_size"`
	PluginTimeoutMS int    `mapstructure:"plugin_timeout_ms"`
	ReportPath      string `mapstructure:"report_path"`
	ManifestRoot    string `mapstructure:"manifest_root"`
}

// PluginConfig is one entry of the "plugins" table: whether the plugin is
// enabled, plus whatever else it declares (passed through to its Factory
// untouched).
type PluginConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Settings map[string]any `mapstructure:",remain"` //nolint:tagliatelle // mapstructure directive, not a real tag
}

// Config is the parsed configuration of one program run.
type Config struct {
	sourceFile fspath.Path

	Options Options                 `mapstructure:"options"`
	Plugins map[string]PluginConfig `mapstructure:"plugins"`
	Tasks   []model.TaskConfig      `mapstructure:"tasks"`
	Log     logging.Config          `mapstructure:"log"`
}

// Default returns the configuration's default values.
func Default() *Config {
	return &Config{
		sourceFile: "",
		Options: Options{
			DryRun:          false,
			Debug:           false,
			Hardlink:        false,
			WorkerPoolSize:  1,
			PluginTimeoutMS: 0,
			ReportPath:      "mediaforge-report.json",
			ManifestRoot:    "plugins",
		},
		Plugins: map[string]PluginConfig{},
		Tasks:   nil,
		Log: logging.Config{
			Enabled: true,
			Format:  "text",
			Output:  "stderr",
			Level:   0, // logs.LevelInfo; zero value by construction (slog.LevelInfo == 0)
		},
	}
}

// File returns the path to the config file that was parsed, or "" if the
// config was never loaded from a file.
func (c *Config) File() fspath.Path {
	return c.sourceFile
}

// Load reads and decodes the TOML configuration file at path into a fresh
// Config seeded with Default's values.
func Load(path fspath.Path) (*Config, error) {
	data, err := path.ReadFile()
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	raw := make(map[string]any)
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	normalizeKeys(raw)

	cfg := Default()

	decoderCfg := &mapstructure.DecoderConfig{ //nolint:exhaustruct // rest left at defaults
		DecodeHook: mapstructure.TextUnmarshallerHookFunc(),
		Result:     cfg,
	}

	decoder, err := mapstructure.NewDecoder(decoderCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create config decoder: %w", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	cfg.sourceFile = path.Clean()

	return cfg, nil
}

// Resolve locates the configuration file, preferring an explicit override,
// then a conventional name in dir, per the resolution order reginald's
// loader uses for its own config file.
func Resolve(dir fspath.Path, override string) (fspath.Path, error) {
	if override != "" {
		p := fspath.Path(override)

		ok, err := p.IsFile()
		if err != nil {
			return "", fmt.Errorf("%w", err)
		}

		if ok {
			return p.Clean(), nil
		}

		return "", fmt.Errorf("%w: %q", errConfigFileNotFound, override)
	}

	for _, name := range []string{defaultFileName, "." + defaultFileName} {
		p := dir.Join(name + ".toml")

		ok, err := p.IsFile()
		if err != nil {
			return "", fmt.Errorf("%w", err)
		}

		if ok {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w in %q", errConfigFileNotFound, dir)
}

// normalizeKeys lowercases and snake-cases raw TOML keys recursively, so
// that "workerPoolSize" and "worker-pool-size" both decode the same as
// "worker_pool_size".
func normalizeKeys(cfg map[string]any) {
	for k, v := range cfg {
		key := ""

		for i, r := range k {
			switch {
			case r == '-':
				key += "_"
			case i > 0 && unicode.IsUpper(r):
				key += "_" + string(unicode.ToLower(r))
			default:
				key += string(unicode.ToLower(r))
			}
		}

		if k != key {
			delete(cfg, k)

			cfg[key] = v
		}

		if m, ok := v.(map[string]any); ok {
			normalizeKeys(m)
		}

		if list, ok := v.([]any); ok {
			for _, item := range list {
				if m, ok := item.(map[string]any); ok {
					normalizeKeys(m)
				}
			}
		}
	}
}
