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

// Package version provides version information of the current binary. Usually
// the version information is set during build time but the package provides a
// fallback value resolved from the module's build info.
package version

import "runtime/debug"

// buildVersion is the version number set at build time via -ldflags.
var buildVersion = "dev" //nolint:gochecknoglobals // set at build time

// Version returns the version number of the program.
func Version() string {
	if buildVersion != "dev" {
		return buildVersion
	}

	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	return "dev+" + Revision()
}

// Revision returns the version control revision this program was built from.
func Revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "no-buildinfo"
	}

	revision := ""
	dirty := ""

	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			revision = s.Value
		}

		if s.Key == "vcs.modified" && s.Value == "true" {
			dirty = "-dirty"
		}
	}

	if revision == "" {
		return "no-vcs"
	}

	return revision + dirty
}
