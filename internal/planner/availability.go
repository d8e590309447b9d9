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

package planner

// reserved is the set of result keys that never contribute to the
// availability set.
var reserved = map[string]struct{}{
	"index":        {},
	"input_path":   {},
	"match_status": {},
}

// Availability computes the set of data paths present in results, per §4.4.2:
// every top-level key (other than the reserved core-owned ones) is
// available, and every first-level subkey of a map-valued top-level key is
// available as "K.S", except the subkey named "status".
func Availability(results map[string]any) map[string]struct{} {
	set := make(map[string]struct{}, len(results)*2) //nolint:mnd // rough sizing hint only

	for k, v := range results {
		if _, skip := reserved[k]; skip {
			continue
		}

		set[k] = struct{}{}

		sub, ok := v.(map[string]any)
		if !ok {
			continue
		}

		for s := range sub {
			if s == "status" {
				continue
			}

			set[k+"."+s] = struct{}{}
		}
	}

	return set
}

// Ready reports whether every path in expects is present in the availability
// set. The predicate is pure and side-effect-free.
func Ready(expects []string, availability map[string]struct{}) bool {
	for _, path := range expects {
		if _, ok := availability[path]; !ok {
			return false
		}
	}

	return true
}
