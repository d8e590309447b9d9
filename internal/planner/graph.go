// Copyright 2025 Antti Kivi
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

// Package planner implements the dependency resolver (component C3): it
// layers the enabled output plugins into parallel-safe execution Groups via
// Kahn's algorithm, detects dependency cycles, and evaluates the runtime
// "expects" readiness predicate against a Match's availability set.
package planner

import (
	"errors"
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mediaforge-dev/mediaforge/internal/plugin"
)

// Constants for the node visit statuses used during cycle detection.
const (
	unvisited visitState = iota
	visiting
	visited
)

// Errors returned while building or sorting a graph.
var (
	errCycle      = errors.New("circular plugin dependencies detected")
	errDependency = errors.New("plugin depends on an unknown or disabled output plugin")
)

// visitState is the traversal state of a node during cycle detection.
type visitState int

// graph is the dependency graph over enabled output plugins.
type graph map[string]*node

// node is a single output plugin within a graph.
type node struct {
	Name         string
	Dependencies []string
	Dependents   []*node
	DegreeIn     int
}

// Plan is the ordered sequence of Groups produced by Resolve: Plan[i] is
// eligible to run only once every group before it has completed.
type Plan [][]string

// planCache memoizes the layering for a given set of enabled output plugin
// names, so repeated batches against an unchanged plugin configuration skip
// recomputing the Kahn layering.
var planCache, _ = lru.New[string, Plan](32) //nolint:gochecknoglobals,errcheck // fixed size, never errors

// Resolve builds the dependency graph over the given enabled output
// manifests and returns the topologically layered execution Plan. Layers are
// tie-broken by ascending name for determinism. Edges to a plugin absent
// from manifests (disabled or unknown) are reported as an error wrapping
// errDependency; any residual cycle as an error wrapping errCycle.
func Resolve(manifests map[string]plugin.Manifest) (Plan, error) {
	key := cacheKey(manifests)
	if cached, ok := planCache.Get(key); ok {
		return cached, nil
	}

	g := make(graph, len(manifests))

	for name, m := range manifests {
		g[name] = &node{
			Name:         name,
			Dependencies: m.DependsOn,
			Dependents:   nil,
			DegreeIn:     0,
		}
	}

	for _, n := range g {
		for _, dep := range n.Dependencies {
			depNode, ok := g[dep]
			if !ok {
				return nil, fmt.Errorf("%w: %s depends on %s", errDependency, n.Name, dep)
			}

			depNode.Dependents = append(depNode.Dependents, n)
			n.DegreeIn++
		}
	}

	if err := g.checkCycles(); err != nil {
		return nil, err
	}

	plan, err := g.sorted()
	if err != nil {
		return nil, err
	}

	planCache.Add(key, plan)

	return plan, nil
}

func (g graph) sorted() (Plan, error) {
	var queue []*node

	for _, n := range g {
		if n.DegreeIn == 0 {
			queue = append(queue, n)
		}
	}

	var (
		plan   Plan
		sorted []*node
	)

	for len(queue) > 0 {
		sort.Slice(queue, func(i, j int) bool { return queue[i].Name < queue[j].Name })

		layer := make([]string, len(queue))
		current := make([]*node, len(queue))

		copy(current, queue)

		for i, n := range current {
			layer[i] = n.Name
		}

		plan = append(plan, layer)
		queue = nil

		for _, n := range current {
			sorted = append(sorted, n)

			for _, dependent := range n.Dependents {
				dependent.DegreeIn--
				if dependent.DegreeIn == 0 {
					queue = append(queue, dependent)
				}
			}
		}
	}

	if len(sorted) != len(g) {
		return nil, fmt.Errorf("%w", errCycle)
	}

	return plan, nil
}

func (g graph) checkCycles() error {
	state := make(map[string]visitState, len(g))
	for name := range g {
		state[name] = unvisited
	}

	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		if state[name] == unvisited {
			var stack []*node
			if err := visit(g[name], state, &stack); err != nil {
				return err
			}
		}
	}

	return nil
}

func visit(n *node, state map[string]visitState, stack *[]*node) error {
	state[n.Name] = visiting
	*stack = append(*stack, n)

	for _, dependent := range n.Dependents {
		switch state[dependent.Name] {
		case unvisited:
			if err := visit(dependent, state, stack); err != nil {
				return err
			}
		case visiting:
			return newCycleError(dependent, *stack)
		case visited:
			continue
		}
	}

	state[n.Name] = visited
	*stack = (*stack)[:len(*stack)-1]

	return nil
}

// newCycleError formats the cycle path starting at startNode as
// "a -> b -> c -> a".
func newCycleError(startNode *node, stack []*node) error {
	startIndex := -1

	for i, n := range stack {
		if n.Name == startNode.Name {
			startIndex = i

			break
		}
	}

	path := ""
	for i := startIndex; i < len(stack); i++ {
		path += stack[i].Name + " -> "
	}

	path += startNode.Name

	return fmt.Errorf("%w: %s", errCycle, path)
}

func cacheKey(manifests map[string]plugin.Manifest) string {
	names := make([]string, 0, len(manifests))
	for name := range manifests {
		names = append(names, name)
	}

	sort.Strings(names)

	key := ""

	for _, name := range names {
		m := manifests[name]

		key += name + "{"
		for _, dep := range m.DependsOn {
			key += dep + ","
		}

		key += "}|"
	}

	return key
}
