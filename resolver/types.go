// Package resolver implements the two dependency-resolution disciplines:
// flat (packages.config, one version per id globally) and tree
// (PackageReference, nearest-wins over a shared DAG). Both produce a Graph
// keyed by lowercased package id against a core.RegistryClient.
package resolver

import (
	"fmt"

	"github.com/nuget-resolve/resolver/version"
)

// Node is one resolved (id, version) vertex. Dependencies holds the
// lowercased ids of its outgoing edges, deduplicated and sorted.
type Node struct {
	ID           string
	Version      *version.NuGetVersion
	Dependencies []string
	Warning      string
}

// Graph is the output of either resolver discipline: a deduplicated set of
// nodes keyed by lowercased id, plus the roots. ResolveTree's roots are the
// direct-dep ids that are not the target of any edge; ResolveFlat's roots
// are all direct-dep ids.
type Graph struct {
	Nodes    map[string]*Node
	Roots    []string
	Warnings []string
}

func newGraph() *Graph {
	return &Graph{Nodes: make(map[string]*Node)}
}

func (g *Graph) warn(format string, args ...any) {
	g.Warnings = append(g.Warnings, fmt.Sprintf(format, args...))
}

// MultipleExternalRangesError is fatal in the flat resolver: it means the
// same id was declared as a direct dependency more than once with two
// different ranges.
type MultipleExternalRangesError struct {
	ID string
}

func (e *MultipleExternalRangesError) Error() string {
	return fmt.Sprintf("multiple external ranges declared for %s", e.ID)
}

// rangeWantsPrerelease reports whether a range's bounds explicitly name a
// prerelease version, per §4.3: candidate prerelease versions are pruned
// unless a direct dep explicitly targets one.
func rangeWantsPrerelease(rng *version.Range) bool {
	if rng == nil {
		return false
	}
	if rng.MinVersion != nil && rng.MinVersion.IsPrerelease() {
		return true
	}
	if rng.MaxVersion != nil && rng.MaxVersion.IsPrerelease() {
		return true
	}
	return false
}
