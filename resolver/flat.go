package resolver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/nuget-resolve/resolver/core"
	"github.com/nuget-resolve/resolver/frameworks"
	"github.com/nuget-resolve/resolver/manifest"
	"github.com/nuget-resolve/resolver/version"
)

// flatRow is one table entry in the packages.config discipline: a single
// pinned version per id, plus the union of ranges currently constraining
// it (an explicit external range from the project file, and/or ranges
// contributed by whatever else in the table currently depends on it).
type flatRow struct {
	name          string
	externalRange *version.Range
	pinned        *version.NuGetVersion
	dependencies  map[string]*version.Range
}

// maxFlatDepth guards the recursive fixpoint against a pathological or
// cyclic registry response; real packages.config graphs are shallow.
const maxFlatDepth = 500

// ResolveFlat implements the flat resolver discipline (§4.5): every direct
// dep is resolved to a fixpoint version, re-pinning whenever a newly
// discovered constraint narrows the range, until exactly one version per
// id is settled across the whole table.
func ResolveFlat(ctx context.Context, registry *core.RegistryClient, tfm *frameworks.NuGetFramework, direct []manifest.DirectDependency) (*Graph, error) {
	g := newGraph()
	table := make(map[string]*flatRow)

	for _, d := range direct {
		if skipDirect(d) {
			continue
		}
		id := strings.ToLower(d.Name)
		if err := resolveFlatID(ctx, registry, tfm, table, g, id, d.Name, d.AllowedRange, 0); err != nil {
			return nil, err
		}
	}

	for id, row := range table {
		if row.pinned == nil {
			continue
		}
		node := &Node{ID: row.name, Version: row.pinned}
		for depID := range row.dependencies {
			node.Dependencies = append(node.Dependencies, depID)
		}
		sort.Strings(node.Dependencies)
		g.Nodes[id] = node
	}

	for _, d := range direct {
		if skipDirect(d) {
			continue
		}
		g.Roots = append(g.Roots, strings.ToLower(d.Name))
	}
	sort.Strings(g.Roots)

	return g, nil
}

// resolveFlatID is the per-id fixpoint procedure from §4.5. override is the
// range imposed directly by the project file (non-nil only on the initial
// call for a direct dep); subsequent recursive calls triggered by a new
// transitive edge pass override=nil.
func resolveFlatID(ctx context.Context, registry *core.RegistryClient, tfm *frameworks.NuGetFramework, table map[string]*flatRow, g *Graph, id, displayName string, override *version.Range, depth int) error {
	if depth > maxFlatDepth {
		return fmt.Errorf("resolver: exceeded max recursion depth resolving %s", displayName)
	}

	row, ok := table[id]
	if !ok {
		row = &flatRow{name: displayName, dependencies: make(map[string]*version.Range)}
		table[id] = row
	}

	if override != nil {
		if row.externalRange != nil && row.externalRange.String() != override.String() {
			return &MultipleExternalRangesError{ID: displayName}
		}
		row.externalRange = override
	}

	intersection := intersectAllRanges(table, id)
	if intersection == nil {
		intersection = &version.Range{MinInclusive: true}
	}

	best, err := registry.FindBestVersion(ctx, displayName, intersection, rangeWantsPrerelease(intersection))
	if err != nil || best == nil {
		if intersection.MinVersion == nil {
			g.warn("%s: no version satisfies %s and no lower bound to fall back to, dropping", displayName, intersection.String())
			return nil
		}
		row.pinned = intersection.MinVersion
		g.warn("%s: no version satisfies %s, pinning to range minimum %s", displayName, intersection.String(), intersection.MinVersion.String())
		return nil
	}

	if row.pinned != nil && row.pinned.Compare(best) == 0 {
		return nil // fixed point
	}

	row.pinned = best
	row.dependencies = make(map[string]*version.Range)

	deps, err := registry.DependenciesFor(ctx, displayName, best, tfm)
	if err != nil {
		g.warn("%s %s: failed to fetch dependencies: %v", displayName, best.String(), err)
		return nil
	}

	for _, dep := range deps {
		depID := strings.ToLower(dep.ID)
		row.dependencies[depID] = dep.VersionRange
		if err := resolveFlatID(ctx, registry, tfm, table, g, depID, dep.ID, nil, depth+1); err != nil {
			return err
		}
	}

	return nil
}

// intersectAllRanges computes the current intersection of every range in
// the table that constrains id: the row's own external range, plus
// dependencies[id] from every other row that currently declares one.
func intersectAllRanges(table map[string]*flatRow, id string) *version.Range {
	var result *version.Range

	accumulate := func(r *version.Range) {
		if r == nil {
			return
		}
		if result == nil {
			result = r
			return
		}
		if inter, err := result.Intersect(r); err == nil {
			result = inter
		}
	}

	if row, ok := table[id]; ok {
		accumulate(row.externalRange)
	}
	for _, row := range table {
		if r, ok := row.dependencies[id]; ok {
			accumulate(r)
		}
	}

	return result
}

func skipDirect(d manifest.DirectDependency) bool {
	return d.Flags.Has(manifest.FlagPrivateAssets) && d.Flags.Has(manifest.FlagDevelopmentOnly)
}
