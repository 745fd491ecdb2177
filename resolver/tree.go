package resolver

import (
	"context"
	"sort"
	"strings"

	"github.com/nuget-resolve/resolver/core"
	"github.com/nuget-resolve/resolver/frameworks"
	"github.com/nuget-resolve/resolver/manifest"
	"github.com/nuget-resolve/resolver/version"
)

// treeWorkItem is one pending (id, range, parent) edge to resolve. parent
// is "" for a direct dep pushed from the root.
type treeWorkItem struct {
	id     string
	name   string
	rng    *version.Range
	parent string
}

// maxTreeVisitsPerID guards against a cyclic registry response; a real
// PackageReference graph settles in a handful of passes per id.
const maxTreeVisitsPerID = 500

// ResolveTree implements the PackageReference discipline (§4.6):
// nearest-wins BFS over a worklist seeded with the direct deps. Each id
// is pinned at most once per visit; an id already pinned by a nearer edge
// is reused when its version still satisfies the new edge's range.
func ResolveTree(ctx context.Context, registry *core.RegistryClient, tfm *frameworks.NuGetFramework, direct []manifest.DirectDependency) (*Graph, error) {
	g := newGraph()
	resolved := make(map[string]*version.NuGetVersion)
	names := make(map[string]string)
	edges := make(map[string]map[string]bool)
	visits := make(map[string]int)

	var worklist []treeWorkItem
	edges[""] = make(map[string]bool)
	for _, d := range direct {
		if skipDirect(d) {
			continue
		}
		id := strings.ToLower(d.Name)
		names[id] = d.Name
		edges[""][id] = true
		worklist = append(worklist, treeWorkItem{id: id, name: d.Name, rng: d.AllowedRange, parent: ""})
	}

	for len(worklist) > 0 {
		item := worklist[0]
		worklist = worklist[1:]
		names[item.id] = item.name

		if item.parent != "" {
			if edges[item.parent] == nil {
				edges[item.parent] = make(map[string]bool)
			}
			edges[item.parent][item.id] = true
		}

		if existing, ok := resolved[item.id]; ok && item.rng.Satisfies(existing) {
			continue // nearest-wins: the nearer pin already satisfies this edge
		}

		visits[item.id]++
		if visits[item.id] > maxTreeVisitsPerID {
			g.warn("%s: exceeded resolution attempts, likely a dependency cycle; keeping last pinned version", item.name)
			continue
		}

		best, err := registry.FindBestVersion(ctx, item.name, item.rng, rangeWantsPrerelease(item.rng))
		if err != nil || best == nil {
			if item.rng.MinVersion == nil {
				g.warn("%s: no version satisfies %s and no lower bound to fall back to, dropping", item.name, item.rng.String())
				continue
			}
			resolved[item.id] = item.rng.MinVersion
			g.warn("%s: no version satisfies %s, pinning to range minimum %s", item.name, item.rng.String(), item.rng.MinVersion.String())
			continue
		}

		resolved[item.id] = best

		deps, err := registry.DependenciesFor(ctx, item.name, best, tfm)
		if err != nil {
			g.warn("%s %s: failed to fetch dependencies: %v", item.name, best.String(), err)
			continue
		}
		for _, dep := range deps {
			depID := strings.ToLower(dep.ID)
			names[depID] = dep.ID
			worklist = append(worklist, treeWorkItem{id: depID, name: dep.ID, rng: dep.VersionRange, parent: item.id})
		}
	}

	for id, ver := range resolved {
		node := &Node{ID: names[id], Version: ver}
		for childID := range edges[id] {
			node.Dependencies = append(node.Dependencies, childID)
		}
		sort.Strings(node.Dependencies)
		g.Nodes[id] = node
	}

	targeted := make(map[string]bool)
	for parent, children := range edges {
		if parent == "" {
			continue
		}
		for child := range children {
			targeted[child] = true
		}
	}
	for child := range edges[""] {
		if !targeted[child] {
			g.Roots = append(g.Roots, child)
		}
	}
	sort.Strings(g.Roots)

	return g, nil
}
