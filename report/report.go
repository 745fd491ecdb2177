// Package report builds the immutable snapshot tree handed to the external
// JSON encoder: a ProjectReport rooted on the scanned project, with a
// Package per resolved node carrying purl, descriptive metadata, and
// per-node warnings/errors.
package report

import (
	"sort"
	"strings"

	"github.com/nuget-resolve/resolver/core"
	"github.com/nuget-resolve/resolver/frameworks"
	"github.com/nuget-resolve/resolver/resolver"
	"github.com/nuget-resolve/resolver/version"
)

// ResolvedNode is the graph-vertex identity: (name, pinned version,
// framework). Two nodes with the same identity tuple are the same vertex.
type ResolvedNode struct {
	Name      string
	Version   *version.NuGetVersion
	Framework *frameworks.NuGetFramework
}

// Package is a ResolvedNode enriched with the descriptive fields a report
// consumer expects, plus its own outgoing dependency edges and any
// warnings/errors recorded against it during resolution or enrichment.
type Package struct {
	ResolvedNode

	Purl         string
	DataSourceID string
	DataFilePath string

	Authors           []string
	LicenseExpression string
	Licenses          []string
	Description       string
	Keywords          []string
	ProjectURL        string
	RepositoryURL     string
	DownloadURL       string
	Size              int64
	SHA512            string

	Dependencies []*Package

	Warnings []string
	Errors   []string
}

// ProjectReport is the root of the snapshot tree: the scanned project, its
// effective framework, the strategy that produced its direct deps, the full
// pinned dependency tree, and a deduplicated flat view of the same nodes.
type ProjectReport struct {
	Name         string
	Version      string
	Framework    string
	DataSourceID string

	Dependencies []*Package
	Flat         []*Package

	Warnings []string
	Errors   []string
}

// NewPurl formats the package-url identifier for a (name, version) pair.
// The name is lowercased per the external-interface convention; version
// case is preserved as registered.
func NewPurl(name, ver string) string {
	return "pkg:nuget/" + strings.ToLower(name) + "@" + ver
}

// BuildTree converts a resolved dependency graph into the report's Package
// tree, sharing one *Package per graph id across every parent that
// references it (so the in-memory tree has genuinely shared subtrees, even
// though each occurrence still carries its full nested Dependencies).
func BuildTree(g *resolver.Graph, tfm *frameworks.NuGetFramework, dataSourceID string) []*Package {
	built := make(map[string]*Package, len(g.Nodes))
	var build func(id string, visiting map[string]bool) *Package
	build = func(id string, visiting map[string]bool) *Package {
		if pkg, ok := built[id]; ok {
			return pkg
		}
		node, ok := g.Nodes[id]
		if !ok {
			return nil
		}

		pkg := &Package{
			ResolvedNode: ResolvedNode{
				Name:      node.ID,
				Version:   node.Version,
				Framework: tfm,
			},
			Purl:         NewPurl(node.ID, versionString(node.Version)),
			DataSourceID: dataSourceID,
		}
		if node.Warning != "" {
			pkg.Warnings = append(pkg.Warnings, node.Warning)
		}
		built[id] = pkg

		if visiting[id] {
			return pkg // defensive cycle break; a valid graph never hits this
		}
		visiting[id] = true

		for _, depID := range node.Dependencies {
			if child := build(depID, visiting); child != nil {
				pkg.Dependencies = append(pkg.Dependencies, child)
			}
		}
		delete(visiting, id)

		return pkg
	}

	roots := make([]*Package, 0, len(g.Roots))
	for _, id := range g.Roots {
		if pkg := build(id, map[string]bool{}); pkg != nil {
			roots = append(roots, pkg)
		}
	}
	Sort(roots)
	return roots
}

// Flatten walks the tree once and returns every distinct Package
// (deduplicated by pointer identity) in sorted order.
func Flatten(roots []*Package) []*Package {
	seen := make(map[*Package]bool)
	var flat []*Package
	var walk func(*Package)
	walk = func(p *Package) {
		if seen[p] {
			return
		}
		seen[p] = true
		flat = append(flat, p)
		for _, dep := range p.Dependencies {
			walk(dep)
		}
	}
	for _, p := range roots {
		walk(p)
	}
	Sort(flat)
	return flat
}

// Sort orders packages by the identity tuple (type, namespace, name,
// version, qualifiers, subpath) lowercased, per §4.8/§8. type is always
// "nuget" and namespace/qualifiers/subpath are always empty in this
// ecosystem, so in practice this reduces to (name, version), but the key
// function below spells out the full tuple for fidelity to the invariant.
func Sort(pkgs []*Package) {
	sort.Slice(pkgs, func(i, j int) bool {
		return sortKey(pkgs[i]) < sortKey(pkgs[j])
	})
	for _, p := range pkgs {
		if len(p.Dependencies) > 1 {
			Sort(p.Dependencies)
		}
	}
}

func sortKey(p *Package) string {
	const typ = "nuget"
	const namespace, qualifiers, subpath = "", "", ""
	return strings.ToLower(strings.Join([]string{
		typ, namespace, p.Name, versionString(p.Version), qualifiers, subpath,
	}, "\x00"))
}

// Enrich fills a Package's descriptive fields from registry metadata:
// authors, description (the summary when the description is empty),
// project URL, keywords (the tags as given, not split further), and a
// license list holding only the license URL. LicenseExpression,
// RepositoryURL, DownloadURL, Size and SHA512 are not filled. It never
// returns an error; nil metadata becomes a node warning.
func Enrich(pkg *Package, meta *core.PackageMetadata) {
	if meta == nil {
		pkg.Warnings = append(pkg.Warnings, "metadata enrichment returned no data")
		return
	}

	pkg.Authors = meta.Authors
	pkg.Description = meta.Description
	if meta.Summary != "" && pkg.Description == "" {
		pkg.Description = meta.Summary
	}
	pkg.ProjectURL = meta.ProjectURL
	if len(meta.Tags) > 0 {
		pkg.Keywords = meta.Tags
	}

	var licenses []string
	if meta.LicenseURL != "" {
		licenses = append(licenses, meta.LicenseURL)
	}
	pkg.Licenses = licenses
}

func versionString(v *version.NuGetVersion) string {
	if v == nil {
		return ""
	}
	return v.String()
}
