// Package manifest implements the five mutually-exclusive strategies for
// discovering a project's direct dependencies: project.assets.json,
// project.lock.json, packages.config, project.json, and the project file
// itself (PackageReference, with a raw-XML fallback).
package manifest

import (
	"fmt"

	"github.com/nuget-resolve/resolver/frameworks"
	"github.com/nuget-resolve/resolver/version"
)

// IncludeFlag marks how a direct dependency participates in the build.
type IncludeFlag int

const (
	// FlagDirect marks a dependency explicitly named in the manifest.
	FlagDirect IncludeFlag = 1 << iota
	// FlagDevelopmentOnly marks a dependency that never flows to consumers
	// (e.g. an analyzer, or PrivateAssets="All").
	FlagDevelopmentOnly
	// FlagPrivateAssets marks a dependency whose assets are excluded from
	// the package that references it, but which still participates in
	// resolution of the current project.
	FlagPrivateAssets
	// FlagExcludedAssets marks a dependency with one or more ExcludeAssets
	// entries narrower than "All".
	FlagExcludedAssets
)

// Has reports whether flag is set.
func (f IncludeFlag) Has(flag IncludeFlag) bool {
	return f&flag != 0
}

// DirectDependency is a dependency explicitly named in a project's
// manifest, with the version range and framework it was declared under.
type DirectDependency struct {
	Name         string
	AllowedRange *version.Range
	Framework    *frameworks.NuGetFramework // nil = applies to all frameworks
	Flags        IncludeFlag
}

// Data-source identifiers recorded on a ResolutionInput, naming the
// strategy that produced it. These are the stable, external-facing
// identifiers emitted in the final report.
const (
	DataSourceAssetsJSON       = "dotnet-project.assets.json"
	DataSourceLockJSON         = "dotnet-project.lock.json"
	DataSourcePackagesConfig   = "nuget-packages.config"
	DataSourceProjectJSON      = "dotnet-project.json"
	DataSourceProjectReference = "dotnet-project-reference"
	DataSourceProjectXML       = "dotnet-project-xml"
)

// PinnedLibrary is one entry of a pre-resolved graph emitted by a lockfile
// reader: a concrete (name, version) with its own transitive dependency
// ranges, already pinned by a prior restore.
type PinnedLibrary struct {
	Name         string
	Version      *version.NuGetVersion
	Dependencies []DirectDependency
}

// ResolutionInput is what every manifest reader produces: either a list of
// DirectDependency for a resolver to pin (PackageReference, packages.config,
// project.json), or a pre-pinned graph read straight from a lockfile
// (project.assets.json, project.lock.json). Lockfile readers fill
// PinnedGraph and also record the project's own root constraints in
// Direct; the other readers leave PinnedGraph nil.
type ResolutionInput struct {
	DataSourceID string

	// Direct is populated by DirectDependency-producing readers.
	Direct []DirectDependency

	// PinnedGraph is populated by lockfile readers: already-resolved
	// libraries with their own dependency edges.
	PinnedGraph []PinnedLibrary

	// ProjectVersion is the project's own version, when discoverable.
	ProjectVersion string

	Warnings []string
}

// IsPinned reports whether this input carries a pre-resolved graph rather
// than a set of constraints for a resolver to pin.
func (r *ResolutionInput) IsPinned() bool {
	return r.PinnedGraph != nil
}

func (r *ResolutionInput) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}
