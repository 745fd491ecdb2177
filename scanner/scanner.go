// Package scanner orchestrates one project scan (§4.7): it detects which
// manifest strategy applies, runs the matching reader, drives the
// appropriate resolver discipline, optionally enriches every reachable
// node from the registry, and returns the resulting ProjectReport.
package scanner

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/nuget-resolve/resolver/auth"
	"github.com/nuget-resolve/resolver/core"
	"github.com/nuget-resolve/resolver/manifest"
	"github.com/nuget-resolve/resolver/observability"
	"github.com/nuget-resolve/resolver/report"
	"github.com/nuget-resolve/resolver/resolver"
)

// Status is the core's enumerated outcome (§6): Success or Error. A caller
// typically maps Success to exit code 0 and Error to non-zero.
type Status int

const (
	StatusSuccess Status = iota
	StatusError
)

func (s Status) String() string {
	if s == StatusSuccess {
		return "Success"
	}
	return "Error"
}

// defaultNuGetOrgFeed is the well-known public v3 service index, used when
// neither the feeds nor the nuget config registered any source and either
// WithNuGetOrg is set or no nuget config path was given.
const defaultNuGetOrgFeed = "https://api.nuget.org/v3/index.json"

// InputDescriptor is the core's sole configuration surface (§6).
type InputDescriptor struct {
	ProjectFile     string
	TargetFramework string
	Feeds           []string
	NuGetConfigPath string
	WithDetails     bool
	WithFallback    bool
	WithNuGetOrg    bool

	// Logger receives scan progress/warnings; nil uses observability.NullLogger.
	Logger observability.Logger
}

// Result is what Scan returns: the enumerated status plus whatever report
// could be produced, per §7's "the report still contains headers and
// partial dependency results if any were produced" policy.
type Result struct {
	Status Status
	Report *report.ProjectReport
}

// Scan runs one project scan per §4.7's step ordering. It never panics on
// expected conditions; only a condition that makes the report meaningless
// (unreadable manifest, no strategy applies) yields StatusError.
func Scan(ctx context.Context, input InputDescriptor) (*Result, error) {
	scanID := uuid.New().String()
	ctx, span := observability.StartPackageRestoreSpan(ctx, input.ProjectFile, 0)
	defer span.End()

	logger := input.Logger
	if logger == nil {
		logger = observability.NewNullLogger()
	}
	logger = logger.ForContext("ScanID", scanID)
	logger.InfoContext(ctx, "Scanning {ProjectFile}", input.ProjectFile)

	registry, err := buildRegistry(input)
	if err != nil {
		return &Result{Status: StatusError}, fmt.Errorf("build registry client: %w", err)
	}

	tfm := manifest.DetermineFramework(input.ProjectFile, input.TargetFramework)

	resolutionInput, err := manifest.Read(input.ProjectFile, tfm, input.WithFallback)
	if err != nil {
		return &Result{Status: StatusError}, fmt.Errorf("read manifest: %w", err)
	}

	rpt := &report.ProjectReport{
		Name:         projectName(input.ProjectFile),
		Version:      resolutionInput.ProjectVersion,
		Framework:    tfm.String(),
		DataSourceID: resolutionInput.DataSourceID,
		Warnings:     append([]string(nil), resolutionInput.Warnings...),
	}
	if rpt.Version == "" {
		rpt.Version = "1.0.0"
	}

	var graph *resolver.Graph
	switch {
	case resolutionInput.IsPinned():
		graph = pinnedGraphToResolverGraph(resolutionInput)
	case resolutionInput.DataSourceID == manifest.DataSourcePackagesConfig:
		graph, err = resolver.ResolveFlat(ctx, registry, tfm, resolutionInput.Direct)
	default:
		graph, err = resolver.ResolveTree(ctx, registry, tfm, resolutionInput.Direct)
	}
	if err != nil {
		return &Result{Status: StatusError, Report: rpt}, fmt.Errorf("resolve dependencies: %w", err)
	}

	rpt.Warnings = append(rpt.Warnings, graph.Warnings...)
	rpt.Dependencies = report.BuildTree(graph, tfm, resolutionInput.DataSourceID)
	rpt.Flat = report.Flatten(rpt.Dependencies)

	if input.WithDetails {
		enrich(ctx, registry, rpt.Flat)
	}

	return &Result{Status: StatusSuccess, Report: rpt}, nil
}

// enrich walks every distinct node once, filling descriptive metadata.
// Per-node failures become warnings on that node; they never fail the scan.
func enrich(ctx context.Context, registry *core.RegistryClient, pkgs []*report.Package) {
	for _, pkg := range pkgs {
		if pkg.Version == nil {
			continue
		}
		meta, err := registry.Metadata(ctx, pkg.Name, pkg.Version)
		if err != nil {
			pkg.Warnings = append(pkg.Warnings, fmt.Sprintf("metadata enrichment failed: %v", err))
			continue
		}
		report.Enrich(pkg, meta)
	}
}

// pinnedGraphToResolverGraph converts a lockfile reader's pre-resolved
// PinnedLibrary list straight into a resolver.Graph, with no registry
// calls: a lockfile is already a finished resolution (§4.4, §7 "Lockfile
// pass-through").
func pinnedGraphToResolverGraph(input *manifest.ResolutionInput) *resolver.Graph {
	g := &resolver.Graph{Nodes: make(map[string]*resolver.Node)}

	for _, lib := range input.PinnedGraph {
		node := &resolver.Node{ID: lib.Name, Version: lib.Version}
		for _, dep := range lib.Dependencies {
			node.Dependencies = append(node.Dependencies, normalizeLower(dep.Name))
		}
		g.Nodes[normalizeLower(lib.Name)] = node
	}

	targeted := make(map[string]bool)
	for _, node := range g.Nodes {
		for _, depID := range node.Dependencies {
			targeted[depID] = true
		}
	}

	if len(input.Direct) > 0 {
		for _, d := range input.Direct {
			id := normalizeLower(d.Name)
			if _, ok := g.Nodes[id]; ok {
				g.Roots = append(g.Roots, id)
			}
		}
	} else {
		for id := range g.Nodes {
			if !targeted[id] {
				g.Roots = append(g.Roots, id)
			}
		}
	}

	return g
}

func buildRegistry(input InputDescriptor) (*core.RegistryClient, error) {
	repoManager := core.NewRepositoryManager()

	feeds := append([]string(nil), input.Feeds...)

	if input.NuGetConfigPath != "" {
		sources, err := readNuGetConfig(input.NuGetConfigPath)
		if err != nil {
			return nil, err
		}
		for _, s := range sources {
			repo := core.NewSourceRepository(core.RepositoryConfig{
				Name:          s.Name,
				SourceURL:     s.URL,
				Authenticator: sourceAuthenticator(s),
			})
			if err := repoManager.AddRepository(repo); err != nil {
				return nil, err
			}
		}
	}

	for i, url := range feeds {
		repo := core.NewSourceRepository(core.RepositoryConfig{
			Name:      fmt.Sprintf("feed-%d", i),
			SourceURL: url,
		})
		if err := repoManager.AddRepository(repo); err != nil {
			return nil, err
		}
	}

	defaultFeedWanted := input.WithNuGetOrg || input.NuGetConfigPath == ""
	if defaultFeedWanted && len(repoManager.ListRepositories()) == 0 {
		repo := core.NewSourceRepository(core.RepositoryConfig{
			Name:      "nuget.org",
			SourceURL: defaultNuGetOrgFeed,
		})
		if err := repoManager.AddRepository(repo); err != nil {
			return nil, err
		}
	}

	client := core.NewClient(core.ClientConfig{RepositoryManager: repoManager})
	return core.NewRegistryClient(client), nil
}

func sourceAuthenticator(s feedSource) auth.Authenticator {
	if s.Username == "" && s.Password == "" {
		return nil
	}
	return auth.NewBasicAuthenticator(s.Username, s.Password)
}

func projectName(projectFile string) string {
	base := filepath.Base(projectFile)
	return base[:len(base)-len(filepath.Ext(base))]
}

func normalizeLower(s string) string {
	return strings.ToLower(s)
}
