package core

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/nuget-resolve/resolver/frameworks"
	"github.com/nuget-resolve/resolver/observability"
	"github.com/nuget-resolve/resolver/version"
)

// RegistryClient is the resolver-facing view of a package feed: it answers
// "what versions exist" and "what does version X depend on" exactly once
// per package id, no matter how many edges in the dependency graph ask the
// same question. Computation is shared via singleflight so concurrent
// resolver goroutines asking about the same id block on one HTTP round
// trip instead of issuing N duplicates.
type RegistryClient struct {
	client *Client

	group singleflight.Group

	mu        sync.RWMutex
	versions  map[string][]*version.NuGetVersion
	metaByKey map[string]*PackageMetadata
}

// NewRegistryClient builds a RegistryClient over an already-configured
// Client (repositories, auth, caching already wired).
func NewRegistryClient(client *Client) *RegistryClient {
	return &RegistryClient{
		client:    client,
		versions:  make(map[string][]*version.NuGetVersion),
		metaByKey: make(map[string]*PackageMetadata),
	}
}

func normalizeID(id string) string {
	return strings.ToLower(id)
}

// FindVersions returns every version of packageID available across all
// configured sources, computed at most once per packageID for the
// lifetime of this RegistryClient.
func (r *RegistryClient) FindVersions(ctx context.Context, packageID string) ([]*version.NuGetVersion, error) {
	key := normalizeID(packageID)

	r.mu.RLock()
	if cached, ok := r.versions[key]; ok {
		r.mu.RUnlock()
		observability.RecordCacheHit(ctx, true)
		return cached, nil
	}
	r.mu.RUnlock()

	v, err, _ := r.group.Do("versions:"+key, func() (any, error) {
		observability.RecordCacheHit(ctx, false)
		strs, err := r.client.ListVersions(ctx, packageID)
		if err != nil {
			return nil, err
		}

		parsed := make([]*version.NuGetVersion, 0, len(strs))
		for _, s := range strs {
			ver, perr := version.Parse(s)
			if perr != nil {
				continue
			}
			parsed = append(parsed, ver)
		}

		r.mu.Lock()
		r.versions[key] = parsed
		r.mu.Unlock()

		return parsed, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]*version.NuGetVersion), nil
}

// FindBestVersion resolves a version range to the lowest version in scope
// that satisfies it, per the package manager's nearest-applicable pinning
// behavior (see version.Range.FindBestMatch).
func (r *RegistryClient) FindBestVersion(ctx context.Context, packageID string, rng *version.Range, includePrerelease bool) (*version.NuGetVersion, error) {
	versions, err := r.FindVersions(ctx, packageID)
	if err != nil {
		return nil, err
	}

	candidates := versions
	if !includePrerelease {
		candidates = make([]*version.NuGetVersion, 0, len(versions))
		for _, v := range versions {
			if !v.IsPrerelease() {
				candidates = append(candidates, v)
			}
		}
	}

	best := rng.FindBestMatch(candidates)
	if best == nil {
		return nil, fmt.Errorf("no version of %s satisfies range %s", packageID, rng.String())
	}

	return best, nil
}

// Metadata fetches full package metadata (dependency groups, description,
// authors, etc) for one specific version, memoized per id+version.
func (r *RegistryClient) Metadata(ctx context.Context, packageID string, ver *version.NuGetVersion) (*PackageMetadata, error) {
	key := normalizeID(packageID) + "|" + ver.String()

	r.mu.RLock()
	if cached, ok := r.metaByKey[key]; ok {
		r.mu.RUnlock()
		observability.RecordCacheHit(ctx, true)
		return cached, nil
	}
	r.mu.RUnlock()

	m, err, _ := r.group.Do("meta:"+key, func() (any, error) {
		observability.RecordCacheHit(ctx, false)
		protoMeta, err := r.client.GetPackageMetadata(ctx, packageID, ver.String())
		if err != nil {
			return nil, err
		}

		meta := protocolMetadataToPackageMetadata(protoMeta)

		r.mu.Lock()
		r.metaByKey[key] = meta
		r.mu.Unlock()

		return meta, nil
	})
	if err != nil {
		return nil, err
	}

	return m.(*PackageMetadata), nil
}

// DependenciesFor returns the dependencies of packageID@ver that apply to
// target, following the nearest-compatible-framework-group rule.
func (r *RegistryClient) DependenciesFor(ctx context.Context, packageID string, ver *version.NuGetVersion, target *frameworks.NuGetFramework) ([]PackageDependency, error) {
	meta, err := r.Metadata(ctx, packageID, ver)
	if err != nil {
		return nil, err
	}

	if target == nil {
		all := []PackageDependency{}
		for _, group := range meta.DependencyGroups {
			all = append(all, group.Dependencies...)
		}
		return all, nil
	}

	return meta.GetDependenciesForFramework(target), nil
}

// protocolMetadataToPackageMetadata adapts the wire-level ProtocolMetadata
// (v2/v3 feed response) into the engine's internal PackageMetadata shape.
func protocolMetadataToPackageMetadata(p *ProtocolMetadata) *PackageMetadata {
	ver, _ := version.Parse(p.Version)

	meta := &PackageMetadata{
		Identity: PackageIdentity{
			ID:      p.ID,
			Version: ver,
		},
		Title:                    p.Title,
		Description:              p.Description,
		Summary:                  p.Summary,
		ProjectURL:               p.ProjectURL,
		LicenseURL:               p.LicenseURL,
		IconURL:                  p.IconURL,
		Authors:                  p.Authors,
		Owners:                   p.Owners,
		Tags:                     p.Tags,
		RequireLicenseAcceptance: p.RequireLicenseAcceptance,
		Listed:                   true,
	}

	for _, group := range p.Dependencies {
		var fw *frameworks.NuGetFramework
		if group.TargetFramework != "" {
			parsed, err := frameworks.ParseFramework(group.TargetFramework)
			if err == nil {
				fw = parsed
			}
		}

		depGroup := PackageDependencyGroup{TargetFramework: fw}
		for _, d := range group.Dependencies {
			rangeStr := d.Range
			if rangeStr == "" {
				rangeStr = "0.0.0"
			}
			rng, err := version.ParseVersionRange(rangeStr)
			if err != nil {
				continue
			}
			depGroup.Dependencies = append(depGroup.Dependencies, PackageDependency{
				ID:           d.ID,
				VersionRange: rng,
			})
		}

		meta.DependencyGroups = append(meta.DependencyGroups, depGroup)
	}

	return meta
}
