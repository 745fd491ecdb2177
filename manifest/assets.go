package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/nuget-resolve/resolver/version"
)

// lockFileDocument is the shared shape of project.assets.json and
// project.lock.json: a map of target framework to resolved libraries, a
// flat library metadata table, and a project section carrying the raw
// per-framework constraint lines this graph was pinned from.
type lockFileDocument struct {
	Version                     int                             `json:"version"`
	Targets                     map[string]map[string]lockEntry `json:"targets"`
	Libraries                   map[string]lockLibrary          `json:"libraries"`
	ProjectFileDependencyGroups map[string][]string             `json:"projectFileDependencyGroups"`
	Project                     lockProjectSection              `json:"project"`
}

// lockEntry is one resolved library under one target framework, keyed in
// the document by "id/version".
type lockEntry struct {
	Type         string            `json:"type"`
	Dependencies map[string]string `json:"dependencies"`
}

type lockLibrary struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

type lockProjectSection struct {
	Version    string                         `json:"version"`
	Frameworks map[string]lockProjectFramework `json:"frameworks"`
}

type lockProjectFramework struct {
	Dependencies map[string]string `json:"dependencies"`
}

// ReadAssetsJSON parses obj/project.assets.json into a pre-pinned graph.
func ReadAssetsJSON(path string) (*ResolutionInput, error) {
	return readLockFormat(path, DataSourceAssetsJSON)
}

// ReadLockJSON parses the legacy project.lock.json into a pre-pinned graph.
// The document shape is the same as project.assets.json for the fields
// this reader cares about.
func ReadLockJSON(path string) (*ResolutionInput, error) {
	return readLockFormat(path, DataSourceLockJSON)
}

func readLockFormat(path, dataSourceID string) (*ResolutionInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var doc lockFileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	input := &ResolutionInput{DataSourceID: dataSourceID}
	if doc.Project.Version != "" {
		input.ProjectVersion = doc.Project.Version
	}

	// Index every resolved library version per id, across all targets, so
	// dependency ranges can be matched against what the lockfile actually
	// pinned (§4.4: "compute best_match against the target's library
	// versions; if none, fall back to the range's min").
	versionsByID := make(map[string][]*version.NuGetVersion)
	for _, libs := range doc.Targets {
		for key := range libs {
			id, ver, ok := splitLockKey(key)
			if !ok {
				continue
			}
			versionsByID[strings.ToLower(id)] = append(versionsByID[strings.ToLower(id)], ver)
		}
	}

	seen := make(map[string]bool)
	for _, libs := range doc.Targets {
		for key, entry := range libs {
			if entry.Type != "package" && entry.Type != "" {
				continue
			}
			id, ver, ok := splitLockKey(key)
			if !ok {
				continue
			}
			if seen[strings.ToLower(id)+"|"+ver.String()] {
				continue
			}
			seen[strings.ToLower(id)+"|"+ver.String()] = true

			lib := PinnedLibrary{Name: id, Version: ver}
			for depID, depRangeStr := range entry.Dependencies {
				rng, err := version.ParseVersionRange(depRangeStr)
				if err != nil {
					input.addWarning("%s: unparsable dependency range %q for %s, skipping", dataSourceID, depRangeStr, depID)
					continue
				}

				candidates := versionsByID[strings.ToLower(depID)]
				if rng.FindBestMatch(candidates) == nil {
					input.addWarning("%s: no pinned version of %s satisfies %s, falling back to range bound", dataSourceID, depID, rng.String())
				}

				lib.Dependencies = append(lib.Dependencies, DirectDependency{
					Name:         depID,
					AllowedRange: rng,
				})
			}

			input.PinnedGraph = append(input.PinnedGraph, lib)
		}
	}

	// Root constraints: project.frameworks[].dependencies, or each
	// projectFileDependencyGroups[] "name OP version" line when the
	// structured section is empty.
	for _, fw := range doc.Project.Frameworks {
		for name, rangeStr := range fw.Dependencies {
			rng, err := version.ParseVersionRange(rangeStr)
			if err != nil {
				continue
			}
			input.Direct = append(input.Direct, DirectDependency{Name: name, AllowedRange: rng, Flags: FlagDirect})
		}
	}

	if len(input.Direct) == 0 {
		for _, lines := range doc.ProjectFileDependencyGroups {
			for _, line := range lines {
				dep, warning, ok := parseDependencyGroupLine(line)
				if warning != "" {
					input.addWarning("%s: %s", dataSourceID, warning)
				}
				if ok {
					input.Direct = append(input.Direct, dep)
				}
			}
		}
	}

	return input, nil
}

func splitLockKey(key string) (id string, ver *version.NuGetVersion, ok bool) {
	idx := strings.LastIndexByte(key, '/')
	if idx < 0 {
		return "", nil, false
	}
	id = key[:idx]
	v, err := version.Parse(key[idx+1:])
	if err != nil {
		return "", nil, false
	}
	return id, v, true
}

// dependencyGroupLinePattern matches "Name OP Version" where OP is one of
// the four relational operators NuGet emits in projectFileDependencyGroups.
var dependencyGroupLinePattern = regexp.MustCompile(`^(\S+)\s*(>=|<=|>|<)\s*(\S+)(.*)$`)

// parseDependencyGroupLine parses one raw "name OP version" constraint
// line. Two-sided constraints such as "A >= 1.0.0 < 2.0.0" are a known
// open question (see decision in SPEC_FULL.md): only the first operator is
// honored, and a warning is returned describing the unsupported second
// clause.
func parseDependencyGroupLine(line string) (dep DirectDependency, warning string, ok bool) {
	m := dependencyGroupLinePattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return DirectDependency{}, fmt.Sprintf("unparsable dependency constraint %q", line), false
	}

	name, op, verStr, rest := m[1], m[2], m[3], strings.TrimSpace(m[4])

	ver, err := version.Parse(verStr)
	if err != nil {
		return DirectDependency{}, fmt.Sprintf("unparsable version %q in constraint %q", verStr, line), false
	}

	var rng *version.Range
	switch op {
	case ">=":
		rng = &version.Range{MinVersion: ver, MinInclusive: true}
	case ">":
		rng = &version.Range{MinVersion: ver, MinInclusive: false}
	case "<=":
		rng = &version.Range{MaxVersion: ver, MaxInclusive: true}
	case "<":
		rng = &version.Range{MaxVersion: ver, MaxInclusive: false}
	}

	dep = DirectDependency{Name: name, AllowedRange: rng, Flags: FlagDirect}

	if rest != "" {
		warning = fmt.Sprintf("unsupported two-sided constraint, using lower bound only: %q", line)
	}

	return dep, warning, true
}
