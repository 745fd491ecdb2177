package manifest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nuget-resolve/resolver/version"
)

// projectJSONDocument mirrors the legacy project.json format used by
// early .NET Core tooling before MSBuild's PackageReference replaced it.
type projectJSONDocument struct {
	Version      string                                 `json:"version"`
	Dependencies map[string]json.RawMessage             `json:"dependencies"`
	Frameworks   map[string]projectJSONFrameworkSection `json:"frameworks"`
}

type projectJSONFrameworkSection struct {
	Dependencies map[string]json.RawMessage `json:"dependencies"`
}

// projectJSONDependencyDetail covers the object form of a dependency value,
// e.g. {"version": "1.0.0", "type": "build"}.
type projectJSONDependencyDetail struct {
	Version string `json:"version"`
	Type    string `json:"type"`
}

// ReadProjectJSON parses a project.json file. Top-level dependencies apply
// to every framework; per-framework dependencies under "frameworks" are
// read only when the top level has none, and are then not merged with
// anything. Project-level roots come from packageSpec.dependencies, or
// each targetFrameworks[].dependencies when the top level is empty, per
// §4.4.
func ReadProjectJSON(path string) (*ResolutionInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project.json: %w", err)
	}

	var doc projectJSONDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse project.json: %w", err)
	}

	input := &ResolutionInput{DataSourceID: DataSourceProjectJSON}
	if doc.Version != "" {
		input.ProjectVersion = doc.Version
	}

	if len(doc.Dependencies) > 0 {
		for name, raw := range doc.Dependencies {
			dep, ok := parseProjectJSONDependency(name, raw)
			if !ok {
				input.addWarning("project.json: unparsable dependency version for %s, skipping", name)
				continue
			}
			input.Direct = append(input.Direct, dep)
		}
		return input, nil
	}

	for _, section := range doc.Frameworks {
		for name, raw := range section.Dependencies {
			dep, ok := parseProjectJSONDependency(name, raw)
			if !ok {
				input.addWarning("project.json: unparsable dependency version for %s, skipping", name)
				continue
			}
			input.Direct = append(input.Direct, dep)
		}
	}

	return input, nil
}

func parseProjectJSONDependency(name string, raw json.RawMessage) (DirectDependency, bool) {
	var versionStr string

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		versionStr = asString
	} else {
		var detail projectJSONDependencyDetail
		if err := json.Unmarshal(raw, &detail); err != nil {
			return DirectDependency{}, false
		}
		versionStr = detail.Version
	}

	if versionStr == "" {
		return DirectDependency{Name: name, AllowedRange: universalRange(), Flags: FlagDirect}, true
	}

	rng, err := version.ParseVersionRange(versionStr)
	if err != nil {
		return DirectDependency{}, false
	}

	return DirectDependency{Name: name, AllowedRange: rng, Flags: FlagDirect}, true
}
