package manifest

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	"github.com/nuget-resolve/resolver/frameworks"
	"github.com/nuget-resolve/resolver/version"
)

// packagesConfigRoot mirrors the <packages> root element of a
// packages.config file (legacy .NET Framework package management).
type packagesConfigRoot struct {
	XMLName  xml.Name              `xml:"packages"`
	Packages []packagesConfigEntry `xml:"package"`
}

type packagesConfigEntry struct {
	ID              string `xml:"id,attr"`
	Version         string `xml:"version,attr"`
	TargetFramework string `xml:"targetFramework,attr"`
	AllowedVersions string `xml:"allowedVersions,attr,omitempty"`
	DevelopmentDep  bool   `xml:"developmentDependency,attr,omitempty"`
}

// ReadPackagesConfig parses a packages.config file into direct dependencies.
// Each entry is pinned to its exact recorded version ([version,version]).
// Duplicate ids keep the first occurrence; entries whose targetFramework is
// incompatible with projectTFM are skipped.
func ReadPackagesConfig(path string, projectTFM *frameworks.NuGetFramework) (*ResolutionInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read packages.config: %w", err)
	}

	var root packagesConfigRoot
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse packages.config: %w", err)
	}

	input := &ResolutionInput{DataSourceID: DataSourcePackagesConfig}

	seen := make(map[string]bool)
	for _, pkg := range root.Packages {
		key := strings.ToLower(pkg.ID)
		if seen[key] {
			continue // first occurrence wins
		}

		var entryFW *frameworks.NuGetFramework
		if pkg.TargetFramework != "" {
			entryFW, err = frameworks.ParseFramework(pkg.TargetFramework)
			if err != nil {
				input.addWarning("packages.config: unparsable targetFramework %q for %s, skipping", pkg.TargetFramework, pkg.ID)
				continue
			}
			if projectTFM != nil && !entryFW.IsCompatible(projectTFM) {
				continue
			}
		}

		ver, err := version.Parse(pkg.Version)
		if err != nil {
			input.addWarning("packages.config: unparsable version %q for %s, skipping", pkg.Version, pkg.ID)
			continue
		}

		seen[key] = true
		flags := FlagDirect
		if pkg.DevelopmentDep {
			flags |= FlagDevelopmentOnly
		}

		input.Direct = append(input.Direct, DirectDependency{
			Name: pkg.ID,
			AllowedRange: &version.Range{
				MinVersion: ver, MinInclusive: true,
				MaxVersion: ver, MaxInclusive: true,
			},
			Framework: entryFW,
			Flags:     flags,
		})
	}

	return input, nil
}
