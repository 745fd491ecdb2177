package manifest

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	"github.com/nuget-resolve/resolver/frameworks"
	"github.com/nuget-resolve/resolver/version"
)

// projectRoot mirrors the <Project> root element of a .csproj/.vbproj/
// .fsproj file, grounded on the teacher's cmd/gonuget/project XML shape.
type projectRoot struct {
	XMLName       xml.Name        `xml:"Project"`
	Sdk           string          `xml:"Sdk,attr,omitempty"`
	PropertyGroup []propertyGroup `xml:"PropertyGroup"`
	ItemGroups    []itemGroup     `xml:"ItemGroup"`
}

type propertyGroup struct {
	Condition              string `xml:"Condition,attr,omitempty"`
	TargetFramework        string `xml:"TargetFramework,omitempty"`
	TargetFrameworks       string `xml:"TargetFrameworks,omitempty"`
	TargetFrameworkVersion string `xml:"TargetFrameworkVersion,omitempty"`
	Version                string `xml:"Version,omitempty"`
	VersionPrefix          string `xml:"VersionPrefix,omitempty"`
	VersionSuffix          string `xml:"VersionSuffix,omitempty"`
}

type itemGroup struct {
	Condition         string             `xml:"Condition,attr,omitempty"`
	PackageReferences []packageReference `xml:"PackageReference"`
	References        []legacyReference  `xml:"Reference"`
}

type packageReference struct {
	Include             string `xml:"Include,attr"`
	VersionAttr         string `xml:"Version,attr,omitempty"`
	VersionElem         string `xml:"Version,omitempty"`
	PrivateAssets       string `xml:"PrivateAssets,attr,omitempty"`
	IncludeAssets       string `xml:"IncludeAssets,attr,omitempty"`
	ExcludeAssets       string `xml:"ExcludeAssets,attr,omitempty"`
	IsImplicitlyDefined string `xml:"IsImplicitlyDefined,attr,omitempty"`
}

func (p packageReference) effectiveVersion() string {
	if p.VersionAttr != "" {
		return p.VersionAttr
	}
	return p.VersionElem
}

type legacyReference struct {
	Include string `xml:"Include,attr"`
}

// ReadProjectFile evaluates a project file's TargetFramework-conditioned
// ItemGroups against projectTFM (PropertyGroup conditions are not
// evaluated) and extracts direct
// dependencies from <PackageReference> and <Reference Include="Name,
// Version=X"> items.
func ReadProjectFile(path string, projectTFM *frameworks.NuGetFramework) (*ResolutionInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}

	var root projectRoot
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("evaluate project file: %w", err)
	}

	input := &ResolutionInput{DataSourceID: DataSourceProjectReference}
	input.ProjectVersion = projectVersionFromProperties(root.PropertyGroup)

	targetAlias := ""
	if projectTFM != nil {
		targetAlias = projectTFM.String()
	}

	for _, ig := range root.ItemGroups {
		if !conditionApplies(ig.Condition, targetAlias) {
			continue
		}

		for _, pr := range ig.PackageReferences {
			if strings.EqualFold(pr.IsImplicitlyDefined, "true") {
				continue
			}

			flags, skip := effectiveIncludeFlags(pr.IncludeAssets, pr.ExcludeAssets, pr.PrivateAssets)
			if skip {
				continue
			}

			rangeStr := pr.effectiveVersion()
			var rng *version.Range
			if rangeStr == "" {
				rng = universalRange()
			} else {
				rng, err = version.ParseVersionRange(rangeStr)
				if err != nil {
					input.addWarning("project file: unparsable version %q for %s, skipping", rangeStr, pr.Include)
					continue
				}
			}

			input.Direct = append(input.Direct, DirectDependency{
				Name:         pr.Include,
				AllowedRange: rng,
				Framework:    projectTFM,
				Flags:        flags,
			})
		}

		for _, ref := range ig.References {
			name, ver, ok := parseLegacyReference(ref.Include)
			if !ok {
				continue
			}
			rng, err := version.ParseVersionRange(ver)
			if err != nil {
				continue
			}
			input.Direct = append(input.Direct, DirectDependency{
				Name:         name,
				AllowedRange: rng,
				Framework:    projectTFM,
				Flags:        FlagDirect,
			})
		}
	}

	return input, nil
}

// ReadXMLFallback is used when MSBuild-style evaluation fails: it loads raw
// XML without evaluating conditions or frameworks, extracting only
// PackageReference/Version pairs.
func ReadXMLFallback(path string) (*ResolutionInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}

	var root projectRoot
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse project file as raw xml: %w", err)
	}

	input := &ResolutionInput{DataSourceID: DataSourceProjectXML}
	input.ProjectVersion = projectVersionFromProperties(root.PropertyGroup)

	for _, ig := range root.ItemGroups {
		for _, pr := range ig.PackageReferences {
			rangeStr := pr.effectiveVersion()
			var rng *version.Range
			if rangeStr == "" {
				rng = universalRange()
			} else {
				rng, err = version.ParseVersionRange(rangeStr)
				if err != nil {
					input.addWarning("xml fallback: unparsable version %q for %s, skipping", rangeStr, pr.Include)
					continue
				}
			}
			input.Direct = append(input.Direct, DirectDependency{
				Name:         pr.Include,
				AllowedRange: rng,
				Flags:        FlagDirect,
			})
		}
	}

	return input, nil
}

func universalRange() *version.Range {
	return &version.Range{MinVersion: version.MustParse("0.0.0"), MinInclusive: true}
}

// projectVersionFromProperties extracts the project's own version per
// §4.4's fallback chain: <Version>, else <VersionPrefix>[-<VersionSuffix>],
// else "1.0.0".
func projectVersionFromProperties(groups []propertyGroup) string {
	for _, g := range groups {
		if g.Version != "" {
			return g.Version
		}
	}
	for _, g := range groups {
		if g.VersionPrefix != "" {
			if g.VersionSuffix != "" {
				return g.VersionPrefix + "-" + g.VersionSuffix
			}
			return g.VersionPrefix
		}
	}
	return "1.0.0"
}

// effectiveIncludeFlags computes the include/exclude/private-assets flags
// for a PackageReference. Returns skip=true when the effective include set
// is empty (IncludeAssets="None" or ExcludeAssets="All").
func effectiveIncludeFlags(includeAssets, excludeAssets, privateAssets string) (IncludeFlag, bool) {
	flags := FlagDirect

	if strings.EqualFold(strings.TrimSpace(includeAssets), "none") {
		return flags, true
	}
	if strings.EqualFold(strings.TrimSpace(excludeAssets), "all") {
		return flags, true
	}
	if excludeAssets != "" {
		flags |= FlagExcludedAssets
	}

	if privateAssets != "" {
		flags |= FlagPrivateAssets
		if strings.EqualFold(strings.TrimSpace(privateAssets), "all") {
			flags |= FlagDevelopmentOnly
		}
	}

	return flags, false
}

// conditionApplies evaluates a narrow subset of MSBuild conditions: those
// comparing $(TargetFramework) against a literal. Any other condition
// shape is treated as always-true — this reader does not implement a full
// MSBuild property evaluator.
func conditionApplies(condition, targetAlias string) bool {
	condition = strings.TrimSpace(condition)
	if condition == "" {
		return true
	}
	if !strings.Contains(condition, "$(TargetFramework)") {
		return true
	}

	parts := strings.SplitN(condition, "==", 2)
	if len(parts) != 2 {
		return true
	}

	want := strings.Trim(strings.TrimSpace(parts[1]), "'")
	return strings.EqualFold(want, targetAlias)
}

// parseLegacyReference parses a legacy <Reference Include="Name, Version=X,
// Culture=neutral, PublicKeyToken=..."> tuple, extracting the assembly name
// and version token.
func parseLegacyReference(include string) (name, version string, ok bool) {
	if !strings.Contains(include, "Version=") {
		return "", "", false
	}

	parts := strings.Split(include, ",")
	name = strings.TrimSpace(parts[0])
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if v, found := strings.CutPrefix(p, "Version="); found {
			return name, v, true
		}
	}
	return "", "", false
}
