package manifest

import (
	"encoding/xml"
	"os"
	"strings"

	"github.com/nuget-resolve/resolver/frameworks"
)

// DetermineFramework picks the project's effective target framework per
// §4.2's precedence: the caller-supplied TFM if it parses; else the first
// of TargetFramework, TargetFrameworkVersion, TargetFrameworks (first
// semicolon-separated entry) found in the project file; else Any.
func DetermineFramework(projectFile, requested string) *frameworks.NuGetFramework {
	if requested != "" {
		if fw, err := frameworks.ParseFramework(requested); err == nil {
			return fw
		}
	}

	if fw := frameworkFromProjectFile(projectFile); fw != nil {
		return fw
	}

	return &frameworks.AnyFramework
}

func frameworkFromProjectFile(path string) *frameworks.NuGetFramework {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var root projectRoot
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil
	}

	for _, pg := range root.PropertyGroup {
		// TargetFrameworkVersion is written "v4.7.2"; its short form is "net472".
		legacy := pg.TargetFrameworkVersion
		if legacy != "" {
			legacy = "net" + strings.ReplaceAll(strings.TrimLeft(legacy, "vV"), ".", "")
		}
		for _, raw := range []string{pg.TargetFramework, legacy} {
			if raw == "" {
				continue
			}
			if fw, err := frameworks.ParseFramework(raw); err == nil {
				return fw
			}
		}
		if pg.TargetFrameworks != "" {
			for _, tok := range strings.Split(pg.TargetFrameworks, ";") {
				tok = strings.TrimSpace(tok)
				if tok == "" {
					continue
				}
				if fw, err := frameworks.ParseFramework(tok); err == nil {
					return fw
				}
			}
		}
	}

	return nil
}
