package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nuget-resolve/resolver/frameworks"
)

// Strategy names one of the five mutually-exclusive resolution strategies.
type Strategy int

const (
	StrategyAssetsJSON Strategy = iota
	StrategyLockJSON
	StrategyPackagesConfig
	StrategyProjectJSON
	StrategyProjectFile
)

// Detect picks the strategy for projectFile per the fixed precedence order:
// obj/project.assets.json, project.lock.json, packages.config,
// project.json, then the project file itself. The first existing input
// wins.
func Detect(projectFile string) (Strategy, string) {
	dir := filepath.Dir(projectFile)

	candidates := []struct {
		strategy Strategy
		path     string
	}{
		{StrategyAssetsJSON, filepath.Join(dir, "obj", "project.assets.json")},
		{StrategyLockJSON, filepath.Join(dir, "project.lock.json")},
		{StrategyPackagesConfig, filepath.Join(dir, "packages.config")},
		{StrategyProjectJSON, filepath.Join(dir, "project.json")},
	}

	for _, c := range candidates {
		if fileExists(c.path) {
			return c.strategy, c.path
		}
	}

	return StrategyProjectFile, projectFile
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Read runs the reader selected by Detect and returns its ResolutionInput.
// projectTFM is the already-determined project target framework (§4.2),
// pre-seeded into readers that need it (PackagesConfigReader filters by it;
// ProjectFileReader evaluates MSBuild conditions against it).
func Read(projectFile string, projectTFM *frameworks.NuGetFramework, withFallback bool) (*ResolutionInput, error) {
	strategy, path := Detect(projectFile)

	switch strategy {
	case StrategyAssetsJSON:
		return ReadAssetsJSON(path)
	case StrategyLockJSON:
		return ReadLockJSON(path)
	case StrategyPackagesConfig:
		return ReadPackagesConfig(path, projectTFM)
	case StrategyProjectJSON:
		return ReadProjectJSON(path)
	case StrategyProjectFile:
		input, err := ReadProjectFile(path, projectTFM)
		if err != nil {
			if !withFallback {
				return nil, fmt.Errorf("evaluate project file %s: %w", path, err)
			}
			return ReadXMLFallback(path)
		}
		return input, nil
	default:
		return nil, fmt.Errorf("unknown manifest strategy for %s", projectFile)
	}
}
