package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse parses a NuGet version string into a NuGetVersion.
//
// Accepts both SemVer 2.0 style versions (Major.Minor.Patch[-Prerelease][+Metadata])
// and legacy 4-part versions (Major.Minor.Build.Revision). A bare "Major.Minor" is
// accepted and the missing Patch segment defaults to zero.
func Parse(s string) (*NuGetVersion, error) {
	original := s
	if s == "" {
		return nil, fmt.Errorf("version string is empty")
	}

	// Split off build metadata first: everything after the first '+'.
	metadata := ""
	if idx := strings.IndexByte(s, '+'); idx >= 0 {
		metadata = s[idx+1:]
		s = s[:idx]
	}

	// Split off prerelease labels: everything after the first '-' that
	// follows the numeric core (legacy 4-part versions never carry one).
	var releaseLabels []string
	if idx := strings.IndexByte(s, '-'); idx >= 0 {
		prerelease := s[idx+1:]
		s = s[:idx]
		if prerelease == "" {
			return nil, fmt.Errorf("invalid version %q: empty prerelease label", original)
		}
		releaseLabels = strings.Split(prerelease, ".")
		for _, label := range releaseLabels {
			if label == "" {
				return nil, fmt.Errorf("invalid version %q: empty prerelease label segment", original)
			}
		}
	}

	parts := strings.Split(s, ".")
	if len(parts) < 2 || len(parts) > 4 {
		return nil, fmt.Errorf("invalid version %q: expected 2 to 4 numeric segments", original)
	}

	nums := make([]int, 4)
	for i, part := range parts {
		n, err := parseNonNegativeInt(part)
		if err != nil {
			return nil, fmt.Errorf("invalid version %q: %w", original, err)
		}
		nums[i] = n
	}

	isLegacy := len(parts) == 4

	return &NuGetVersion{
		Major:           nums[0],
		Minor:           nums[1],
		Patch:           nums[2],
		Revision:        nums[3],
		IsLegacyVersion: isLegacy,
		ReleaseLabels:   releaseLabels,
		Metadata:        metadata,
		originalString:  original,
	}, nil
}

// MustParse parses a version string, panicking on error.
// Use only when the input is known to be valid (tests, constants).
func MustParse(s string) *NuGetVersion {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func parseNonNegativeInt(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty numeric segment")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("non-numeric segment %q", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative segment %q", s)
	}
	return n, nil
}

// ToNormalizedString returns the canonical normalized form of the version,
// independent of whatever string it was originally parsed from.
func (v *NuGetVersion) ToNormalizedString() string {
	return v.format()
}
