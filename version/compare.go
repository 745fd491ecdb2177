package version

import "strconv"

// Compare compares two versions per NuGet's ordering: major.minor.patch
// first (revision only when both sides are legacy 4-part versions), then
// prerelease labels (a release is greater than any of its prereleases).
// Build metadata never participates in comparison.
//
// Returns -1, 0, or 1.
func (v *NuGetVersion) Compare(other *NuGetVersion) int {
	if c := compareInt(v.Major, other.Major); c != 0 {
		return c
	}
	if c := compareInt(v.Minor, other.Minor); c != 0 {
		return c
	}
	if c := compareInt(v.Patch, other.Patch); c != 0 {
		return c
	}
	if v.IsLegacyVersion && other.IsLegacyVersion {
		if c := compareInt(v.Revision, other.Revision); c != 0 {
			return c
		}
	}
	return compareReleaseLabels(v.ReleaseLabels, other.ReleaseLabels)
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareReleaseLabels compares prerelease label lists. No labels (a
// release) is greater than any non-empty label list. Each label compares
// numeric-vs-numeric as integers, with numeric labels sorting below
// alphanumeric ones; a label list that is a strict prefix of another is
// the lesser of the two.
func compareReleaseLabels(a, b []string) int {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	if len(a) == 0 {
		return 1 // a is a release, b is a prerelease
	}
	if len(b) == 0 {
		return -1
	}

	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareReleaseLabel(a[i], b[i]); c != 0 {
			return c
		}
	}

	return compareInt(len(a), len(b))
}

func compareReleaseLabel(a, b string) int {
	an, aErr := strconv.Atoi(a)
	bn, bErr := strconv.Atoi(b)

	aNumeric := aErr == nil
	bNumeric := bErr == nil

	switch {
	case aNumeric && bNumeric:
		return compareInt(an, bn)
	case aNumeric && !bNumeric:
		return -1
	case !aNumeric && bNumeric:
		return 1
	default:
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
}

// Equals returns true if the two versions compare equal.
func (v *NuGetVersion) Equals(other *NuGetVersion) bool {
	if v == nil || other == nil {
		return v == other
	}
	return v.Compare(other) == 0
}

// LessThan returns true if v sorts before other.
func (v *NuGetVersion) LessThan(other *NuGetVersion) bool {
	return v.Compare(other) < 0
}

// GreaterThan returns true if v sorts after other.
func (v *NuGetVersion) GreaterThan(other *NuGetVersion) bool {
	return v.Compare(other) > 0
}

// IsPrerelease returns true if the version carries prerelease labels.
func (v *NuGetVersion) IsPrerelease() bool {
	return len(v.ReleaseLabels) > 0
}
