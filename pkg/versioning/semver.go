package versioning

import (
	"fmt"
	"strconv"
	"strings"
)

// BumpType selects which semver component a bump increments.
type BumpType string

const (
	BumpMajor BumpType = "major"
	BumpMinor BumpType = "minor"
	BumpPatch BumpType = "patch"
)

// Valid reports whether the bump type is one of major, minor, patch.
func (t BumpType) Valid() bool {
	switch t {
	case BumpMajor, BumpMinor, BumpPatch:
		return true
	default:
		return false
	}
}

// Version is a parsed "MAJOR.MINOR.PATCH" triple.
type Version struct {
	Major int
	Minor int
	Patch int
}

// ParseVersion parses a strict three-component semantic version. Each
// component must be a non-negative integer; anything else is a
// VersionFormatError. Leading zeros parse fine ("01.02.03" -> 1.2.3) and
// re-format canonically.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, &VersionFormatError{Input: s, Msg: "expected MAJOR.MINOR.PATCH"}
	}

	components := make([]int, 3)

	for i, part := range parts {
		if part == "" {
			return Version{}, &VersionFormatError{Input: s, Msg: "empty component"}
		}

		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return Version{}, &VersionFormatError{Input: s, Msg: fmt.Sprintf("component %q is not a non-negative integer", part)}
		}

		components[i] = n
	}

	return Version{Major: components[0], Minor: components[1], Patch: components[2]}, nil
}

// String renders the canonical form. Formatting is canonical, not
// input-preserving: leading zeros are stripped.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0, or 1 comparing major, then minor, then patch.
func (v Version) Compare(other Version) int {
	switch {
	case v.Major != other.Major:
		return cmpInt(v.Major, other.Major)
	case v.Minor != other.Minor:
		return cmpInt(v.Minor, other.Minor)
	default:
		return cmpInt(v.Patch, other.Patch)
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Bump applies the semver bump rule: major increments major and resets minor
// and patch; minor increments minor and resets patch; patch increments patch
// only.
func (v Version) Bump(t BumpType) (Version, error) {
	switch t {
	case BumpMajor:
		return Version{Major: v.Major + 1}, nil
	case BumpMinor:
		return Version{Major: v.Major, Minor: v.Minor + 1}, nil
	case BumpPatch:
		return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch + 1}, nil
	default:
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidBumpType, t)
	}
}

// CompareVersions parses both inputs and compares them.
func CompareVersions(a, b string) (int, error) {
	va, err := ParseVersion(a)
	if err != nil {
		return 0, err
	}

	vb, err := ParseVersion(b)
	if err != nil {
		return 0, err
	}

	return va.Compare(vb), nil
}
