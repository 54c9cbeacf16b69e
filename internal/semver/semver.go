// Package semver wraps github.com/Masterminds/semver/v3 behind the small
// surface the module runtime needs: parsing, comparison, and max-satisfying
// range resolution.
package semver

import (
	"fmt"

	mm "github.com/Masterminds/semver/v3"
)

// Version is a parsed semantic version.
type Version struct {
	v *mm.Version
}

// Range is a semantic version range.
//
// Examples:
//   - "^1.0.0"
//   - "~2.1.0"
//   - ">=1.2.0 <2.0.0"
type Range struct {
	c *mm.Constraints
}

// ParseVersion parses raw as a semantic version.
func ParseVersion(raw string) (Version, error) {
	v, err := mm.NewVersion(raw)
	if err != nil {
		return Version{}, fmt.Errorf("semver: parse version %q: %w", raw, err)
	}
	return Version{v: v}, nil
}

// MustParseVersion is ParseVersion panicking on error. For tests and
// compiled-in constants.
func MustParseVersion(raw string) Version {
	v, err := ParseVersion(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// ParseRange parses raw as a version range.
func ParseRange(raw string) (Range, error) {
	c, err := mm.NewConstraint(raw)
	if err != nil {
		return Range{}, fmt.Errorf("semver: parse range %q: %w", raw, err)
	}
	return Range{c: c}, nil
}

// MustParseRange is ParseRange panicking on error.
func MustParseRange(raw string) Range {
	c, err := ParseRange(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// IsZero reports whether v is the zero Version (never parsed).
func (v Version) IsZero() bool { return v.v == nil }

// String returns the canonical form of the version, or "" for the zero value.
func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.v.String()
}

// String returns the original range text, or "" for the zero value.
func (r Range) String() string {
	if r.c == nil {
		return ""
	}
	return r.c.String()
}

// Satisfies reports whether v lies within r. The zero Version or zero Range
// never satisfies.
func Satisfies(v Version, r Range) bool {
	if v.v == nil || r.c == nil {
		return false
	}
	return r.c.Check(v.v)
}

// Compare compares a and b, returning:
// -1 if a < b
//
//	0 if a == b
//	1 if a > b
//
// The zero Version sorts below any parsed version.
func Compare(a, b Version) int {
	if a.v == nil && b.v == nil {
		return 0
	}
	if a.v == nil {
		return -1
	}
	if b.v == nil {
		return 1
	}
	return a.v.Compare(b.v)
}

// MaxSatisfying returns the highest version in candidates that lies within r.
//
// If multiple versions compare equal, the first encountered wins.
func MaxSatisfying(r Range, candidates []Version) (Version, bool) {
	var best Version
	found := false
	for _, candidate := range candidates {
		if !Satisfies(candidate, r) {
			continue
		}
		if !found || Compare(candidate, best) > 0 {
			best = candidate
			found = true
		}
	}
	return best, found
}
