// Package descriptor defines the immutable description of a discovered
// module: its identity, entry point, and dependency requirements. A
// Descriptor is constructed once from a validated manifest and never mutated
// afterwards; every later phase (registry, linking, lifecycle) reads from it.
package descriptor

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Sasha-Sorokin/alphaid-bot/internal/fsutil"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/semver"
)

// Name length bounds enforced by ValidateName.
const (
	NameMinLen = 3
	NameMaxLen = 32
)

// nameAlphabet is the set of runes allowed in a module name.
const nameAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_.-"

// Default entry settings applied when a manifest (and its routing defaults)
// leave them unset.
const (
	DefaultEntryFile   = "module.go"
	DefaultEntrySymbol = "NewModule"
)

// OptionalMarker is the suffix on a dependency range that marks the
// dependency as optional, e.g. "^1.0.0?".
const OptionalMarker = "?"

// Origin tells which root a module was discovered under.
type Origin int

const (
	// OriginPrimary marks modules from the primary modules directory.
	OriginPrimary Origin = iota
	// OriginExternal marks modules from the external packages directory.
	OriginExternal
)

func (o Origin) String() string {
	switch o {
	case OriginPrimary:
		return "primary"
	case OriginExternal:
		return "external"
	default:
		return fmt.Sprintf("origin(%d)", int(o))
	}
}

// Dependency is a single requirement declared by a module: the required
// module's name, the accepted version range, and whether the requirement may
// be skipped when no candidate satisfies it.
type Dependency struct {
	Name     string
	Range    semver.Range
	RawRange string
	Optional bool
}

// Descriptor is the immutable record of one discovered module version. All
// fields are validated at construction; accessors never return mutable
// references to internal state.
type Descriptor struct {
	name           string
	version        semver.Version
	dir            string
	entryPath      string
	entrySymbol    string
	singleInstance bool
	origin         Origin
	deps           []Dependency
}

// Params carries the raw manifest values New validates into a Descriptor.
// Version, Main, and EntrySymbol may already reflect routing defaults;
// zero-valued Main and EntrySymbol fall back to the package defaults.
type Params struct {
	Name           string
	Version        string
	Dir            string
	Main           string
	EntrySymbol    string
	SingleInstance bool
	Origin         Origin
	Dependencies   map[string]string
}

// New validates p and returns the finished Descriptor.
//
// Validation failures are typed per the runtime's error policy: a version or
// range that fails to parse yields *InvalidVersionError, an entry file
// resolving outside its module directory yields *PathEscapeError. Either
// invalidates this descriptor only; callers skip it and continue.
func New(p Params) (*Descriptor, error) {
	if err := ValidateName(p.Name); err != nil {
		return nil, err
	}

	version, err := semver.ParseVersion(p.Version)
	if err != nil {
		return nil, &InvalidVersionError{Module: p.Name, What: "version", Raw: p.Version, Err: err}
	}

	main := p.Main
	if main == "" {
		main = DefaultEntryFile
	}
	entryPath, err := fsutil.ResolveWithin(p.Dir, main)
	if err != nil {
		return nil, &PathEscapeError{Module: p.Name, Path: main, Dir: p.Dir}
	}

	symbol := p.EntrySymbol
	if symbol == "" {
		symbol = DefaultEntrySymbol
	}

	deps, err := parseDependencies(p.Name, p.Dependencies)
	if err != nil {
		return nil, err
	}

	return &Descriptor{
		name:           p.Name,
		version:        version,
		dir:            p.Dir,
		entryPath:      entryPath,
		entrySymbol:    symbol,
		singleInstance: p.SingleInstance,
		origin:         p.Origin,
		deps:           deps,
	}, nil
}

// parseDependencies converts the manifest's name→range map into a sorted
// Dependency slice. A trailing OptionalMarker on the range is stripped and
// recorded as Optional.
func parseDependencies(module string, raw map[string]string) ([]Dependency, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	slices.Sort(names)

	deps := make([]Dependency, 0, len(names))
	for _, name := range names {
		spec := raw[name]
		optional := strings.HasSuffix(spec, OptionalMarker)
		rawRange := strings.TrimSuffix(spec, OptionalMarker)

		rng, err := semver.ParseRange(rawRange)
		if err != nil {
			return nil, &InvalidVersionError{Module: module, What: "dependency " + name, Raw: spec, Err: err}
		}
		deps = append(deps, Dependency{
			Name:     name,
			Range:    rng,
			RawRange: rawRange,
			Optional: optional,
		})
	}
	return deps, nil
}

// ValidateName checks the module name rules: NameMinLen to NameMaxLen runes,
// each from the letters-digits-"_.-" alphabet.
func ValidateName(name string) error {
	if len(name) < NameMinLen || len(name) > NameMaxLen {
		return fmt.Errorf("module name %q must be %d to %d characters long", name, NameMinLen, NameMaxLen)
	}
	for _, r := range name {
		if !strings.ContainsRune(nameAlphabet, r) {
			return fmt.Errorf("module name %q contains disallowed character %q", name, r)
		}
	}
	return nil
}

// Name returns the module name.
func (d *Descriptor) Name() string { return d.name }

// Version returns the declared module version.
func (d *Descriptor) Version() semver.Version { return d.version }

// Dir returns the directory the manifest was discovered in.
func (d *Descriptor) Dir() string { return d.dir }

// EntryPath returns the absolute path of the module's entry file. It is
// guaranteed to lie inside Dir.
func (d *Descriptor) EntryPath() string { return d.entryPath }

// EntrySymbol returns the constructor symbol to resolve in the entry code.
func (d *Descriptor) EntrySymbol() string { return d.entrySymbol }

// SingleInstance reports whether the module requested collapse to a single
// registered version.
func (d *Descriptor) SingleInstance() bool { return d.singleInstance }

// Origin returns which discovery root declared the module.
func (d *Descriptor) Origin() Origin { return d.origin }

// Dependencies returns the declared requirements in name order. The slice is
// a copy; mutating it does not affect the descriptor.
func (d *Descriptor) Dependencies() []Dependency { return slices.Clone(d.deps) }

// ID returns the "name@version" form used in logs and addresses.
func (d *Descriptor) ID() string { return d.name + "@" + d.version.String() }

func (d *Descriptor) String() string { return d.ID() }
