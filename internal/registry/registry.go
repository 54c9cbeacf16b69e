// Package registry indexes discovered module descriptors by name. The
// registry is built once per discovery run and read-only afterwards; the
// linker resolves version ranges against it.
package registry

import (
	"context"
	"slices"

	"github.com/Sasha-Sorokin/alphaid-bot/internal/ctxlog"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/descriptor"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/semver"
)

// Registry holds every registered module version, keyed by module name. Each
// version list is ordered highest first.
type Registry struct {
	byName map[string][]*descriptor.Descriptor
	names  []string
	count  int
}

// Build indexes descs into a new Registry.
//
// Two rules shape the index. A repeated (name, version) pair keeps the first
// descriptor and drops later ones with a warning. When any descriptor of a
// name is flagged single-instance, all flagged descriptors of that name
// collapse to the single highest version; unflagged versions of the same
// name are left untouched. Collapse happens here, before linking, so a
// dropped version can never be resolved.
func Build(ctx context.Context, descs []*descriptor.Descriptor) *Registry {
	logger := ctxlog.FromContext(ctx)

	byName := make(map[string][]*descriptor.Descriptor)
	for _, d := range descs {
		if existing := lookup(byName[d.Name()], d.Version()); existing != nil {
			logger.Warn("Dropping duplicate module version.",
				"module", d.ID(), "kept_dir", existing.Dir(), "dropped_dir", d.Dir())
			continue
		}
		byName[d.Name()] = append(byName[d.Name()], d)
	}

	count := 0
	names := make([]string, 0, len(byName))
	for name, versions := range byName {
		versions = collapseSingleInstance(ctx, name, versions)
		slices.SortFunc(versions, func(a, b *descriptor.Descriptor) int {
			return semver.Compare(b.Version(), a.Version())
		})
		byName[name] = versions
		names = append(names, name)
		count += len(versions)
	}
	slices.Sort(names)

	logger.Debug("Registry build complete.", "module_names", len(names), "module_versions", count)
	return &Registry{byName: byName, names: names, count: count}
}

// collapseSingleInstance applies the single-instance rule to one name's
// version list.
func collapseSingleInstance(ctx context.Context, name string, versions []*descriptor.Descriptor) []*descriptor.Descriptor {
	var flagged, rest []*descriptor.Descriptor
	for _, d := range versions {
		if d.SingleInstance() {
			flagged = append(flagged, d)
		} else {
			rest = append(rest, d)
		}
	}
	if len(flagged) < 2 {
		return versions
	}

	best := flagged[0]
	for _, d := range flagged[1:] {
		if semver.Compare(d.Version(), best.Version()) > 0 {
			best = d
		}
	}

	logger := ctxlog.FromContext(ctx)
	for _, d := range flagged {
		if d != best {
			logger.Debug("Collapsed single-instance module version.",
				"module", name, "kept", best.Version().String(), "dropped", d.Version().String())
		}
	}
	return append(rest, best)
}

func lookup(versions []*descriptor.Descriptor, v semver.Version) *descriptor.Descriptor {
	for _, d := range versions {
		if semver.Compare(d.Version(), v) == 0 {
			return d
		}
	}
	return nil
}

// Versions returns the registered descriptors under name, highest version
// first. The result is nil for an unknown name and must not be mutated.
func (r *Registry) Versions(name string) []*descriptor.Descriptor {
	return r.byName[name]
}

// Get returns the descriptor registered under the exact (name, version)
// pair.
func (r *Registry) Get(name string, v semver.Version) (*descriptor.Descriptor, bool) {
	d := lookup(r.byName[name], v)
	return d, d != nil
}

// Names returns all registered module names in lexical order.
func (r *Registry) Names() []string {
	return r.names
}

// Len returns the total number of registered module versions.
func (r *Registry) Len() int {
	return r.count
}

// All returns every registered descriptor, grouped by name in lexical order,
// versions highest first.
func (r *Registry) All() []*descriptor.Descriptor {
	out := make([]*descriptor.Descriptor, 0, r.count)
	for _, name := range r.names {
		out = append(out, r.byName[name]...)
	}
	return out
}
