// Package linker turns a built registry into the linked record graph: one
// keeper per registered module version, with every declared dependency
// resolved to the highest version satisfying its range.
//
// Linking is all-or-nothing. A required dependency without a satisfying
// candidate, or a dependency cycle, fails the whole phase; a partially
// linked graph is never returned.
package linker

import (
	"context"
	"fmt"

	"github.com/Sasha-Sorokin/alphaid-bot/internal/ctxlog"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/descriptor"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/keeper"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/registry"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/semver"
)

// UnsatisfiedDependencyError reports a required dependency with no
// registered version inside the accepted range.
type UnsatisfiedDependencyError struct {
	Requester  string
	Dependency string
	Range      string
}

func (e *UnsatisfiedDependencyError) Error() string {
	return fmt.Sprintf("module %s: no version of %q satisfies required range %q",
		e.Requester, e.Dependency, e.Range)
}

// Link creates a keeper for every registered module version and wires the
// resolved dependency edges. The returned arena preserves the registry's
// deterministic order: names lexical, versions highest first.
func Link(ctx context.Context, reg *registry.Registry, codeLoader keeper.CodeLoader) ([]*keeper.Keeper, error) {
	logger := ctxlog.FromContext(ctx)

	keepers := make([]*keeper.Keeper, 0, reg.Len())
	byID := make(map[string]*keeper.Keeper, reg.Len())
	for _, d := range reg.All() {
		k := keeper.New(d, codeLoader)
		keepers = append(keepers, k)
		byID[d.ID()] = k
	}

	for _, k := range keepers {
		for _, dep := range k.Descriptor().Dependencies() {
			resolved, ok := resolve(reg, dep)
			if !ok {
				if dep.Optional {
					logger.Info("Optional dependency has no satisfying version, skipping.",
						"module", k.ID(), "dependency", dep.Name, "range", dep.RawRange)
					continue
				}
				return nil, &UnsatisfiedDependencyError{
					Requester:  k.ID(),
					Dependency: dep.Name,
					Range:      dep.RawRange,
				}
			}

			k.AddDependency(byID[resolved.ID()])
			logger.Debug("Linked dependency.",
				"module", k.ID(), "dependency", resolved.ID(), "range", dep.RawRange)
		}
	}

	if err := detectCycles(keepers); err != nil {
		return nil, err
	}

	logger.Debug("Link complete.", "record_count", len(keepers))
	return keepers, nil
}

// resolve picks the highest registered version of dep.Name satisfying
// dep.Range.
func resolve(reg *registry.Registry, dep descriptor.Dependency) (*descriptor.Descriptor, bool) {
	candidates := reg.Versions(dep.Name)
	if len(candidates) == 0 {
		return nil, false
	}

	versions := make([]semver.Version, len(candidates))
	for i, c := range candidates {
		versions[i] = c.Version()
	}
	best, ok := semver.MaxSatisfying(dep.Range, versions)
	if !ok {
		return nil, false
	}

	d, ok := reg.Get(dep.Name, best)
	return d, ok
}
