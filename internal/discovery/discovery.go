// Package discovery walks the module roots and turns every valid manifest
// into a descriptor. The walk is a pure function of the directory tree: it
// keeps no state between runs and may be re-run at any time to pick up
// changed manifests.
//
// Per directory the contract is: decode module.hcl when present (one module
// per directory); then, when routes.hcl is present, recurse only into the
// paths it lists; otherwise recurse into every immediate subdirectory. A
// malformed or invalid manifest is logged and skipped without aborting the
// walk. Routing manifests may carry version and entry-file defaults that
// apply to routed modules omitting those fields.
package discovery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Sasha-Sorokin/alphaid-bot/internal/ctxlog"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/descriptor"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/fsutil"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/manifest"
)

// Options selects the roots to walk. ModulesPath holds the bot's own
// modules; PackagesPath holds externally installed packages. Either may be
// empty or absent on disk, which simply contributes no descriptors.
type Options struct {
	ModulesPath  string
	PackagesPath string
}

// defaults carries values a routing manifest passes down to the modules it
// routes to. A closer routes.hcl overrides an inherited one field by field.
type defaults struct {
	version string
	main    string
}

// Discover walks both roots and returns the descriptors of every valid
// manifest, depth-first in lexical directory order. Only I/O failures abort
// the walk; content problems skip the offending manifest.
func Discover(ctx context.Context, opts Options) ([]*descriptor.Descriptor, error) {
	logger := ctxlog.FromContext(ctx)

	roots := []struct {
		path   string
		origin descriptor.Origin
	}{
		{opts.ModulesPath, descriptor.OriginPrimary},
		{opts.PackagesPath, descriptor.OriginExternal},
	}

	var found []*descriptor.Descriptor
	for _, root := range roots {
		if root.path == "" {
			continue
		}
		info, err := os.Stat(root.path)
		if os.IsNotExist(err) {
			logger.Debug("Discovery root does not exist, skipping.", "root", root.path)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("accessing discovery root %s: %w", root.path, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("discovery root %s is not a directory", root.path)
		}

		logger.Debug("Discovery root walk started.", "root", root.path, "origin", root.origin.String())
		if err := walkDir(ctx, root.path, root.origin, defaults{}, &found); err != nil {
			return nil, err
		}
	}

	logger.Debug("Discovery complete.", "module_count", len(found))
	return found, nil
}

// walkDir handles one directory: manifest decode, then recursion per the
// routing rules.
func walkDir(ctx context.Context, dir string, origin descriptor.Origin, inherited defaults, found *[]*descriptor.Descriptor) error {
	logger := ctxlog.FromContext(ctx)

	modulePath := filepath.Join(dir, manifest.ModuleFileName)
	if fsutil.FileExists(modulePath) {
		if desc := decodeModule(ctx, modulePath, dir, origin, inherited); desc != nil {
			*found = append(*found, desc)
		}
	}

	routesPath := filepath.Join(dir, manifest.RoutesFileName)
	if fsutil.FileExists(routesPath) {
		routes, err := manifest.DecodeRoutesFile(ctx, routesPath)
		if err != nil {
			// Without a readable routing table the intended subtree is
			// unknown; stop descending here rather than guess.
			logger.Warn("Skipping malformed routes manifest.", "path", routesPath, "error", err)
			return nil
		}
		return walkRoutes(ctx, dir, origin, inherited, routes, found)
	}

	names, err := fsutil.SubdirNames(dir)
	if err != nil {
		return fmt.Errorf("listing %s: %w", dir, err)
	}
	for _, name := range names {
		if err := walkDir(ctx, filepath.Join(dir, name), origin, inherited, found); err != nil {
			return err
		}
	}
	return nil
}

// walkRoutes recurses into the listed paths only, layering the routing
// manifest's defaults over the inherited ones.
func walkRoutes(ctx context.Context, dir string, origin descriptor.Origin, inherited defaults, routes *manifest.RoutesBlock, found *[]*descriptor.Descriptor) error {
	logger := ctxlog.FromContext(ctx)

	next := inherited
	if routes.Version != "" {
		next.version = routes.Version
	}
	if routes.Main != "" {
		next.main = routes.Main
	}

	for _, rel := range routes.Paths {
		target, err := fsutil.ResolveWithin(dir, rel)
		if err != nil {
			logger.Warn("Skipping route outside its directory.", "dir", dir, "route", rel)
			continue
		}
		info, err := os.Stat(target)
		if err != nil || !info.IsDir() {
			logger.Warn("Skipping route to a missing directory.", "dir", dir, "route", rel)
			continue
		}
		if err := walkDir(ctx, target, origin, next, found); err != nil {
			return err
		}
	}
	return nil
}

// decodeModule turns one module.hcl into a descriptor, or nil when the
// manifest is malformed or invalid.
func decodeModule(ctx context.Context, path, dir string, origin descriptor.Origin, inherited defaults) *descriptor.Descriptor {
	logger := ctxlog.FromContext(ctx)

	block, err := manifest.DecodeModuleFile(ctx, path)
	if err != nil {
		logger.Warn("Skipping malformed module manifest.", "path", path, "error", err)
		return nil
	}

	version := block.Version
	if version == "" {
		version = inherited.version
	}
	main := block.Main
	if main == "" {
		main = inherited.main
	}

	desc, err := descriptor.New(descriptor.Params{
		Name:           block.Name,
		Version:        version,
		Dir:            dir,
		Main:           main,
		EntrySymbol:    block.Entrypoint,
		SingleInstance: block.SingleInstance,
		Origin:         origin,
		Dependencies:   block.Dependencies,
	})
	if err != nil {
		logger.Warn("Skipping invalid module descriptor.", "path", path, "error", err)
		return nil
	}

	logger.Debug("Discovered module.", "module", desc.ID(), "origin", origin.String())
	return desc
}
