package manifest

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/Sasha-Sorokin/alphaid-bot/internal/ctxlog"
)

// DecodeModuleFile parses path as a module.hcl document and returns its
// module block. Expressions are literal-only; no evaluation context is
// provided.
func DecodeModuleFile(ctx context.Context, path string) (*ModuleBlock, error) {
	logger := ctxlog.FromContext(ctx)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, diags)
	}

	var root moduleRoot
	diags = gohcl.DecodeBody(file.Body, nil, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, diags)
	}
	if root.Module == nil {
		return nil, fmt.Errorf("manifest %s declares no module block", path)
	}

	logger.Debug("Decoded module manifest.", "path", path, "module", root.Module.Name)
	return root.Module, nil
}

// DecodeRoutesFile parses path as a routes.hcl document and returns its
// routes block.
func DecodeRoutesFile(ctx context.Context, path string) (*RoutesBlock, error) {
	logger := ctxlog.FromContext(ctx)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, diags)
	}

	var root routesRoot
	diags = gohcl.DecodeBody(file.Body, nil, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, diags)
	}
	if root.Routes == nil {
		return nil, fmt.Errorf("manifest %s declares no routes block", path)
	}

	logger.Debug("Decoded routes manifest.", "path", path, "route_count", len(root.Routes.Paths))
	return root.Routes, nil
}
