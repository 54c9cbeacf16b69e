// Package manifest defines the HCL schemas for the per-directory module
// manifests and decodes them from disk.
//
// Two document kinds exist. A module.hcl declares a single module:
//
//	module {
//	  name         = "gateway"
//	  version      = "1.2.0"
//	  main         = "module.go"
//	  dependencies = { "config-core" = "^1.0.0" }
//	}
//
// A routes.hcl redirects discovery into selected subdirectories and may carry
// defaults inherited by the modules it routes to:
//
//	routes {
//	  paths   = ["gateway", "extra/echo"]
//	  version = "3.2.1"
//	}
package manifest

import (
	"github.com/hashicorp/hcl/v2"
)

// Well-known manifest file names looked up in every discovered directory.
const (
	ModuleFileName = "module.hcl"
	RoutesFileName = "routes.hcl"
)

// ModuleBlock represents the `module` block of a module.hcl document.
type ModuleBlock struct {
	Name           string            `hcl:"name"`
	Version        string            `hcl:"version,optional"`
	Main           string            `hcl:"main,optional"`
	Entrypoint     string            `hcl:"entrypoint,optional"`
	SingleInstance bool              `hcl:"single_instance,optional"`
	Dependencies   map[string]string `hcl:"dependencies,optional"`
}

// RoutesBlock represents the `routes` block of a routes.hcl document. Paths
// are relative to the declaring directory; Version and Main are optional
// defaults applied to routed modules that omit those fields.
type RoutesBlock struct {
	Paths   []string `hcl:"paths"`
	Version string   `hcl:"version,optional"`
	Main    string   `hcl:"main,optional"`
}

// moduleRoot decodes the top level of a module.hcl document.
type moduleRoot struct {
	Module *ModuleBlock `hcl:"module,block"`
	Remain hcl.Body     `hcl:",remain"`
}

// routesRoot decodes the top level of a routes.hcl document.
type routesRoot struct {
	Routes *RoutesBlock `hcl:"routes,block"`
	Remain hcl.Body     `hcl:",remain"`
}
