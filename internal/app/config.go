package app

import (
	"errors"
	"fmt"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ModulesPath  string // module manifests + entry code
	PackagesPath string // externally installed module packages
	ConfigRoot   string // per-module TOML configuration files

	LogFormat  string
	LogLevel   string
	StatusPort int
	Watch      bool
	Oneshot    bool
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ModulesPath == "" {
		return nil, errors.New("ModulesPath is a required configuration field and cannot be empty")
	}
	if cfg.StatusPort < 0 || cfg.StatusPort > 65535 {
		return nil, fmt.Errorf("StatusPort %d is outside the valid port range", cfg.StatusPort)
	}

	return &cfg, nil
}
