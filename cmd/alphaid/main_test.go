package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeModuleTree(t *testing.T, script string) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "modules", "greeter")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	manifest := `
module {
  name    = "greeter"
  version = "0.1.0"
  main    = "script.lua"
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "module.hcl"), []byte(manifest), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "script.lua"), []byte(script), 0o644))
	return root
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	out := &bytes.Buffer{}

	err := run(out, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// Providing an unknown flag will cause cli.Parse to return an error.
	out := &bytes.Buffer{}

	err := run(out, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_Oneshot(t *testing.T) {
	t.Parallel()

	root := writeModuleTree(t, `
NewModule = {
  init = function(name)
    greeting = "hello from " .. name
  end,

  unload = function(reason)
    return true
  end,
}
`)
	out := &bytes.Buffer{}

	err := run(out, []string{
		"-modules-path", filepath.Join(root, "modules"),
		"-config-root", filepath.Join(root, "config"),
		"-log-level", "error",
		"-oneshot",
	})

	require.NoError(t, err, "a oneshot run over a healthy module tree should succeed")
}

func TestRun_OneshotReportsModuleFailure(t *testing.T) {
	t.Parallel()

	root := writeModuleTree(t, `
NewModule = {
  init = function(name)
    error("boom")
  end,

  unload = function(reason)
    return true
  end,
}
`)
	out := &bytes.Buffer{}

	err := run(out, []string{
		"-modules-path", filepath.Join(root, "modules"),
		"-config-root", filepath.Join(root, "config"),
		"-log-level", "error",
		"-oneshot",
	})

	require.Error(t, err, "a oneshot run should surface module load failures")
	require.Contains(t, err.Error(), "initialization failed for greeter@0.1.0")
}
