package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sasha-Sorokin/alphaid-bot/internal/app"
)

// TestDependencyChainOrdering builds a storage <- brain <- face chain and
// checks that construction and initialization run dependency-first while
// unloading runs dependent-first.
func TestDependencyChainOrdering(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	files := map[string]string{
		"modules/storage/module.hcl": `
module {
  name       = "storage"
  version    = "1.2.0"
  entrypoint = "NewStorage"
}
`,
		"modules/storage/module.go": stubEntryFile,
		"modules/brain/module.hcl": `
module {
  name         = "brain"
  version      = "2.0.0"
  entrypoint   = "NewBrain"
  dependencies = { "storage" = "^1.0.0" }
}
`,
		"modules/brain/module.go": stubEntryFile,
		"modules/face/module.hcl": `
module {
  name         = "face"
  version      = "1.0.0"
  entrypoint   = "NewFace"
  dependencies = { "brain" = "^2.0.0" }
}
`,
		"modules/face/module.go": stubEntryFile,
	}

	result := app.RunIntegrationTest(t, files,
		probeRegistrar{rec: rec, symbols: []string{"NewStorage", "NewBrain", "NewFace"}})

	require.NoError(t, result.Err)
	assert.Equal(t, []string{
		"construct:NewStorage",
		"construct:NewBrain",
		"construct:NewFace",
		"init:storage",
		"init:brain",
		"init:face",
		"unload:face:dependent_oneshot",
		"unload:brain:oneshot",
		"unload:storage:oneshot",
	}, rec.list())
}

// TestOptionalDependencyMayBeMissing marks the dependency optional; the
// module still loads without it.
func TestOptionalDependencyMayBeMissing(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	files := map[string]string{
		"modules/face/module.hcl": `
module {
  name         = "face"
  version      = "1.0.0"
  entrypoint   = "NewFace"
  dependencies = { "brain" = "^2.0.0?" }
}
`,
		"modules/face/module.go": stubEntryFile,
	}

	result := app.RunIntegrationTest(t, files, probeRegistrar{rec: rec, symbols: []string{"NewFace"}})

	require.NoError(t, result.Err)
	assert.Contains(t, rec.list(), "init:face")
	assert.Contains(t, result.LogOutput, "Optional dependency has no satisfying version")
}

// TestDependencySelectsMaxSatisfyingVersion registers two versions of the
// same module; the dependent's range must link against the newest one that
// satisfies it.
func TestDependencySelectsMaxSatisfyingVersion(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	files := map[string]string{
		"modules/storage-v1-0/module.hcl": `
module {
  name       = "storage"
  version    = "1.0.0"
  entrypoint = "NewStorageOld"
}
`,
		"modules/storage-v1-0/module.go": stubEntryFile,
		"modules/storage-v1-9/module.hcl": `
module {
  name       = "storage"
  version    = "1.9.0"
  entrypoint = "NewStorageNew"
}
`,
		"modules/storage-v1-9/module.go": stubEntryFile,
		"modules/brain/module.hcl": `
module {
  name         = "brain"
  version      = "2.0.0"
  entrypoint   = "NewBrain"
  dependencies = { "storage" = "^1.2.0" }
}
`,
		"modules/brain/module.go": stubEntryFile,
	}

	result := app.RunIntegrationTest(t, files,
		probeRegistrar{rec: rec, symbols: []string{"NewStorageOld", "NewStorageNew", "NewBrain"}})
	require.NoError(t, result.Err)

	brain, ok := result.App.Loader().Record("brain@2.0.0")
	require.True(t, ok)
	dep, ok := brain.Dependency("storage")
	require.True(t, ok)
	assert.Equal(t, "storage@1.9.0", dep.ID())
}

// TestDependencyCycleFailsRebuild wires two modules into a cycle; the
// registry rebuild must fail and construct nothing.
func TestDependencyCycleFailsRebuild(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	files := map[string]string{
		"modules/ping/module.hcl": `
module {
  name         = "ping"
  version      = "1.0.0"
  entrypoint   = "NewPing"
  dependencies = { "pong" = "^1.0.0" }
}
`,
		"modules/ping/module.go": stubEntryFile,
		"modules/pong/module.hcl": `
module {
  name         = "pong"
  version      = "1.0.0"
  entrypoint   = "NewPong"
  dependencies = { "ping" = "^1.0.0" }
}
`,
		"modules/pong/module.go": stubEntryFile,
	}

	result := app.RunIntegrationTest(t, files,
		probeRegistrar{rec: rec, symbols: []string{"NewPing", "NewPong"}})

	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "failed to build module registry")
	assert.Empty(t, rec.list(), "nothing should have been constructed")
}

// TestSingleInstanceCollapsesVersions declares two versions of a
// single-instance module; only the highest version may survive the rebuild.
func TestSingleInstanceCollapsesVersions(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	files := map[string]string{
		"modules/settings-a/module.hcl": `
module {
  name            = "settings"
  version         = "1.0.0"
  entrypoint      = "NewSettings"
  single_instance = true
}
`,
		"modules/settings-a/module.go": stubEntryFile,
		"modules/settings-b/module.hcl": `
module {
  name            = "settings"
  version         = "1.5.0"
  entrypoint      = "NewSettings"
  single_instance = true
}
`,
		"modules/settings-b/module.go": stubEntryFile,
	}

	result := app.RunIntegrationTest(t, files, probeRegistrar{rec: rec, symbols: []string{"NewSettings"}})

	require.NoError(t, result.Err)
	snapshot := result.App.Loader().Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "1.5.0", snapshot[0].Version)
	assert.Equal(t, []string{
		"construct:NewSettings",
		"init:settings",
		"unload:settings:oneshot",
	}, rec.list())
}
