package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sasha-Sorokin/alphaid-bot/internal/app"
)

// TestScriptedModuleDependsOnCompiled mixes a Lua module with a compiled
// dependency in one tree; both must complete the full lifecycle.
func TestScriptedModuleDependsOnCompiled(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	files := map[string]string{
		"modules/core/module.hcl": `
module {
  name       = "core"
  version    = "1.0.0"
  entrypoint = "NewCore"
}
`,
		"modules/core/module.go": stubEntryFile,
		"modules/scripted-greeter/module.hcl": `
module {
  name         = "scripted-greeter"
  version      = "0.1.0"
  main         = "script.lua"
  dependencies = { "core" = "^1.0.0" }
}
`,
		"modules/scripted-greeter/script.lua": `
NewModule = {
  init = function(name)
    greeting = "hello from " .. name
  end,

  unload = function(reason)
    greeting = nil
    return true
  end,
}
`,
	}

	result := app.RunIntegrationTest(t, files, probeRegistrar{rec: rec, symbols: []string{"NewCore"}})

	require.NoError(t, result.Err)
	// The sweep reaches core first and its dependent unloads through the
	// recursion, so core itself keeps the top-level reason.
	assert.Equal(t, []string{
		"construct:NewCore",
		"init:core",
		"unload:core:oneshot",
	}, rec.list())

	for _, record := range result.App.Loader().Snapshot() {
		assert.Equal(t, "unloaded", record.State, "module %s", record.Name)
	}
}

// TestScriptedModuleMayDeclineUnload runs a script whose unload hook refuses
// to release; the teardown continues and the record keeps its state.
func TestScriptedModuleMayDeclineUnload(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"modules/stubborn/module.hcl": `
module {
  name    = "stubborn"
  version = "1.0.0"
  main    = "script.lua"
}
`,
		"modules/stubborn/script.lua": `
NewModule = {
  unload = function(reason)
    return false
  end,
}
`,
	}

	result := app.RunIntegrationTest(t, files)

	require.NoError(t, result.Err, "a declined unload is not a run failure")
	assert.Contains(t, result.LogOutput, "Module unload failed, continuing teardown.")
	assert.Contains(t, result.LogOutput, "declined to release")

	snapshot := result.App.Loader().Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "initialized", snapshot[0].State)
}

// TestBrokenScriptFailsConstruction points a manifest at a script with a
// syntax error; the record fails while the rest of the tree still loads.
func TestBrokenScriptFailsConstruction(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	files := map[string]string{
		"modules/broken/module.hcl": `
module {
  name    = "broken"
  version = "1.0.0"
  main    = "script.lua"
}
`,
		"modules/broken/script.lua": `this is not lua at all (`,
		"modules/core/module.hcl": `
module {
  name       = "core"
  version    = "1.0.0"
  entrypoint = "NewCore"
}
`,
		"modules/core/module.go": stubEntryFile,
	}

	result := app.RunIntegrationTest(t, files, probeRegistrar{rec: rec, symbols: []string{"NewCore"}})

	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "construction failed for broken@1.0.0")
	assert.Contains(t, rec.list(), "init:core", "the healthy module must still load")
}
