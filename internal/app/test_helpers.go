package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/Sasha-Sorokin/alphaid-bot/internal/testutil"
)

// HarnessResult carries everything an integration test needs to assert on
// after a full oneshot run.
type HarnessResult struct {
	App       *App
	Err       error
	LogOutput string
}

// SetupAppTest creates a new app instance for system testing, logging at
// debug level into a thread-safe buffer.
func SetupAppTest(t *testing.T, config *Config, modules ...Registrar) (*App, *testutil.SafeBuffer) {
	t.Helper()

	logBuffer := &testutil.SafeBuffer{}
	config.LogLevel = "debug"
	testApp := NewApp(logBuffer, config, modules...)

	t.Cleanup(func() {
		if os.Getenv("ALPHAID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}

// RunIntegrationTest materializes the given files under a temp dir, then
// runs a oneshot app against the tree. Files under modules/ become the
// primary root, packages/ the external root, and config/ the module
// configuration root. Startup panics are captured into Err.
func RunIntegrationTest(t *testing.T, files map[string]string, modules ...Registrar) *HarnessResult {
	t.Helper()

	root := testutil.WriteTree(t, files)
	config := &Config{
		ModulesPath:  filepath.Join(root, "modules"),
		PackagesPath: filepath.Join(root, "packages"),
		ConfigRoot:   filepath.Join(root, "config"),
		LogLevel:     "debug",
		Oneshot:      true,
	}

	logBuffer := &testutil.SafeBuffer{}
	t.Cleanup(func() {
		if os.Getenv("ALPHAID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	result := &HarnessResult{}
	func() {
		defer func() {
			result.LogOutput = logBuffer.String()
			if r := recover(); r != nil {
				result.Err = fmt.Errorf("application startup panicked: %v", r)
			}
		}()
		result.App = NewApp(logBuffer, config, modules...)
		result.Err = result.App.Run(context.Background())
	}()
	return result
}
