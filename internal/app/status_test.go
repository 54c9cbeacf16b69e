package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sasha-Sorokin/alphaid-bot/internal/ctxlog"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/loader"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/testutil"
)

func newStatusTestApp(t *testing.T, files map[string]string) (*App, context.Context) {
	t.Helper()
	root := testutil.WriteTree(t, files)
	testApp, logs := SetupAppTest(t, &Config{
		ModulesPath: filepath.Join(root, "modules"),
		ConfigRoot:  filepath.Join(root, "config"),
	})
	ctx := ctxlog.WithLogger(context.Background(), newLogger("debug", "text", logs))
	return testApp, ctx
}

func TestHealthHandler(t *testing.T) {
	t.Parallel()
	testApp, _ := newStatusTestApp(t, nil)

	rec := httptest.NewRecorder()
	testApp.healthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK\n", rec.Body.String())
}

func TestModulesHandlerBeforeFirstRebuild(t *testing.T) {
	t.Parallel()
	testApp, _ := newStatusTestApp(t, nil)

	rec := httptest.NewRecorder()
	testApp.modulesHandler(rec, httptest.NewRequest(http.MethodGet, "/modules", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestModulesHandlerReportsRecords(t *testing.T) {
	t.Parallel()
	testApp, ctx := newStatusTestApp(t, map[string]string{
		"modules/greeter/module.hcl": greeterManifest,
		"modules/greeter/script.lua": greeterScript,
	})
	require.NoError(t, testApp.Loader().RebuildRegistry(ctx))

	rec := httptest.NewRecorder()
	testApp.modulesHandler(rec, httptest.NewRequest(http.MethodGet, "/modules", nil))

	var records []loader.RecordStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "greeter", records[0].Name)
	assert.Equal(t, "0.1.0", records[0].Version)
	assert.Equal(t, "prototype", records[0].State)
}
