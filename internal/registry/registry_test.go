package registry

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sasha-Sorokin/alphaid-bot/internal/ctxlog"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/descriptor"
	"github.com/Sasha-Sorokin/alphaid-bot/internal/semver"
)

func testContext() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

func makeDescriptor(t *testing.T, name, version string, single bool) *descriptor.Descriptor {
	t.Helper()
	d, err := descriptor.New(descriptor.Params{
		Name:           name,
		Version:        version,
		Dir:            t.TempDir(),
		SingleInstance: single,
	})
	require.NoError(t, err)
	return d
}

func versionStrings(descs []*descriptor.Descriptor) []string {
	out := make([]string, 0, len(descs))
	for _, d := range descs {
		out = append(out, d.Version().String())
	}
	return out
}

func TestBuildGroupsByName(t *testing.T) {
	t.Parallel()

	reg := Build(testContext(), []*descriptor.Descriptor{
		makeDescriptor(t, "alpha", "1.0.0", false),
		makeDescriptor(t, "beta", "2.0.0", false),
		makeDescriptor(t, "alpha", "1.2.0", false),
	})

	assert.Equal(t, []string{"alpha", "beta"}, reg.Names())
	assert.Equal(t, 3, reg.Len())
	// Highest version first.
	assert.Equal(t, []string{"1.2.0", "1.0.0"}, versionStrings(reg.Versions("alpha")))
	assert.Nil(t, reg.Versions("unknown"))
}

func TestBuildDropsDuplicateVersion(t *testing.T) {
	t.Parallel()

	first := makeDescriptor(t, "alpha", "1.0.0", false)
	second := makeDescriptor(t, "alpha", "1.0.0", false)

	reg := Build(testContext(), []*descriptor.Descriptor{first, second})

	require.Equal(t, 1, reg.Len())
	got, ok := reg.Get("alpha", semver.MustParseVersion("1.0.0"))
	require.True(t, ok)
	// First registration wins.
	assert.Same(t, first, got)
}

func TestBuildCollapsesSingleInstance(t *testing.T) {
	t.Parallel()

	reg := Build(testContext(), []*descriptor.Descriptor{
		makeDescriptor(t, "solo", "1.0.0", true),
		makeDescriptor(t, "solo", "1.4.0", true),
		makeDescriptor(t, "solo", "1.2.0", true),
	})

	assert.Equal(t, []string{"1.4.0"}, versionStrings(reg.Versions("solo")))
}

func TestBuildSingleInstanceLeavesUnflaggedAlone(t *testing.T) {
	t.Parallel()

	reg := Build(testContext(), []*descriptor.Descriptor{
		makeDescriptor(t, "mixed", "1.0.0", true),
		makeDescriptor(t, "mixed", "2.0.0", true),
		makeDescriptor(t, "mixed", "0.9.0", false),
	})

	// The two flagged versions collapse to 2.0.0; the unflagged one stays.
	assert.Equal(t, []string{"2.0.0", "0.9.0"}, versionStrings(reg.Versions("mixed")))
}

func TestCollapsedVersionIsNotResolvable(t *testing.T) {
	t.Parallel()

	reg := Build(testContext(), []*descriptor.Descriptor{
		makeDescriptor(t, "solo", "1.0.0", true),
		makeDescriptor(t, "solo", "2.0.0", true),
	})

	_, ok := reg.Get("solo", semver.MustParseVersion("1.0.0"))
	assert.False(t, ok)
}

func TestAllIsDeterministic(t *testing.T) {
	t.Parallel()

	descs := []*descriptor.Descriptor{
		makeDescriptor(t, "beta", "1.0.0", false),
		makeDescriptor(t, "alpha", "2.0.0", false),
		makeDescriptor(t, "alpha", "1.0.0", false),
	}

	reg := Build(testContext(), descs)
	var ids []string
	for _, d := range reg.All() {
		ids = append(ids, d.ID())
	}
	assert.Equal(t, []string{"alpha@2.0.0", "alpha@1.0.0", "beta@1.0.0"}, ids)
}
