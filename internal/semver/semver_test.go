package semver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	t.Parallel()

	v, err := ParseVersion("1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", v.String())

	_, err = ParseVersion("not-a-version")
	require.Error(t, err)
}

func TestSatisfies(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		version string
		rng     string
		want    bool
	}{
		{"1.2.0", "^1.0.0", true},
		{"2.0.0", "^1.0.0", false},
		{"1.4.2", "~1.4.0", true},
		{"1.5.0", "~1.4.0", false},
		{"1.9.9", ">=1.2.0 <2.0.0", true},
		{"2.0.0", ">=1.2.0 <2.0.0", false},
	}

	for _, tc := range testCases {
		t.Run(tc.version+" in "+tc.rng, func(t *testing.T) {
			t.Parallel()
			got := Satisfies(MustParseVersion(tc.version), MustParseRange(tc.rng))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSatisfiesZeroValues(t *testing.T) {
	t.Parallel()

	assert.False(t, Satisfies(Version{}, MustParseRange("^1.0.0")))
	assert.False(t, Satisfies(MustParseVersion("1.0.0"), Range{}))
}

func TestCompare(t *testing.T) {
	t.Parallel()

	assert.Equal(t, -1, Compare(MustParseVersion("1.0.0"), MustParseVersion("1.1.0")))
	assert.Equal(t, 0, Compare(MustParseVersion("1.1.0"), MustParseVersion("1.1.0")))
	assert.Equal(t, 1, Compare(MustParseVersion("2.0.0"), MustParseVersion("1.9.9")))
	assert.Equal(t, -1, Compare(Version{}, MustParseVersion("0.0.1")))
}

func TestMaxSatisfying(t *testing.T) {
	t.Parallel()

	candidates := []Version{
		MustParseVersion("1.0.0"),
		MustParseVersion("1.2.0"),
		MustParseVersion("1.1.3"),
		MustParseVersion("2.0.0"),
	}

	t.Run("picks the highest satisfying version", func(t *testing.T) {
		t.Parallel()
		got, ok := MaxSatisfying(MustParseRange("^1.0.0"), candidates)
		require.True(t, ok)
		assert.Equal(t, "1.2.0", got.String())
	})

	t.Run("reports no match", func(t *testing.T) {
		t.Parallel()
		_, ok := MaxSatisfying(MustParseRange("^3.0.0"), candidates)
		assert.False(t, ok)
	})
}
