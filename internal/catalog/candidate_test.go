package catalog

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeysRoundTrip(t *testing.T) {
	pk, err := ParseGameKey(GameKey(745001))
	require.NoError(t, err)
	assert.Equal(t, int64(745001), pk)

	id, season, err := ParsePitcherSeasonKey(PitcherSeasonKey(543037, 2023))
	require.NoError(t, err)
	assert.Equal(t, int64(543037), id)
	assert.Equal(t, 2023, season)

	_, err = ParseGameKey("game:abc")
	assert.Error(t, err)
	_, _, err = ParsePitcherSeasonKey("pitcher:1")
	assert.Error(t, err)
}

func TestVideoURL(t *testing.T) {
	ref := EventRef{PlayID: "2f6e-4c1a"}
	assert.Equal(t, "https://baseballsavant.mlb.com/sporty-videos?playId=2f6e-4c1a", ref.VideoURL(""))
	assert.Empty(t, EventRef{}.VideoURL(""))

	id, ok := PlayIDFromURL(ref.VideoURL("https://example.test/clips"))
	require.True(t, ok)
	assert.Equal(t, "2f6e-4c1a", id)
	_, ok = PlayIDFromURL("https://example.test/clips")
	assert.False(t, ok)
}

func TestParseInt(t *testing.T) {
	for raw, want := range map[string]int64{"7": 7, "7.0": 7, " 12 ": 12, "-3": -3} {
		got, ok := ParseInt(raw)
		require.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
	for _, raw := range []string{"", "7.5", "seven", "NaN"} {
		_, ok := ParseInt(raw)
		assert.False(t, ok, raw)
	}
}

func TestIsRetriable(t *testing.T) {
	assert.True(t, IsRetriable(&StatusError{StatusCode: 429}))
	assert.True(t, IsRetriable(&StatusError{StatusCode: 503}))
	assert.False(t, IsRetriable(&StatusError{StatusCode: 404}))
	assert.True(t, IsRetriable(fmt.Errorf("wrap: %w", errors.New("read tcp: connection reset by peer"))))
	assert.False(t, IsRetriable(errors.New("decode json: invalid character")))
	assert.False(t, IsRetriable(nil))
}
