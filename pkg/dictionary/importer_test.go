package dictionary

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImporterRoundTrip(t *testing.T) {
	_, client := newTestRedis(t)

	lines, err := ParseCEDICT(strings.NewReader(sampleCEDICT))
	require.NoError(t, err)
	entries := BuildEntries(lines, nil)

	n, err := NewImporter(client, 2, nil).Import(context.Background(), entries)
	require.NoError(t, err)
	assert.Equal(t, len(entries), n)

	cache := NewCache(NewRedisStore(client))
	for _, want := range entries {
		res, err := cache.Lookup(context.Background(), want.UID)
		require.NoError(t, err)
		require.True(t, res.OK(), want.UID)
		assert.Equal(t, want, res.Entry())
	}
}

func TestImporterStopsOnCancel(t *testing.T) {
	_, client := newTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entries := []Entry{NewEntry("好", "好", "hao3", "/good/")}
	_, err := NewImporter(client, 10, nil).Import(ctx, entries)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestImporterReportsProgress(t *testing.T) {
	_, client := newTestRedis(t)
	entries := []Entry{
		NewEntry("你", "你", "ni3", "/you/"),
		NewEntry("好", "好", "hao3", "/good/"),
		NewEntry("們", "们", "men5", "/plural marker/"),
	}

	var calls [][2]int
	im := NewImporter(client, 2, nil)
	im.OnProgress = func(current, total int) {
		calls = append(calls, [2]int{current, total})
	}
	_, err := im.Import(context.Background(), entries)
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{2, 3}, {3, 3}}, calls)
}
