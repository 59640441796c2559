// README: Redis GEO index tests against NEARMATCH_TEST_REDIS.
package profile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nearmatch/internal/testutil"
	"nearmatch/internal/types"
)

func TestGeoIndexFindInBox(t *testing.T) {
	ctx := context.Background()
	rdb := testutil.OpenTestRedis(t)
	profiles := NewMemoryStore()
	index := NewGeoIndex(rdb, profiles)
	now := time.Now()
	origin := types.Coordinate{Lat: 40.7128, Lng: -74.0060}

	for _, id := range []types.ID{"self", "near", "stale", "far"} {
		profiles.Put(Profile{UserID: id, Name: string(id)})
	}
	require.NoError(t, index.Touch(ctx, "self", origin, now))
	require.NoError(t, index.Touch(ctx, "near", types.Coordinate{Lat: 40.7129, Lng: -74.0060}, now))
	require.NoError(t, index.Touch(ctx, "stale", types.Coordinate{Lat: 40.7129, Lng: -74.0061}, now.Add(-2*time.Hour)))
	require.NoError(t, index.Touch(ctx, "far", types.Coordinate{Lat: 40.80, Lng: -74.0060}, now))

	got, err := index.FindInBox(ctx, types.BoxAround(origin, 0.003), "self", now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, types.ID("near"), got[0].UserID)
	require.NotNil(t, got[0].Location)
	assert.InDelta(t, 40.7129, got[0].Location.Lat, 1e-4)
}

func TestGeoIndexEmpty(t *testing.T) {
	rdb := testutil.OpenTestRedis(t)
	index := NewGeoIndex(rdb, NewMemoryStore())

	got, err := index.FindInBox(context.Background(), types.BoxAround(types.Coordinate{Lat: 1, Lng: 1}, 0.003), "", time.Time{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
