package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmsync/internal/domain/farm"
)

func TestParseWatermark(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{name: "zulu", raw: "2025-05-14T10:00:00Z", want: time.Date(2025, 5, 14, 10, 0, 0, 0, time.UTC)},
		{name: "millis", raw: "2025-05-14T10:00:00.123Z", want: time.Date(2025, 5, 14, 10, 0, 0, 123e6, time.UTC)},
		{name: "offset", raw: "2025-05-14T13:00:00+03:00", want: time.Date(2025, 5, 14, 10, 0, 0, 0, time.UTC)},
		{name: "offset from query string", raw: "2025-05-14T13:00:00 03:00", want: time.Date(2025, 5, 14, 10, 0, 0, 0, time.UTC)},
		{name: "naive", raw: "2025-05-14T10:00:00", want: time.Date(2025, 5, 14, 10, 0, 0, 0, time.UTC)},
		{name: "space separated", raw: "2025-05-14 10:00:00", want: time.Date(2025, 5, 14, 10, 0, 0, 0, time.UTC)},
		{name: "space separated with offset", raw: "2025-05-14 12:00:00+05:00", want: time.Date(2025, 5, 14, 7, 0, 0, 0, time.UTC)},
		{name: "space separated offset from query string", raw: "2025-05-14 12:00:00 05:00", want: time.Date(2025, 5, 14, 7, 0, 0, 0, time.UTC)},
		{name: "space separated fraction offset from query string", raw: "2025-05-14 12:00:00.5 05:00", want: time.Date(2025, 5, 14, 7, 0, 0, 5e8, time.UTC)},
		{name: "date only", raw: "2025-05-14", want: time.Date(2025, 5, 14, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWatermark(tt.raw)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %s", got)
		})
	}

	got, err := ParseWatermark("  ")
	require.NoError(t, err)
	assert.Nil(t, got)

	for _, raw := range []string{"yesterday", "14/05/2025", "2025-13-01", "2025-05-14 12:00", "2025-05-14 12:00:00 5:00"} {
		_, err := ParseWatermark(raw)
		assert.ErrorIs(t, err, ErrInvalidWatermark, raw)
	}
}

func TestService_PendingFarms(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, nil)

	at := func(h int) time.Time { return time.Date(2025, 5, 14, h, 0, 0, 0, time.UTC) }
	store.state.farms[1] = farm.Farm{ID: 1, UserID: 1, Name: "old", SyncMeta: farm.SyncMeta{UpdatedAt: at(8)}}
	store.state.farms[3] = farm.Farm{ID: 3, UserID: 1, Name: "newer", SyncMeta: farm.SyncMeta{UpdatedAt: at(11)}}
	store.state.farms[2] = farm.Farm{ID: 2, UserID: 1, Name: "new", SyncMeta: farm.SyncMeta{UpdatedAt: at(10)}}
	store.state.farms[4] = farm.Farm{ID: 4, UserID: 2, Name: "foreign", SyncMeta: farm.SyncMeta{UpdatedAt: at(11)}}

	all, err := svc.PendingFarms(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	recent, err := svc.PendingFarms(context.Background(), 1, "2025-05-14T09:00:00Z")
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, int64(2), recent[0].ID)
	assert.Equal(t, int64(3), recent[1].ID)

	none, err := svc.PendingFarms(context.Background(), 1, "2025-05-14T11:00:00Z")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = svc.PendingFarms(context.Background(), 1, "not-a-date")
	assert.ErrorIs(t, err, ErrInvalidWatermark)
}

func TestService_PendingAfterSync(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, nil)
	farmID := seedFarm(t, svc, 1, 1)

	_, err := svc.Sync(context.Background(), 1, Payload{
		BoundaryPoints: []Fields{{"id": 2, "farm_id": farmID, "latitude": 1.0, "longitude": 2.0}},
		ObservationPoints: []Fields{
			{"id": 3, "farm_id": farmID, "latitude": 1.0, "longitude": 2.0, "segment": 1},
		},
	})
	require.NoError(t, err)

	before := testNow.Add(-time.Minute).Format(time.RFC3339)
	points, err := svc.PendingBoundaryPoints(context.Background(), 1, before)
	require.NoError(t, err)
	assert.Len(t, points, 1)

	obs, err := svc.PendingObservationPoints(context.Background(), 1, before)
	require.NoError(t, err)
	assert.Len(t, obs, 1)

	foreign, err := svc.PendingObservationPoints(context.Background(), 2, "")
	require.NoError(t, err)
	assert.Empty(t, foreign)

	suggestions, err := svc.PendingInspectionSuggestions(context.Background(), 1, testNow.Format(time.RFC3339))
	require.NoError(t, err)
	assert.Empty(t, suggestions)

	observations, err := svc.PendingInspectionObservations(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Empty(t, observations)
}
