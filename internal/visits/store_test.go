package visits

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "visits.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_HashIP(t *testing.T) {
	s := openTestStore(t)

	a := s.HashIP("203.0.113.7")
	require.Len(t, a, 16)
	require.Equal(t, a, s.HashIP("203.0.113.7"))
	require.NotEqual(t, a, s.HashIP("203.0.113.8"))
	require.NotContains(t, a, "203")
}

func TestStore_RecordAndStats(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	at := func(ts time.Time) { s.now = func() time.Time { return ts } }

	at(base.Add(-10 * 24 * time.Hour))
	require.NoError(t, s.Record(ctx, "10.0.0.1", "agent-a", "/api/spotify-top-tracks"))

	at(base.Add(-3 * 24 * time.Hour))
	require.NoError(t, s.Record(ctx, "10.0.0.2", "agent-b", "/api/spotify-top-tracks"))

	at(base.Add(-time.Hour))
	require.NoError(t, s.Record(ctx, "10.0.0.1", "agent-a", "/healthz"))
	require.NoError(t, s.Record(ctx, "10.0.0.1", "agent-a", "/api/spotify-top-tracks"))

	at(base)
	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 4, stats.TotalVisits)
	require.EqualValues(t, 2, stats.UniqueVisitors)
	require.EqualValues(t, 2, stats.VisitsToday)
	require.EqualValues(t, 3, stats.VisitsThisWeek)

	require.Equal(t, []PathCount{
		{Path: "/api/spotify-top-tracks", Visits: 3},
		{Path: "/healthz", Visits: 1},
	}, stats.TopPaths)

	require.Len(t, stats.RecentVisits, 4)
	require.Equal(t, "/api/spotify-top-tracks", stats.RecentVisits[0].Path)
	require.True(t, base.Add(-time.Hour).Equal(stats.RecentVisits[0].Timestamp))
	require.Equal(t, s.HashIP("10.0.0.1"), stats.RecentVisits[0].HashedIP)
}

func TestStore_EmptyStats(t *testing.T) {
	s := openTestStore(t)

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	require.Zero(t, stats.TotalVisits)
	require.NotNil(t, stats.TopPaths)
	require.NotNil(t, stats.RecentVisits)
}

func TestStore_StatsCancelled(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Record(context.Background(), "10.0.0.1", "agent", "/"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Stats(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStore_Cleanup(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base.Add(-400 * 24 * time.Hour) }
	require.NoError(t, s.Record(ctx, "10.0.0.1", "old", "/"))
	s.now = func() time.Time { return base.Add(-24 * time.Hour) }
	require.NoError(t, s.Record(ctx, "10.0.0.1", "new", "/"))

	s.now = func() time.Time { return base }
	n, err := s.Cleanup(ctx, 365*24*time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	recent, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, "new", recent[0].UserAgent)
}
