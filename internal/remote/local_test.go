package remote_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/fleet-notify/internal/model"
	"github.com/nhle/fleet-notify/internal/remote"
	"github.com/nhle/fleet-notify/internal/store"
	"github.com/nhle/fleet-notify/tests/testutil"
)

func TestLocal(t *testing.T) {
	now := time.Date(2025, time.June, 11, 15, 0, 0, 0, time.UTC)
	s := testutil.NewTestStore(t)
	recs := testutil.Seed(t, s,
		store.Record{Title: "Freins", Type: model.TypeAlert, CreatedAt: now.Add(-2 * time.Hour)},
		store.Record{Title: "Vidange", Type: model.TypeInfo, CreatedAt: now.AddDate(0, 0, -1)},
	)
	l := remote.NewLocal(s, testutil.FixedClock(now))
	ctx := context.Background()

	res, err := l.MarkRead(ctx, []string{recs[0].ID, "gone"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)

	res, err = l.Delete(ctx, []string{recs[1].ID})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)

	sum, err := l.FetchSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.TotalCount)
	assert.Equal(t, 0, sum.UnreadCount)
	assert.Equal(t, 1, sum.AlertsCount)
	require.Len(t, sum.Notifications, 1)
	assert.Equal(t, "2h", sum.Notifications[0].CreatedAt)
	assert.True(t, sum.Notifications[0].Read)

	res, err = l.MarkUnread(ctx, []string{recs[0].ID})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	require.NoError(t, l.MarkAllRead(ctx))
}

func TestLocal_StoreErrorsAreServerErrors(t *testing.T) {
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = remote.NewLocal(s, nil).MarkRead(context.Background(), []string{"a"})
	assert.True(t, remote.IsServerError(err))
}
