package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/fleet-notify/internal/model"
	"github.com/nhle/fleet-notify/internal/store"
	"github.com/nhle/fleet-notify/tests/testutil"
)

var now = time.Date(2025, time.June, 11, 15, 0, 0, 0, time.UTC)

func TestCreateNotification_Defaults(t *testing.T) {
	s := testutil.NewTestStore(t)

	rec, err := s.CreateNotification(context.Background(), store.Record{Title: "Vidange"})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, model.TypeInfo, rec.Type)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestCreateNotification_RejectsUnknownType(t *testing.T) {
	s := testutil.NewTestStore(t)

	_, err := s.CreateNotification(context.Background(), store.Record{Title: "x", Type: "Urgent"})
	assert.Error(t, err)
}

func TestListNotifications_NewestFirst(t *testing.T) {
	s := testutil.NewTestStore(t)
	testutil.Seed(t, s,
		store.Record{ID: "old", Title: "Old", CreatedAt: now.AddDate(0, 0, -3)},
		store.Record{ID: "new", Title: "New", CreatedAt: now.Add(-time.Minute)},
		store.Record{ID: "mid", Title: "Mid", CreatedAt: now.AddDate(0, 0, -1)},
	)

	recs, err := s.ListNotifications(context.Background(), 0)
	require.NoError(t, err)
	var ids []string
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"new", "mid", "old"}, ids)

	recs, err = s.ListNotifications(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestBatchUpdates(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)
	testutil.Seed(t, s,
		store.Record{ID: "a", Title: "A", Type: model.TypeAlert, CreatedAt: now.Add(-time.Hour)},
		store.Record{ID: "b", Title: "B", Read: true, CreatedAt: now.AddDate(0, 0, -2)},
		store.Record{ID: "c", Title: "C", Type: model.TypeAlert, CreatedAt: now.AddDate(0, 0, -5)},
	)

	n, err := s.MarkRead(ctx, []string{"a", "b", "zzz"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n, "rows already read still count, missing ids do not")

	n, err = s.MarkUnread(ctx, []string{"b"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.MarkRead(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	counts, err := s.Counts(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, store.Counts{Total: 3, Unread: 2, Today: 1, Alerts: 2}, counts)

	n, err = s.DeleteNotifications(ctx, []string{"c", "zzz"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.MarkAllRead(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	counts, err = s.Counts(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, store.Counts{Total: 2, Unread: 0, Today: 1, Alerts: 1}, counts)
}

func TestDeleteNotifications_QueryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("DELETE FROM notifications WHERE id IN").
		WithArgs("a", "b").
		WillReturnError(errors.New("database is locked"))

	s := store.NewWithDB(sqlx.NewDb(db, "sqlmock"))
	_, err = s.DeleteNotifications(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deleting notifications")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDisplayDate(t *testing.T) {
	tests := []struct {
		created time.Time
		want    string
	}{
		{now.Add(-20 * time.Second), "À l'instant"},
		{now.Add(-30 * time.Minute), "30min"},
		{now.Add(-2 * time.Hour), "2h"},
		{time.Date(2025, 6, 10, 23, 0, 0, 0, time.UTC), "Hier"},
		{time.Date(2025, 5, 15, 8, 0, 0, 0, time.UTC), "15/05/2025"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, store.DisplayDate(tt.created, now))
	}
}
