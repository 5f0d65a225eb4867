package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/fleet-notify/internal/engine"
	"github.com/nhle/fleet-notify/internal/model"
	"github.com/nhle/fleet-notify/internal/remote"
	"github.com/nhle/fleet-notify/internal/store"
	"github.com/nhle/fleet-notify/tests/testutil"
)

const testToken = "s3cret"

var now = time.Date(2025, time.June, 11, 15, 0, 0, 0, time.UTC)

func seeded(t *testing.T) (*store.SQLiteStore, []store.Record) {
	t.Helper()
	s := testutil.NewTestStore(t)
	recs := testutil.Seed(t, s,
		store.Record{Title: "Brake pads worn", RelatedTo: "Truck 12", Type: model.TypeAlert, CreatedAt: now.Add(-30 * time.Minute)},
		store.Record{Title: "Oil change scheduled", Type: model.TypeInfo, Read: true, CreatedAt: time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)},
		store.Record{Title: "Tyre pressure low", Type: model.TypeWarning, CreatedAt: time.Date(2025, 5, 15, 8, 0, 0, 0, time.UTC)},
	)
	return s, recs
}

func newTestServer(t *testing.T, st store.NotificationStore) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(st, testToken, WithClock(testutil.FixedClock(now))).Router())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestSummary(t *testing.T) {
	st, _ := seeded(t)
	srv := newTestServer(t, st)

	resp, body := do(t, srv, http.MethodGet, remote.PathSummary, testToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 3, body["totalCount"])
	assert.EqualValues(t, 2, body["unreadCount"])
	assert.EqualValues(t, 1, body["todayCount"])
	assert.EqualValues(t, 1, body["alertsCount"])

	list, ok := body["notifications"].([]any)
	require.True(t, ok)
	require.Len(t, list, 3)

	var dates []string
	for _, item := range list {
		dates = append(dates, item.(map[string]any)["created_at"].(string))
	}
	assert.Equal(t, []string{"30min", "Hier", "15/05/2025"}, dates)
}

func TestBatchRoutes(t *testing.T) {
	st, recs := seeded(t)
	srv := newTestServer(t, st)

	resp, body := do(t, srv, http.MethodPost, remote.PathMarkRead, testToken,
		remote.IDsRequest{IDs: []string{recs[0].ID, "missing"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, body["marked_count"])

	resp, body = do(t, srv, http.MethodPost, remote.PathDelete, testToken,
		remote.IDsRequest{IDs: []string{recs[1].ID, recs[2].ID}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, body["deleted_count"])

	counts, err := st.Counts(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, store.Counts{Total: 1, Unread: 0, Today: 1, Alerts: 1}, counts)

	resp, body = do(t, srv, http.MethodPost, remote.PathMarkUnread, testToken, remote.IDsRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "ids must not be empty", body["error"])
}

func TestMarkAllRead(t *testing.T) {
	st, _ := seeded(t)
	srv := newTestServer(t, st)

	resp, body := do(t, srv, http.MethodPost, remote.PathMarkAllRead, testToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	counts, err := st.Counts(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, counts.Unread)
}

func TestCreate(t *testing.T) {
	st := testutil.NewTestStore(t)
	srv := newTestServer(t, st)

	resp, body := do(t, srv, http.MethodPost, PathCreate, testToken,
		CreateRequest{Title: "Contrôle technique", Type: model.TypeWarning, RelatedTo: "Van 3"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	n := body["notification"].(map[string]any)
	assert.NotEmpty(t, n["id"])
	assert.Equal(t, "À l'instant", n["created_at"])

	resp, body = do(t, srv, http.MethodPost, PathCreate, testToken, CreateRequest{Title: "x", Type: "Urgent"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "unknown notification type", body["error"])
}

func TestAuth(t *testing.T) {
	st, _ := seeded(t)
	srv := newTestServer(t, st)

	for _, token := range []string{"", "wrong"} {
		resp, body := do(t, srv, http.MethodGet, remote.PathSummary, token, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, false, body["success"])
	}

	resp, _ := do(t, srv, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStoreFailureIsServerError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("UPDATE notifications SET read").WillReturnError(errors.New("disk I/O error"))

	srv := newTestServer(t, store.NewWithDB(sqlx.NewDb(db, "sqlmock")))
	client := remote.NewHTTPClient(srv.URL, testToken, 5*time.Second)

	_, err = client.MarkRead(context.Background(), []string{"a"})
	var srvErr *remote.ServerError
	require.ErrorAs(t, err, &srvErr)
	assert.Equal(t, http.StatusInternalServerError, srvErr.Status)
	assert.Equal(t, "the notification store is unavailable", srvErr.Message)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEngineAgainstServer(t *testing.T) {
	st, recs := seeded(t)
	srv := newTestServer(t, st)
	client := remote.NewHTTPClient(srv.URL, testToken, 5*time.Second)

	e := engine.New(
		engine.WithClock(testutil.FixedClock(now)),
		engine.WithConfirmer(engine.ConfirmFunc(func(context.Context, engine.Prompt) (bool, error) {
			return true, nil
		})),
	)
	t.Cleanup(e.Close)

	require.NoError(t, e.Reload(context.Background(), client))
	require.Equal(t, 3, e.Len())
	assert.Equal(t, 2, e.Stats().Unread)

	e.ToggleSelect(recs[0].ID)
	e.ToggleSelect(recs[2].ID)
	req, err := e.DispatchSelection(engine.ActionDelete)
	require.NoError(t, err)
	res, err := e.Do(context.Background(), client, req.Action, req.IDs)
	require.NoError(t, err)
	assert.Equal(t, engine.PhaseCommitted, res.Phase)

	assert.Equal(t, 1, e.Len())
	snap := e.Stats()
	assert.True(t, snap.Authoritative)
	assert.Equal(t, 1, snap.Total)
	assert.Equal(t, 0, snap.Unread)

	counts, err := st.Counts(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Total)
}
