package remote

import (
	"context"
	"time"

	"github.com/nhle/fleet-notify/internal/model"
	"github.com/nhle/fleet-notify/internal/store"
)

// Local serves the remote contract from an in-process store. Store
// failures surface as ServerError so the engine treats them like a
// success=false answer.
type Local struct {
	store store.NotificationStore
	now   func() time.Time
	limit int
}

// NewLocal wraps s. The clock renders display dates and today counts.
func NewLocal(s store.NotificationStore, now func() time.Time) *Local {
	if now == nil {
		now = time.Now
	}
	return &Local{store: s, now: now}
}

func (l *Local) MarkRead(ctx context.Context, ids []string) (BatchResult, error) {
	n, err := l.store.MarkRead(ctx, ids)
	if err != nil {
		return BatchResult{}, &ServerError{Op: "markRead", Message: err.Error()}
	}
	return BatchResult{Count: int(n)}, nil
}

func (l *Local) MarkUnread(ctx context.Context, ids []string) (BatchResult, error) {
	n, err := l.store.MarkUnread(ctx, ids)
	if err != nil {
		return BatchResult{}, &ServerError{Op: "markUnread", Message: err.Error()}
	}
	return BatchResult{Count: int(n)}, nil
}

func (l *Local) Delete(ctx context.Context, ids []string) (BatchResult, error) {
	n, err := l.store.DeleteNotifications(ctx, ids)
	if err != nil {
		return BatchResult{}, &ServerError{Op: "delete", Message: err.Error()}
	}
	return BatchResult{Count: int(n)}, nil
}

func (l *Local) MarkAllRead(ctx context.Context) error {
	if _, err := l.store.MarkAllRead(ctx); err != nil {
		return &ServerError{Op: "markAllRead", Message: err.Error()}
	}
	return nil
}

func (l *Local) FetchSummary(ctx context.Context) (*model.Summary, error) {
	return BuildSummary(ctx, l.store, l.now(), l.limit)
}

// BuildSummary assembles the summary payload from a store. It is shared by
// the local adapter and the reference server.
func BuildSummary(ctx context.Context, s store.NotificationStore, now time.Time, limit int) (*model.Summary, error) {
	counts, err := s.Counts(ctx, now)
	if err != nil {
		return nil, &ServerError{Op: "fetchSummary", Message: err.Error()}
	}

	records, err := s.ListNotifications(ctx, limit)
	if err != nil {
		return nil, &ServerError{Op: "fetchSummary", Message: err.Error()}
	}

	notifications := make([]model.Notification, 0, len(records))
	for _, r := range records {
		notifications = append(notifications, r.ToNotification(now))
	}

	return &model.Summary{
		UnreadCount:   counts.Unread,
		TotalCount:    counts.Total,
		TodayCount:    counts.Today,
		AlertsCount:   counts.Alerts,
		Notifications: notifications,
	}, nil
}
