package store

import (
	"context"
	"time"

	"github.com/nhle/fleet-notify/internal/model"
)

// Record is a stored notification with its real creation timestamp.
type Record struct {
	ID          string          `db:"id"`
	Title       string          `db:"title"`
	Description string          `db:"description"`
	RelatedTo   string          `db:"related_to"`
	Type        model.TypeLabel `db:"type"`
	Read        bool            `db:"read"`
	CreatedAt   time.Time       `db:"created_at"`
}

// ToNotification converts a record into the client-facing shape, rendering
// CreatedAt as display text relative to now.
func (r Record) ToNotification(now time.Time) model.Notification {
	return model.Notification{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		RelatedTo:   r.RelatedTo,
		Type:        r.Type,
		Read:        r.Read,
		CreatedAt:   DisplayDate(r.CreatedAt, now),
	}
}

// Counts holds the aggregate figures reported by the summary call.
type Counts struct {
	Total  int
	Unread int
	Today  int
	Alerts int
}

// NotificationStore defines the persistence interface for notifications.
type NotificationStore interface {
	CreateNotification(ctx context.Context, r Record) (Record, error)
	ListNotifications(ctx context.Context, limit int) ([]Record, error)
	MarkRead(ctx context.Context, ids []string) (int64, error)
	MarkUnread(ctx context.Context, ids []string) (int64, error)
	DeleteNotifications(ctx context.Context, ids []string) (int64, error)
	MarkAllRead(ctx context.Context) (int64, error)
	Counts(ctx context.Context, now time.Time) (Counts, error)
}
