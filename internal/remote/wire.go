package remote

import "github.com/nhle/fleet-notify/internal/model"

// Wire paths shared by the HTTP client and the reference server.
const (
	PathMarkRead    = "/api/notifications/mark-read"
	PathMarkUnread  = "/api/notifications/mark-unread"
	PathDelete      = "/api/notifications/delete"
	PathMarkAllRead = "/api/notifications/mark-all-read"
	PathSummary     = "/api/notifications/summary"
)

// IDsRequest is the body of every batch call.
type IDsRequest struct {
	IDs []string `json:"ids"`
}

// Envelope is the common response shape. Only the fields relevant to a
// given call are populated.
type Envelope struct {
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
	MarkedCount  *int   `json:"marked_count,omitempty"`
	DeletedCount *int   `json:"deleted_count,omitempty"`
}

// SummaryEnvelope is the response of the summary call.
type SummaryEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	model.Summary
}
