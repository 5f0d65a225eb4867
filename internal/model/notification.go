package model

// TypeLabel classifies a notification by urgency.
type TypeLabel string

const (
	TypeAlert   TypeLabel = "Alert"
	TypeInfo    TypeLabel = "Info"
	TypeSuccess TypeLabel = "Success"
	TypeWarning TypeLabel = "Warning"
)

// KnownTypes lists the labels the fleet store emits, most urgent first.
var KnownTypes = []TypeLabel{TypeAlert, TypeInfo, TypeSuccess, TypeWarning}

// Notification is a maintenance notification as hydrated from the remote
// store. Records are never created on the client.
type Notification struct {
	// ID is assigned by the remote store and never changes.
	ID string `json:"id"`

	Title       string `json:"title"`
	Description string `json:"description"`

	// RelatedTo is free text naming the vehicle, intervention or team
	// the notification is about.
	RelatedTo string `json:"related_to,omitempty"`

	Type TypeLabel `json:"type,omitempty"`
	Read bool      `json:"read"`

	// CreatedAt is display text as sent by the store: "15/05/2025",
	// "Hier", "2h", "30min", "3 hours ago" and similar forms.
	CreatedAt string `json:"created_at"`
}

// Summary is the payload of the remote fetchSummary call.
type Summary struct {
	UnreadCount   int            `json:"unreadCount"`
	TotalCount    int            `json:"totalCount"`
	TodayCount    int            `json:"todayCount"`
	AlertsCount   int            `json:"alertsCount"`
	Notifications []Notification `json:"notifications"`
}
