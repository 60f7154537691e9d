package models

import "time"

// NotificationEvent enumerates lifecycle events.
type NotificationEvent string

const (
	EventWorkAssigned     NotificationEvent = "WORK_ASSIGNED"
	EventSubmitted        NotificationEvent = "SUBMITTED"
	EventChangesRequested NotificationEvent = "CHANGES_REQUESTED"
	EventApproved         NotificationEvent = "APPROVED"
)

// Notification is an append-only event marker for a paperwork.
type Notification struct {
	ID             string            `db:"id" json:"id"`
	PaperworkID    string            `db:"paperwork_id" json:"paperwork_id"`
	PaperworkTitle string            `db:"paperwork_title" json:"paperwork_title,omitempty"`
	Event          NotificationEvent `db:"event" json:"event"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
}

// NotificationFilter scopes notification listings.
type NotificationFilter struct {
	ResearcherID string
	PaperworkID  string
	Limit        int
}
