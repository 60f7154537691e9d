package models

import "time"

// PaperworkStatus is shared by paperworks and the reviews recorded on them.
type PaperworkStatus string

const (
	PaperworkAssigned         PaperworkStatus = "ASSIGNED"
	PaperworkSubmitted        PaperworkStatus = "SUBMITTED"
	PaperworkChangesRequested PaperworkStatus = "CHANGES_REQUESTED"
	PaperworkApproved         PaperworkStatus = "APPROVED"
)

// PaperworkStatuses lists every status in lifecycle order.
var PaperworkStatuses = []PaperworkStatus{
	PaperworkAssigned,
	PaperworkSubmitted,
	PaperworkChangesRequested,
	PaperworkApproved,
}

// Valid reports whether s is one of the four known statuses.
func (s PaperworkStatus) Valid() bool {
	for _, known := range PaperworkStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Paperwork is a unit of assigned research writing.
type Paperwork struct {
	ID                 string          `db:"id" json:"id"`
	Title              string          `db:"title" json:"title"`
	ResearcherID       string          `db:"researcher_id" json:"researcher_id"`
	ResearcherUsername string          `db:"researcher_username" json:"researcher"`
	Status             PaperworkStatus `db:"status" json:"status"`
	AssignedAt         time.Time       `db:"assigned_at" json:"assigned_at"`
	Deadline           *time.Time      `db:"deadline" json:"deadline,omitempty"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
	LatestVersion      *int            `db:"latest_version" json:"latest_version,omitempty"`
}

// PaperworkFilter narrows paperwork listings.
type PaperworkFilter struct {
	ResearcherID string
	Status       *PaperworkStatus
	Search       string
	Page         int
	PageSize     int
}
