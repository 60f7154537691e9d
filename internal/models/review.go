package models

import "time"

// Review records a review decision that carried a comment.
type Review struct {
	ID          string          `db:"id" json:"id"`
	PaperworkID string          `db:"paperwork_id" json:"paperwork_id"`
	ReviewerID  *string         `db:"reviewer_id" json:"reviewer_id,omitempty"`
	Status      PaperworkStatus `db:"status" json:"status"`
	Comments    string          `db:"comments" json:"comments"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}
