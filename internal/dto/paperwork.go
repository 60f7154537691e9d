package dto

import "time"

// AssignPaperworkRequest is the payload for POST /admin/paperworks.
type AssignPaperworkRequest struct {
	Title        string     `json:"title" validate:"required,max=255"`
	ResearcherID string     `json:"researcher_id" validate:"required"`
	Deadline     *time.Time `json:"deadline"`
}

// UpdateDeadlineRequest is the payload for PATCH /admin/paperworks/:id/deadline.
// A null deadline clears it.
type UpdateDeadlineRequest struct {
	Deadline *time.Time `json:"deadline"`
}

// PaperworkListQuery captures GET /paperworks query parameters.
type PaperworkListQuery struct {
	Status   string `form:"status"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}
