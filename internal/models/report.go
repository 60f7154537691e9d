package models

import "time"

// ReportSummary aggregates paperwork across the system.
type ReportSummary struct {
	TotalPapers         int            `json:"total_papers"`
	PapersByStatus      map[string]int `json:"papers_by_status"`
	PapersByResearcher  map[string]int `json:"papers_by_researcher"`
	AverageAIPercentage float64        `json:"average_ai_percentage"`
}

// GroupCount is one row of a GROUP BY count.
type GroupCount struct {
	Key   string `db:"key"`
	Count int    `db:"count"`
}

// ReportRow is one paperwork with its latest version, used by exports.
type ReportRow struct {
	ID                 string          `db:"id"`
	Title              string          `db:"title"`
	ResearcherUsername string          `db:"researcher_username"`
	Status             PaperworkStatus `db:"status"`
	AssignedAt         time.Time       `db:"assigned_at"`
	LatestVersion      *int            `db:"latest_version"`
	AIPercentVerified  *float64        `db:"ai_percent_verified"`
}

// ResearcherStats summarises one researcher's paperwork.
type ResearcherStats struct {
	Total            int `db:"total" json:"total"`
	PendingReview    int `db:"pending_review" json:"pending_review"`
	Approved         int `db:"approved" json:"approved"`
	ChangesRequested int `db:"changes_requested" json:"changes_requested"`
}

// AdminStats summarises all paperwork.
type AdminStats struct {
	Total            int `db:"total" json:"total"`
	Submitted        int `db:"submitted" json:"submitted"`
	Approved         int `db:"approved" json:"approved"`
	ChangesRequested int `db:"changes_requested" json:"changes_requested"`
}
