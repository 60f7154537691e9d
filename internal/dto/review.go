package dto

import "github.com/Noel-Teens/pms-server/internal/models"

// ReviewRequest is the payload for POST /paperworks/:id/review.
type ReviewRequest struct {
	Status            models.PaperworkStatus `json:"status" validate:"required"`
	Comments          string                 `json:"comments"`
	AIPercentVerified *float64               `json:"ai_percent_verified" validate:"omitempty,gte=0,lte=100"`
}
