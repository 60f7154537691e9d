package dto

// NotificationListQuery captures GET /notifications query parameters.
type NotificationListQuery struct {
	PaperworkID string `form:"paperwork_id"`
	Limit       int    `form:"limit"`
}
