package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Noel-Teens/pms-server/internal/models"
)

// NotificationRepository persists lifecycle events.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts an event.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, paperwork_id, event, created_at) VALUES (:id, :paperwork_id, :event, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// List returns events newest first, optionally scoped to a researcher's
// paperwork or a single paperwork.
func (r *NotificationRepository) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	query := `SELECT n.id, n.paperwork_id, p.title AS paperwork_title, n.event, n.created_at
FROM notifications n JOIN paperworks p ON p.id = n.paperwork_id`
	var conditions []string
	var args []interface{}
	if filter.ResearcherID != "" {
		args = append(args, filter.ResearcherID)
		conditions = append(conditions, fmt.Sprintf("p.researcher_id = $%d", len(args)))
	}
	if filter.PaperworkID != "" {
		args = append(args, filter.PaperworkID)
		conditions = append(conditions, fmt.Sprintf("n.paperwork_id = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query += fmt.Sprintf(" ORDER BY n.created_at DESC LIMIT %d", limit)

	var items []models.Notification
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return items, nil
}
