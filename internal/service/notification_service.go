package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html/template"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Noel-Teens/pms-server/internal/dto"
	"github.com/Noel-Teens/pms-server/internal/models"
	appErrors "github.com/Noel-Teens/pms-server/pkg/errors"
	"github.com/Noel-Teens/pms-server/pkg/jobs"
)

// NotificationMailJob is the queued payload for one e-mail delivery.
type NotificationMailJob struct {
	PaperworkID    string
	PaperworkTitle string
	ResearcherID   string
	Event          models.NotificationEvent
}

type notificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error)
}

type notificationUserLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type notificationMailer interface {
	Send(ctx context.Context, to []string, subject, html string) error
}

type notificationQueue interface {
	TryEnqueue(job jobs.Job[NotificationMailJob]) error
}

// NotificationConfig lists who receives SUBMITTED mail.
type NotificationConfig struct {
	Reviewers []string
}

var notificationSubjects = map[models.NotificationEvent]string{
	models.EventWorkAssigned:     "New paperwork assigned: %s",
	models.EventSubmitted:        "New version submitted: %s",
	models.EventChangesRequested: "Changes requested: %s",
	models.EventApproved:         "Paperwork reviewed: %s",
}

var notificationBody = template.Must(template.New("notification").Parse(
	`<p>Paperwork <strong>{{.Title}}</strong>: {{.Message}}</p><p>Reference: {{.PaperworkID}}</p>`))

var notificationMessages = map[models.NotificationEvent]string{
	models.EventWorkAssigned:     "a new paperwork has been assigned to you.",
	models.EventSubmitted:        "a new version is waiting for review.",
	models.EventChangesRequested: "the reviewer requested changes.",
	models.EventApproved:         "the reviewer updated the status.",
}

// NotificationService persists lifecycle events and, when mail is wired,
// hands them to a background queue for e-mail delivery.
type NotificationService struct {
	repo    notificationRepository
	users   notificationUserLookup
	metrics *MetricsService
	logger  *zap.Logger
	cfg     NotificationConfig

	mailer notificationMailer
	queue  notificationQueue
}

// NewNotificationService constructs the service without mail delivery.
func NewNotificationService(repo notificationRepository, users notificationUserLookup, metrics *MetricsService, logger *zap.Logger, cfg NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, users: users, metrics: metrics, logger: logger, cfg: cfg}
}

// UseMail enables e-mail delivery through queue and mailer. The queue's
// handler is expected to be Deliver.
func (s *NotificationService) UseMail(queue notificationQueue, mailer notificationMailer) {
	s.queue = queue
	s.mailer = mailer
}

// Emit records event for pw. Mail delivery is best effort and never fails
// the caller.
func (s *NotificationService) Emit(ctx context.Context, pw *models.Paperwork, event models.NotificationEvent) (*models.Notification, error) {
	n := &models.Notification{PaperworkID: pw.ID, PaperworkTitle: pw.Title, Event: event}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, appErrors.Internal(err, "failed to record notification")
	}
	s.metrics.NotificationEmitted(event)

	if s.queue != nil && s.mailer != nil {
		job := jobs.Job[NotificationMailJob]{
			ID:   uuid.NewString(),
			Type: string(event),
			Payload: NotificationMailJob{
				PaperworkID:    pw.ID,
				PaperworkTitle: pw.Title,
				ResearcherID:   pw.ResearcherID,
				Event:          event,
			},
		}
		if err := s.queue.TryEnqueue(job); err != nil {
			s.logger.Warn("notification mail not queued", zap.String("paperwork_id", pw.ID), zap.String("event", string(event)), zap.Error(err))
		}
	}
	return n, nil
}

// Deliver is the queue handler: it resolves recipients and sends one mail.
// SUBMITTED goes to the reviewer list, every other event to the researcher.
func (s *NotificationService) Deliver(ctx context.Context, job jobs.Job[NotificationMailJob]) error {
	if s.mailer == nil {
		return nil
	}
	payload := job.Payload
	recipients, err := s.recipients(ctx, payload)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		return nil
	}

	var body bytes.Buffer
	if err := notificationBody.Execute(&body, map[string]string{
		"Title":       payload.PaperworkTitle,
		"Message":     notificationMessages[payload.Event],
		"PaperworkID": payload.PaperworkID,
	}); err != nil {
		return fmt.Errorf("render notification mail: %w", err)
	}
	subject := fmt.Sprintf(notificationSubjects[payload.Event], payload.PaperworkTitle)

	if err := s.mailer.Send(ctx, recipients, subject, body.String()); err != nil {
		s.metrics.MailDelivery("failed")
		return err
	}
	s.metrics.MailDelivery("sent")
	return nil
}

func (s *NotificationService) recipients(ctx context.Context, payload NotificationMailJob) ([]string, error) {
	if payload.Event == models.EventSubmitted {
		return s.cfg.Reviewers, nil
	}
	if s.users == nil {
		return nil, nil
	}
	user, err := s.users.FindByID(ctx, payload.ResearcherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load notification recipient: %w", err)
	}
	if user.Email == "" {
		return nil, nil
	}
	return []string{user.Email}, nil
}

// List returns recent events; researchers only see their own paperwork.
func (s *NotificationService) List(ctx context.Context, actor *models.JWTClaims, query dto.NotificationListQuery) ([]models.Notification, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	filter := models.NotificationFilter{PaperworkID: query.PaperworkID, Limit: query.Limit}
	if !actor.IsAdmin() {
		filter.ResearcherID = actor.UserID
	}
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list notifications")
	}
	return items, nil
}
