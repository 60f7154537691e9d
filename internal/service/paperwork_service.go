package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Noel-Teens/pms-server/internal/dto"
	"github.com/Noel-Teens/pms-server/internal/models"
	appErrors "github.com/Noel-Teens/pms-server/pkg/errors"
)

type paperworkRepository interface {
	Create(ctx context.Context, pw *models.Paperwork) error
	FindByID(ctx context.Context, id string) (*models.Paperwork, error)
	List(ctx context.Context, filter models.PaperworkFilter) ([]models.Paperwork, int, error)
	UpdateDeadline(ctx context.Context, id string, deadline *time.Time, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

type paperworkUserLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type paperworkVersionLister interface {
	ListByPaperwork(ctx context.Context, paperworkID string) ([]models.Version, error)
}

type versionFileRemover interface {
	RemoveFiles(ctx context.Context, v models.Version)
}

// PaperworkService manages assignment, listing and deletion of paperwork.
type PaperworkService struct {
	repo      paperworkRepository
	users     paperworkUserLookup
	versions  paperworkVersionLister
	files     versionFileRemover
	notifier  paperworkNotifier
	cache     reportInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaperworkService constructs the service.
func NewPaperworkService(
	repo paperworkRepository,
	users paperworkUserLookup,
	versions paperworkVersionLister,
	files versionFileRemover,
	notifier paperworkNotifier,
	cache reportInvalidator,
	validate *validator.Validate,
	logger *zap.Logger,
) *PaperworkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &PaperworkService{
		repo:      repo,
		users:     users,
		versions:  versions,
		files:     files,
		notifier:  notifier,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// Assign creates a paperwork in ASSIGNED state for a researcher and emits
// WORK_ASSIGNED.
func (s *PaperworkService) Assign(ctx context.Context, actor *models.JWTClaims, req dto.AssignPaperworkRequest) (*models.Paperwork, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid assignment payload")
	}

	researcher, err := s.users.FindByID(ctx, req.ResearcherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Validation("unknown researcher", map[string]string{"researcher_id": "not found"})
		}
		return nil, appErrors.Internal(err, "failed to load researcher")
	}
	if researcher.Role != models.RoleResearcher {
		return nil, appErrors.Validation("paperwork can only be assigned to researchers", map[string]string{"researcher_id": "not a researcher"})
	}

	pw := &models.Paperwork{
		Title:              req.Title,
		ResearcherID:       researcher.ID,
		ResearcherUsername: researcher.Username,
		Status:             models.PaperworkAssigned,
		Deadline:           req.Deadline,
	}
	if err := s.repo.Create(ctx, pw); err != nil {
		return nil, appErrors.Internal(err, "failed to create paperwork")
	}
	if _, err := s.notifier.Emit(ctx, pw, models.EventWorkAssigned); err != nil {
		return nil, err
	}
	s.cache.InvalidateReports(ctx)
	s.logger.Info("paperwork assigned", zap.String("paperwork_id", pw.ID), zap.String("researcher", researcher.Username))
	return pw, nil
}

// List returns paperwork visible to the caller; researchers see only their own.
func (s *PaperworkService) List(ctx context.Context, actor *models.JWTClaims, query dto.PaperworkListQuery) ([]models.Paperwork, *models.Pagination, error) {
	if err := requireActor(actor); err != nil {
		return nil, nil, err
	}
	filter := models.PaperworkFilter{
		Search:   strings.TrimSpace(query.Search),
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	if !actor.IsAdmin() {
		filter.ResearcherID = actor.UserID
	}
	if query.Status != "" {
		status := models.PaperworkStatus(strings.ToUpper(query.Status))
		if !status.Valid() {
			return nil, nil, appErrors.Validation("invalid status filter", map[string]string{"status": "oneof"})
		}
		filter.Status = &status
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list paperwork")
	}
	return items, paginate(filter.Page, filter.PageSize, total), nil
}

// Get returns one paperwork for its owner or an admin.
func (s *PaperworkService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Paperwork, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	pw, err := loadPaperwork(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if !CanAccessPaperwork(actor, pw) {
		return nil, appErrors.ErrForbidden
	}
	return pw, nil
}

// UpdateDeadline sets or clears the deadline.
func (s *PaperworkService) UpdateDeadline(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateDeadlineRequest) (*models.Paperwork, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	pw, err := loadPaperwork(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := s.repo.UpdateDeadline(ctx, pw.ID, req.Deadline, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "paperwork not found")
		}
		return nil, appErrors.Internal(err, "failed to update deadline")
	}
	pw.Deadline = req.Deadline
	pw.UpdatedAt = now
	return pw, nil
}

// Delete removes the paperwork with its versions, reviews and notifications,
// then deletes the stored files of every version.
func (s *PaperworkService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	pw, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	versions, err := s.versions.ListByPaperwork(ctx, pw.ID)
	if err != nil {
		return appErrors.Internal(err, "failed to list versions")
	}
	if err := s.repo.Delete(ctx, pw.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "paperwork not found")
		}
		return appErrors.Internal(err, "failed to delete paperwork")
	}
	for _, v := range versions {
		s.files.RemoveFiles(ctx, v)
	}
	s.cache.InvalidateReports(ctx)
	s.logger.Info("paperwork deleted", zap.String("paperwork_id", pw.ID), zap.Int("versions", len(versions)))
	return nil
}
