package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Noel-Teens/pms-server/internal/dto"
	"github.com/Noel-Teens/pms-server/internal/models"
	appErrors "github.com/Noel-Teens/pms-server/pkg/errors"
)

type reviewPaperworkRepository interface {
	FindByID(ctx context.Context, id string) (*models.Paperwork, error)
	UpdateStatus(ctx context.Context, id string, status models.PaperworkStatus, updatedAt time.Time) error
}

type reviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	ListByPaperwork(ctx context.Context, paperworkID string) ([]models.Review, error)
}

type verifiedAIRecorder interface {
	UpdateVerifiedAI(ctx context.Context, paperworkID string, percent float64) error
}

// strictTransitions is the reviewer-driven state machine used when strict
// mode is on. Resubmission is handled by the submission workflow.
var strictTransitions = map[models.PaperworkStatus][]models.PaperworkStatus{
	models.PaperworkSubmitted:        {models.PaperworkApproved, models.PaperworkChangesRequested},
	models.PaperworkChangesRequested: {models.PaperworkSubmitted},
}

// ReviewConfig selects the transition policy. With Strict off any status may
// be set from any other as an administrative override.
type ReviewConfig struct {
	Strict bool
}

// ReviewService runs the review workflow.
type ReviewService struct {
	paperworks reviewPaperworkRepository
	reviews    reviewRepository
	versions   verifiedAIRecorder
	notifier   paperworkNotifier
	cache      reportInvalidator
	validator  *validator.Validate
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        ReviewConfig
}

// NewReviewService constructs the service.
func NewReviewService(
	paperworks reviewPaperworkRepository,
	reviews reviewRepository,
	versions verifiedAIRecorder,
	notifier paperworkNotifier,
	cache reportInvalidator,
	validate *validator.Validate,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg ReviewConfig,
) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &ReviewService{
		paperworks: paperworks,
		reviews:    reviews,
		versions:   versions,
		notifier:   notifier,
		cache:      cache,
		validator:  validate,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
	}
}

// Review sets the paperwork status, records a Review when a comment is given
// and emits CHANGES_REQUESTED or APPROVED.
func (s *ReviewService) Review(ctx context.Context, actor *models.JWTClaims, paperworkID string, req dto.ReviewRequest) (*models.Paperwork, error) {
	pw, err := loadPaperwork(ctx, s.paperworks, paperworkID)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid review payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Validation("invalid status", map[string]string{"status": "oneof ASSIGNED SUBMITTED CHANGES_REQUESTED APPROVED"})
	}
	if s.cfg.Strict && !transitionAllowed(pw.Status, req.Status) {
		return nil, appErrors.Validation("status transition not allowed", map[string]string{
			"status": fmt.Sprintf("cannot move from %s to %s", pw.Status, req.Status),
		})
	}

	if req.AIPercentVerified != nil {
		if err := s.versions.UpdateVerifiedAI(ctx, pw.ID, *req.AIPercentVerified); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Validation("paperwork has no version to verify", map[string]string{"ai_percent_verified": "no version"})
			}
			return nil, appErrors.Internal(err, "failed to record verified ai percentage")
		}
	}

	now := time.Now().UTC()
	if err := s.paperworks.UpdateStatus(ctx, pw.ID, req.Status, now); err != nil {
		return nil, appErrors.Internal(err, "failed to update paperwork status")
	}
	pw.Status = req.Status
	pw.UpdatedAt = now

	if comment := strings.TrimSpace(req.Comments); comment != "" {
		reviewerID := actor.UserID
		review := &models.Review{
			PaperworkID: pw.ID,
			ReviewerID:  &reviewerID,
			Status:      req.Status,
			Comments:    comment,
		}
		if err := s.reviews.Create(ctx, review); err != nil {
			return nil, appErrors.Internal(err, "failed to record review")
		}
	}

	event := models.EventApproved
	if req.Status == models.PaperworkChangesRequested {
		event = models.EventChangesRequested
	}
	if _, err := s.notifier.Emit(ctx, pw, event); err != nil {
		return nil, err
	}

	s.metrics.ReviewRecorded(req.Status)
	s.cache.InvalidateReports(ctx)
	s.logger.Info("paperwork reviewed",
		zap.String("paperwork_id", pw.ID),
		zap.String("status", string(req.Status)),
		zap.String("reviewer", actor.Username),
	)
	return pw, nil
}

// ListReviews returns the reviews of a paperwork for its owner or an admin.
func (s *ReviewService) ListReviews(ctx context.Context, actor *models.JWTClaims, paperworkID string) ([]models.Review, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	pw, err := loadPaperwork(ctx, s.paperworks, paperworkID)
	if err != nil {
		return nil, err
	}
	if !CanAccessPaperwork(actor, pw) {
		return nil, appErrors.ErrForbidden
	}
	reviews, err := s.reviews.ListByPaperwork(ctx, pw.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list reviews")
	}
	return reviews, nil
}

func transitionAllowed(from, to models.PaperworkStatus) bool {
	for _, allowed := range strictTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
