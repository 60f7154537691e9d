package service

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Noel-Teens/pms-server/internal/models"
	appErrors "github.com/Noel-Teens/pms-server/pkg/errors"
)

// CanAccessPaperwork reports whether the caller may read or act on pw: admins
// always can, researchers only on paperwork assigned to them.
func CanAccessPaperwork(actor *models.JWTClaims, pw *models.Paperwork) bool {
	if actor == nil || pw == nil {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	return actor.Role == models.RoleResearcher && actor.UserID == pw.ResearcherID
}

// IsOwner reports whether the caller is the researcher assigned to pw.
func IsOwner(actor *models.JWTClaims, pw *models.Paperwork) bool {
	return actor != nil && pw != nil && actor.UserID == pw.ResearcherID
}

func requireActor(actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	return nil
}

func requireAdmin(actor *models.JWTClaims) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "reviewer capability required")
	}
	return nil
}

// validationError turns validator output into a VALIDATION_ERROR with one
// detail per failing field.
func validationError(err error, message string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return appErrors.Validation(message, fields)
}

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

type paperworkFinder interface {
	FindByID(ctx context.Context, id string) (*models.Paperwork, error)
}

// loadPaperwork resolves id, mapping unknown or malformed ids to NOT_FOUND.
func loadPaperwork(ctx context.Context, repo paperworkFinder, id string) (*models.Paperwork, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "paperwork not found")
	}
	pw, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "paperwork not found")
		}
		return nil, appErrors.Internal(err, "failed to load paperwork")
	}
	return pw, nil
}
