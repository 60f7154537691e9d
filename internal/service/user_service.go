package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Noel-Teens/pms-server/internal/dto"
	"github.com/Noel-Teens/pms-server/internal/models"
	appErrors "github.com/Noel-Teens/pms-server/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	UpdateStatus(ctx context.Context, username string, status models.AccountStatus, updatedAt time.Time) (*models.User, error)
}

// UserService handles administrative account management.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns researcher accounts; admins are never listed.
func (s *UserService) List(ctx context.Context, query dto.UserListQuery) ([]models.User, *models.Pagination, error) {
	filter := models.UserFilter{
		ExcludeAdmins: true,
		Search:        strings.TrimSpace(query.Search),
		Page:          query.Page,
		PageSize:      query.PageSize,
	}
	if query.Status != "" {
		status := models.AccountStatus(strings.ToUpper(query.Status))
		if !status.Valid() {
			return nil, nil, appErrors.Validation("invalid status filter", map[string]string{"status": "oneof"})
		}
		filter.Status = &status
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list users")
	}
	return users, paginate(filter.Page, filter.PageSize, total), nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	return user, nil
}

// Create adds a new ACTIVE account.
func (s *UserService) Create(ctx context.Context, req dto.CreateUserRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid create user payload")
	}

	exists, err := s.repo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check username uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "username already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         req.Role,
		Status:       models.AccountActive,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Internal(err, "failed to create user")
	}
	s.logger.Info("user created", zap.String("username", user.Username), zap.String("role", string(user.Role)))
	return user, nil
}

// UpdateStatus freezes, reactivates or deactivates an account by username.
// An admin cannot change their own status.
func (s *UserService) UpdateStatus(ctx context.Context, actor *models.JWTClaims, username string, req dto.UpdateUserStatusRequest) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	req.Status = models.AccountStatus(strings.ToUpper(string(req.Status)))
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid status payload")
	}
	if actor.Username == username {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot change your own account status")
	}

	user, err := s.repo.UpdateStatus(ctx, username, req.Status, time.Now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to update user status")
	}
	s.logger.Info("user status changed",
		zap.String("username", username),
		zap.String("status", string(req.Status)),
		zap.String("actor", actor.Username),
	)
	return user, nil
}

func paginate(page, pageSize, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}
}
