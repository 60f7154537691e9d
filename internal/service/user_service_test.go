package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Noel-Teens/pms-server/internal/dto"
	"github.com/Noel-Teens/pms-server/internal/models"
	appErrors "github.com/Noel-Teens/pms-server/pkg/errors"
)

type userRepoStub struct {
	users      []*models.User
	lastFilter models.UserFilter
}

func (s *userRepoStub) List(_ context.Context, filter models.UserFilter) ([]models.User, int, error) {
	s.lastFilter = filter
	var out []models.User
	for _, u := range s.users {
		if filter.ExcludeAdmins && u.Role == models.RoleAdmin {
			continue
		}
		if filter.Status != nil && u.Status != *filter.Status {
			continue
		}
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (s *userRepoStub) FindByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			out := *u
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *userRepoStub) ExistsByUsername(_ context.Context, username string) (bool, error) {
	for _, u := range s.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (s *userRepoStub) Create(_ context.Context, user *models.User) error {
	user.ID = "generated"
	s.users = append(s.users, user)
	return nil
}

func (s *userRepoStub) UpdateStatus(_ context.Context, username string, status models.AccountStatus, ts time.Time) (*models.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			u.Status = status
			u.UpdatedAt = ts
			out := *u
			return &out, nil
		}
	}
	return nil, sql.ErrNoRows
}

func seededUsers() *userRepoStub {
	return &userRepoStub{users: []*models.User{
		{ID: "a-1", Username: "admin", Role: models.RoleAdmin, Status: models.AccountActive},
		{ID: "r-1", Username: "ada", Role: models.RoleResearcher, Status: models.AccountActive},
		{ID: "r-2", Username: "grace", Role: models.RoleResearcher, Status: models.AccountFrozen},
	}}
}

func TestUserListExcludesAdmins(t *testing.T) {
	repo := seededUsers()
	svc := NewUserService(repo, nil, nil)

	users, page, err := svc.List(context.Background(), dto.UserListQuery{})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.True(t, repo.lastFilter.ExcludeAdmins)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	assert.Equal(t, 2, page.TotalCount)

	users, _, err = svc.List(context.Background(), dto.UserListQuery{Status: "frozen"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "grace", users[0].Username)

	_, _, err = svc.List(context.Background(), dto.UserListQuery{Status: "GONE"})
	require.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestUserCreate(t *testing.T) {
	repo := seededUsers()
	svc := NewUserService(repo, nil, nil)

	user, err := svc.Create(context.Background(), dto.CreateUserRequest{
		Username: " linus ",
		Email:    "Linus@Lab.test",
		Password: "password123",
		Role:     models.RoleResearcher,
	})
	require.NoError(t, err)
	assert.Equal(t, "linus", user.Username)
	assert.Equal(t, "linus@lab.test", user.Email)
	assert.Equal(t, models.AccountActive, user.Status)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))

	_, err = svc.Create(context.Background(), dto.CreateUserRequest{Username: "ada", Password: "password123", Role: models.RoleResearcher})
	require.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestUserCreateValidation(t *testing.T) {
	svc := NewUserService(seededUsers(), nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateUserRequest{Username: "ab", Password: "short", Role: "OWNER"})
	require.ErrorIs(t, err, appErrors.ErrValidation)
	appErr := appErrors.FromError(err)
	assert.Contains(t, appErr.Details, "username")
	assert.Contains(t, appErr.Details, "password")
	assert.Contains(t, appErr.Details, "role")
}

func TestUserUpdateStatus(t *testing.T) {
	repo := seededUsers()
	svc := NewUserService(repo, nil, nil)
	actor := &models.JWTClaims{UserID: "a-1", Username: "admin", Role: models.RoleAdmin}
	ctx := context.Background()

	user, err := svc.UpdateStatus(ctx, actor, "ada", dto.UpdateUserStatusRequest{Status: "frozen"})
	require.NoError(t, err)
	assert.Equal(t, models.AccountFrozen, user.Status)

	_, err = svc.UpdateStatus(ctx, actor, "admin", dto.UpdateUserStatusRequest{Status: models.AccountInactive})
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.UpdateStatus(ctx, actor, "nobody", dto.UpdateUserStatusRequest{Status: models.AccountActive})
	require.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.UpdateStatus(ctx, actor, "ada", dto.UpdateUserStatusRequest{Status: "DELETED"})
	require.ErrorIs(t, err, appErrors.ErrValidation)

	researcherActor := &models.JWTClaims{UserID: "r-1", Username: "ada", Role: models.RoleResearcher}
	_, err = svc.UpdateStatus(ctx, researcherActor, "grace", dto.UpdateUserStatusRequest{Status: models.AccountActive})
	require.ErrorIs(t, err, appErrors.ErrForbidden)
}
