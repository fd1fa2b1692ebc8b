package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/research-portal-api/internal/dto"
	"github.com/noah-isme/research-portal-api/internal/models"
	appErrors "github.com/noah-isme/research-portal-api/pkg/errors"
	"github.com/noah-isme/research-portal-api/pkg/validation"
)

type mockUserRepo struct {
	users         []models.User
	lastFilter    models.UserFilter
	usernameTaken bool
	emailTaken    bool
	created       []*models.User
	auditLogs     []*models.AuditLog
	listErr       error
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	m.lastFilter = filter
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.users, len(m.users), nil
}

func (m *mockUserRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, bool, error) {
	return m.usernameTaken, m.emailTaken, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	m.created = append(m.created, user)
	return nil
}

func (m *mockUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func validAdminCreate() dto.AdminCreateUserRequest {
	return dto.AdminCreateUserRequest{
		Username:        "reviewer",
		Email:           "Reviewer@Example.com",
		Password:        "s3cret-pass",
		ConfirmPassword: "s3cret-pass",
	}
}

func TestUserServiceList(t *testing.T) {
	joined := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	repo := &mockUserRepo{users: []models.User{{ID: "1", Username: "alice", Email: "a@example.com", Role: models.RoleAdmin, Active: true, CreatedAt: joined}}}
	svc := NewUserService(repo, validation.New(), nil)

	items, pagination, err := svc.List(context.Background(), dto.AdminUserQuery{Role: "ADMIN", Search: " ali "})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "ADMIN", items[0].Role)
	assert.Equal(t, joined, items[0].DateJoined)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
	require.NotNil(t, repo.lastFilter.Role)
	assert.Equal(t, models.RoleAdmin, *repo.lastFilter.Role)
	assert.Equal(t, "ali", repo.lastFilter.Search)
}

func TestUserServiceListRejectsUnknownRole(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, validation.New(), nil)

	_, _, err := svc.List(context.Background(), dto.AdminUserQuery{Role: "REVIEWER"})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Fields, "role")
}

func TestUserServiceCreate(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, validation.New(), nil)

	created, err := svc.Create(context.Background(), validAdminCreate(), "admin-1", models.LoginRequest{IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "reviewer@example.com", created.Email)
	assert.Equal(t, string(models.RoleResearcher), created.Role)

	require.Len(t, repo.created, 1)
	stored := repo.created[0]
	assert.NotEqual(t, "s3cret-pass", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret-pass")))

	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionUserCreate, repo.auditLogs[0].Action)
	assert.NotContains(t, string(repo.auditLogs[0].NewValues), "s3cret-pass")
}

func TestUserServiceCreatePasswordMismatch(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, validation.New(), nil)
	req := validAdminCreate()
	req.ConfirmPassword = "different-pass"

	_, err := svc.Create(context.Background(), req, "admin-1", models.LoginRequest{})
	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, appErrors.ErrPasswordMismatch.Code, appErr.Code)
	assert.Equal(t, 400, appErr.Status)
	assert.Equal(t, []string{"Passwords do not match"}, appErr.Fields[validation.NonFieldErrors])
	assert.Empty(t, repo.created)
}

func TestUserServiceCreateDuplicate(t *testing.T) {
	repo := &mockUserRepo{emailTaken: true}
	svc := NewUserService(repo, validation.New(), nil)

	_, err := svc.Create(context.Background(), validAdminCreate(), "admin-1", models.LoginRequest{})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Fields, "email")
	assert.Empty(t, repo.created)
}

func TestUserServiceCreateAdminRole(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, validation.New(), nil)
	req := validAdminCreate()
	req.Role = "ADMIN"

	created, err := svc.Create(context.Background(), req, "admin-1", models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", created.Role)
	assert.True(t, repo.created[0].IsStaff())
}
