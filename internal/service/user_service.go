package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/research-portal-api/internal/dto"
	"github.com/noah-isme/research-portal-api/internal/models"
	appErrors "github.com/noah-isme/research-portal-api/pkg/errors"
	"github.com/noah-isme/research-portal-api/pkg/validation"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, bool, error)
	Create(ctx context.Context, user *models.User) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// UserService handles admin-side account management.
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
		validate = validation.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns paginated accounts and pagination metadata.
func (s *UserService) List(ctx context.Context, query dto.AdminUserQuery) ([]dto.AdminUserItem, *models.Pagination, error) {
	if err := validation.Struct(s.validator, query); err != nil {
		return nil, nil, err
	}

	filter := models.UserFilter{
		Search:    strings.TrimSpace(query.Search),
		Category:  query.Category,
		Page:      query.Page,
		PageSize:  query.PageSize,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
	}
	if query.Role != "" {
		role := models.UserRole(query.Role)
		filter.Role = &role
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}

	page, pageSize := filter.Bounds()

	items := make([]dto.AdminUserItem, 0, len(users))
	for _, u := range users {
		items = append(items, dto.AdminUserItem{
			ID:           u.ID,
			Username:     u.Username,
			Email:        u.Email,
			Role:         string(u.Role),
			UserCategory: u.UserCategory,
			Active:       u.Active,
			DateJoined:   u.CreatedAt,
		})
	}

	return items, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Create adds an admin-managed account. The confirmation password is only
// compared and is never persisted or echoed.
func (s *UserService) Create(ctx context.Context, req dto.AdminCreateUserRequest, actorID string, meta models.LoginRequest) (*dto.AdminCreatedUser, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := validation.Struct(s.validator, req); err != nil {
		return nil, err
	}
	if req.Password != req.ConfirmPassword {
		return nil, appErrors.WithFields(appErrors.ErrPasswordMismatch, map[string][]string{
			validation.NonFieldErrors: {appErrors.ErrPasswordMismatch.Message},
		})
	}
	if err := checkUniqueAccount(ctx, s.repo, req.Username, req.Email); err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	role := models.RoleResearcher
	if req.Role != "" {
		role = models.UserRole(req.Role)
	}

	user := &models.User{
		ID:             uuid.NewString(),
		Username:       req.Username,
		Email:          req.Email,
		PasswordHash:   string(passwordHash),
		PhoneNumber:    strings.TrimSpace(req.PhoneNumber),
		UserCategory:   strings.TrimSpace(req.UserCategory),
		UniversityName: strings.TrimSpace(req.UniversityName),
		Role:           role,
		Active:         true,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	newPayload, _ := json.Marshal(map[string]interface{}{"id": user.ID, "username": user.Username, "email": user.Email, "role": user.Role})
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionUserCreate,
		Resource:   models.AuditResourceUser,
		ResourceID: &user.ID,
		NewValues:  newPayload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record user create audit log", zap.Error(err))
	}

	return &dto.AdminCreatedUser{
		ID:             user.ID,
		Username:       user.Username,
		Email:          user.Email,
		PhoneNumber:    user.PhoneNumber,
		UserCategory:   user.UserCategory,
		UniversityName: user.UniversityName,
		Role:           string(user.Role),
	}, nil
}
