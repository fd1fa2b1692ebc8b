package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/research-portal-api/internal/dto"
	"github.com/noah-isme/research-portal-api/internal/models"
	appErrors "github.com/noah-isme/research-portal-api/pkg/errors"
	"github.com/noah-isme/research-portal-api/pkg/storage"
	"github.com/noah-isme/research-portal-api/pkg/validation"
)

type profileStore interface {
	FindByUserID(ctx context.Context, userID string) (*models.Profile, error)
	Upsert(ctx context.Context, profile *models.Profile) error
}

type profileUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

const invalidImageMessage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."

// ProfileService manages the researcher profile owned by each account.
type ProfileService struct {
	profiles     profileStore
	users        profileUserReader
	audit        auditWriter
	blobs        storage.BlobStore
	metrics      *MetricsService
	presenter    *UploadPresenter
	maxImageSize int64
	imageTypes   []string
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewProfileService constructs a ProfileService. Profile images share the
// cover image limits.
func NewProfileService(profiles profileStore, users profileUserReader, audit auditWriter, blobs storage.BlobStore, metrics *MetricsService, presenter *UploadPresenter, rules AssetRules, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	if presenter == nil {
		presenter = NewUploadPresenter("")
	}
	return &ProfileService{
		profiles:     profiles,
		users:        users,
		audit:        audit,
		blobs:        blobs,
		metrics:      metrics,
		presenter:    presenter,
		maxImageSize: rules.MaxCoverSize,
		imageTypes:   rules.AllowedCoverTypes,
		validator:    validate,
		logger:       logger,
	}
}

// Get returns the caller's profile. An account without a stored profile gets
// an empty, incomplete one.
func (s *ProfileService) Get(ctx context.Context, userID string) (*dto.ProfileResponse, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := s.presenter.Profile(*profile, *user)
	return &resp, nil
}

// Update applies a partial update and optionally replaces the profile image.
func (s *ProfileService) Update(ctx context.Context, userID string, req dto.UpdateProfileRequest, image *AssetUpload, meta models.LoginRequest) (*dto.ProfileResponse, error) {
	fields := map[string][]string{}
	if err := s.validator.Struct(req); err != nil {
		for name, msgs := range validation.Fields(err) {
			fields[name] = append(fields[name], msgs...)
		}
	}

	var imageKey string
	if image != nil {
		mt, msg, err := inspectAsset(image, s.maxImageSize, s.imageTypes)
		if err != nil {
			return nil, err
		}
		if msg == "" && !strings.HasPrefix(mt.String(), "image/") {
			msg = invalidImageMessage
		}
		if msg != "" {
			fields["profile_image"] = append(fields["profile_image"], msg)
		}
		if len(fields) == 0 {
			key, err := saveAsset(ctx, s.blobs, s.metrics, ProfilePrefix, image, mt)
			if err != nil {
				return nil, err
			}
			imageKey = key
		}
	}
	if len(fields) > 0 {
		return nil, appErrors.WithFields(appErrors.ErrValidation, fields)
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		s.discard(ctx, imageKey)
		return nil, err
	}
	profile, err := s.loadProfile(ctx, userID)
	if err != nil {
		s.discard(ctx, imageKey)
		return nil, err
	}

	before := *profile
	applyProfileUpdate(profile, req)
	if imageKey != "" {
		profile.ProfileImage = imageKey
	}

	if err := s.profiles.Upsert(ctx, profile); err != nil {
		s.discard(ctx, imageKey)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save profile")
	}
	if imageKey != "" && before.ProfileImage != "" {
		s.discard(ctx, before.ProfileImage)
	}

	oldValues, _ := json.Marshal(before)
	newValues, _ := json.Marshal(profile)
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionProfileUpdate,
		Resource:   models.AuditResourceProfile,
		ResourceID: &profile.ID,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record profile audit log", zap.Error(err))
	}

	resp := s.presenter.Profile(*profile, *user)
	return &resp, nil
}

func (s *ProfileService) loadUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUnauthorized
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

func (s *ProfileService) loadProfile(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.Profile{UserID: userID}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return profile, nil
}

func (s *ProfileService) discard(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.blobs.Delete(context.WithoutCancel(ctx), key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("failed to remove profile image", zap.String("key", key), zap.Error(err))
	}
}

func applyProfileUpdate(p *models.Profile, req dto.UpdateProfileRequest) {
	if req.NationalID != nil {
		p.NationalID = strings.TrimSpace(*req.NationalID)
	}
	if req.Age != nil {
		p.Age = *req.Age
	}
	if req.Phone != nil {
		p.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Degree != nil {
		p.Degree = strings.TrimSpace(*req.Degree)
	}
	if req.University != nil {
		p.University = strings.TrimSpace(*req.University)
	}
}
