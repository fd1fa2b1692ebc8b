package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/research-portal-api/internal/dto"
	"github.com/noah-isme/research-portal-api/internal/models"
	appErrors "github.com/noah-isme/research-portal-api/pkg/errors"
)

type uploadReader interface {
	GetByID(ctx context.Context, id string) (*models.Upload, error)
	ListByOwner(ctx context.Context, userID string) ([]models.Upload, error)
	ListPublic(ctx context.Context, filter models.PublicUploadFilter) ([]models.Upload, error)
}

// UploadQueryService serves the owner listing, public listing and detail reads.
type UploadQueryService struct {
	uploads      uploadReader
	cache        *CacheService
	presenter    *UploadPresenter
	approvedOnly bool
	logger       *zap.Logger
}

// NewUploadQueryService constructs the query service. approvedOnly restricts
// the public listing to approved uploads.
func NewUploadQueryService(uploads uploadReader, cache *CacheService, presenter *UploadPresenter, approvedOnly bool, logger *zap.Logger) *UploadQueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if presenter == nil {
		presenter = NewUploadPresenter("")
	}
	return &UploadQueryService{uploads: uploads, cache: cache, presenter: presenter, approvedOnly: approvedOnly, logger: logger}
}

// ListMine returns every upload owned by ownerID, newest first.
func (s *UploadQueryService) ListMine(ctx context.Context, ownerID string) ([]dto.UploadResponse, error) {
	uploads, err := s.uploads.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list uploads")
	}
	return s.presenter.FullList(uploads), nil
}

// ListPublic returns the public listing optionally filtered by field of study.
// The boolean reports whether the result came from cache.
func (s *UploadQueryService) ListPublic(ctx context.Context, field string) ([]dto.UploadResponse, bool, error) {
	key := PublicListCacheKey(field, s.approvedOnly)

	var cached []dto.UploadResponse
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		if cached == nil {
			cached = []dto.UploadResponse{}
		}
		return cached, true, nil
	}

	uploads, err := s.uploads.ListPublic(ctx, models.PublicUploadFilter{Field: field, ApprovedOnly: s.approvedOnly})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list publications")
	}
	out := s.presenter.FullList(uploads)

	if err := s.cache.Set(ctx, key, out, 0); err != nil {
		s.logger.Debug("public listing not cached", zap.Error(err))
	}
	return out, false, nil
}

// Detail returns the public detail of id when requesterID owns it and it is
// approved. Missing, foreign and unapproved records all yield the same NotFound.
func (s *UploadQueryService) Detail(ctx context.Context, id, requesterID, baseURL string) (*dto.PublicUploadDetail, error) {
	notFound := appErrors.Clone(appErrors.ErrNotFound, "upload not found")
	if requesterID == "" {
		return nil, notFound
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, notFound
	}

	upload, err := s.uploads.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load upload")
	}
	if upload.UserID != requesterID || upload.Status != models.UploadStatusApproved {
		return nil, notFound
	}

	detail := s.presenter.PublicDetail(*upload, baseURL)
	return &detail, nil
}
