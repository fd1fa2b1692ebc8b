package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/research-portal-api/internal/dto"
	"github.com/noah-isme/research-portal-api/internal/models"
	appErrors "github.com/noah-isme/research-portal-api/pkg/errors"
	"github.com/noah-isme/research-portal-api/pkg/export"
	"github.com/noah-isme/research-portal-api/pkg/validation"
)

type reviewRepository interface {
	GetByID(ctx context.Context, id string) (*models.Upload, error)
	ListForReview(ctx context.Context, filter models.ReviewFilter) ([]models.ReviewItem, error)
	UpdateReview(ctx context.Context, id string, status models.UploadStatus, feedback string) error
}

// ReviewExport is a rendered review queue ready to be served as an attachment.
type ReviewExport struct {
	FileName    string
	ContentType string
	Body        []byte
}

// ReviewService backs the admin review queue.
type ReviewService struct {
	uploads   reviewRepository
	audit     auditWriter
	cache     cacheInvalidator
	metrics   *MetricsService
	presenter *UploadPresenter
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewReviewService constructs a ReviewService.
func NewReviewService(uploads reviewRepository, audit auditWriter, cache cacheInvalidator, metrics *MetricsService, presenter *UploadPresenter, validate *validator.Validate, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	if presenter == nil {
		presenter = NewUploadPresenter("")
	}
	return &ReviewService{
		uploads:   uploads,
		audit:     audit,
		cache:     cache,
		metrics:   metrics,
		presenter: presenter,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List returns the review queue with author names and status labels.
func (s *ReviewService) List(ctx context.Context, query dto.ReviewQueueQuery) ([]dto.AdminUploadItem, error) {
	items, err := s.load(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AdminUploadItem, 0, len(items))
	for _, item := range items {
		out = append(out, s.presenter.AdminItem(item))
	}
	return out, nil
}

// Review sets status and feedback of one upload. Omitted fields keep their
// current value.
func (s *ReviewService) Review(ctx context.Context, id string, req dto.ReviewUploadRequest, actorID string, meta models.LoginRequest) (*dto.UploadResponse, error) {
	if err := validation.Struct(s.validator, req); err != nil {
		return nil, err
	}
	notFound := appErrors.Clone(appErrors.ErrNotFound, "upload not found")
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

	oldValues, _ := json.Marshal(map[string]interface{}{"status": upload.Status, "feedback": upload.Feedback})

	if req.Status != nil {
		upload.Status = models.UploadStatus(*req.Status)
	}
	if req.Feedback != nil {
		upload.Feedback = strings.TrimSpace(*req.Feedback)
	}

	if err := s.uploads.UpdateReview(ctx, upload.ID, upload.Status, upload.Feedback); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update upload")
	}
	s.metrics.RecordReview(upload.Status)

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, PublicListCachePattern); err != nil {
			s.logger.Warn("failed to invalidate public listing cache", zap.Error(err))
		}
	}

	newValues, _ := json.Marshal(map[string]interface{}{"status": upload.Status, "feedback": upload.Feedback})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionUploadReview,
		Resource:   models.AuditResourceUpload,
		ResourceID: &upload.ID,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record review audit log", zap.Error(err))
	}

	resp := s.presenter.Full(*upload)
	return &resp, nil
}

// Export renders the filtered review queue in the requested format.
func (s *ReviewService) Export(ctx context.Context, query dto.ReviewQueueQuery) (*ReviewExport, error) {
	format, err := export.ParseFormat(query.Format)
	if err != nil {
		return nil, appErrors.WithFields(appErrors.ErrValidation, map[string][]string{"format": {err.Error()}})
	}
	items, err := s.load(ctx, query)
	if err != nil {
		return nil, err
	}

	table := export.Table{
		Title: "Review queue",
		Columns: []export.Column{
			{Header: "Title", Width: 4},
			{Header: "Author", Width: 2},
			{Header: "Type", Width: 1.5},
			{Header: "Status", Width: 1.5},
			{Header: "Feedback", Width: 4},
			{Header: "Uploaded at", Width: 2},
		},
		Rows: make([][]string, 0, len(items)),
	}
	for _, item := range items {
		table.Rows = append(table.Rows, []string{
			item.Title,
			item.AuthorName,
			item.SubmissionType,
			item.Status.Label(),
			item.Feedback,
			item.UploadedAt.UTC().Format(time.RFC3339),
		})
	}

	body, err := export.NewRenderer(format).Render(table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ReviewExport{
		FileName:    export.FileName("review-queue", format, s.now()),
		ContentType: format.ContentType(),
		Body:        body,
	}, nil
}

func (s *ReviewService) load(ctx context.Context, query dto.ReviewQueueQuery) ([]models.ReviewItem, error) {
	if err := validation.Struct(s.validator, query); err != nil {
		return nil, err
	}
	filter := models.ReviewFilter{Search: strings.TrimSpace(query.Search)}
	if query.Status != "" {
		status := models.UploadStatus(query.Status)
		filter.Status = &status
	}
	items, err := s.uploads.ListForReview(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list uploads for review")
	}
	return items, nil
}
