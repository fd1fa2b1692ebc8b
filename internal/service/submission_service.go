package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/research-portal-api/internal/dto"
	"github.com/noah-isme/research-portal-api/internal/models"
	appErrors "github.com/noah-isme/research-portal-api/pkg/errors"
	"github.com/noah-isme/research-portal-api/pkg/storage"
	"github.com/noah-isme/research-portal-api/pkg/validation"
)

// Blob key prefixes for stored assets.
const (
	FilePrefix    = "files"
	CoverPrefix   = "covers"
	ProfilePrefix = "profiles"
)

const requiredMessage = "Required."

type submissionProfileReader interface {
	FindByUserID(ctx context.Context, userID string) (*models.Profile, error)
}

type submissionUploadWriter interface {
	Create(ctx context.Context, upload *models.Upload) error
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// AssetUpload is a binary part of a multipart request.
type AssetUpload struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// AssetRules bounds accepted uploads.
type AssetRules struct {
	MaxFileSize       int64
	MaxCoverSize      int64
	AllowedFileTypes  []string
	AllowedCoverTypes []string
}

// conditionalFields resolves the fields the required-field table may name.
var conditionalFields = map[string]func(dto.CreateUploadRequest) string{
	"university":     func(r dto.CreateUploadRequest) string { return r.University },
	"field_of_study": func(r dto.CreateUploadRequest) string { return r.FieldOfStudy },
}

// SubmissionService implements the upload submission workflow.
type SubmissionService struct {
	profiles  submissionProfileReader
	uploads   submissionUploadWriter
	audit     auditWriter
	blobs     storage.BlobStore
	cache     cacheInvalidator
	metrics   *MetricsService
	presenter *UploadPresenter
	rules     AssetRules
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSubmissionService wires the submission workflow.
func NewSubmissionService(
	profiles submissionProfileReader,
	uploads submissionUploadWriter,
	audit auditWriter,
	blobs storage.BlobStore,
	cache cacheInvalidator,
	metrics *MetricsService,
	presenter *UploadPresenter,
	rules AssetRules,
	validate *validator.Validate,
	logger *zap.Logger,
) *SubmissionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	if presenter == nil {
		presenter = NewUploadPresenter("")
	}
	return &SubmissionService{
		profiles:  profiles,
		uploads:   uploads,
		audit:     audit,
		blobs:     blobs,
		cache:     cache,
		metrics:   metrics,
		presenter: presenter,
		rules:     rules,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Submit validates and stores a new upload on behalf of ownerID. Checks run
// in order and the first failing stage wins: profile presence, profile
// completeness, per-type required fields, then entity validation.
func (s *SubmissionService) Submit(ctx context.Context, ownerID string, req dto.CreateUploadRequest, file, cover *AssetUpload, meta models.LoginRequest) (*dto.UploadResponse, error) {
	submissionType := strings.TrimSpace(req.SubmissionType)

	resp, err := s.submit(ctx, ownerID, req, file, cover, meta)
	if err != nil {
		s.metrics.RecordSubmission(appErrors.FromError(err).Code, submissionType)
		return nil, err
	}
	s.metrics.RecordSubmission("created", submissionType)
	return resp, nil
}

func (s *SubmissionService) submit(ctx context.Context, ownerID string, req dto.CreateUploadRequest, file, cover *AssetUpload, meta models.LoginRequest) (*dto.UploadResponse, error) {
	profile, err := s.profiles.FindByUserID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrProfileRequired
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	if !profile.ProfileComplete {
		return nil, appErrors.ErrProfileRequired
	}

	req = normaliseUploadRequest(req)

	if err := checkConditionalFields(req); err != nil {
		return nil, err
	}

	year, fileType, coverType, err := s.validateEntity(req, file, cover)
	if err != nil {
		return nil, err
	}

	upload := &models.Upload{
		ID:             uuid.NewString(),
		UserID:         ownerID,
		SubmissionType: req.SubmissionType,
		FieldOfStudy:   req.FieldOfStudy,
		Title:          req.Title,
		Authors:        req.Authors,
		Year:           year,
		Description:    req.Description,
		Status:         models.UploadStatusPending,
		UploadedAt:     s.now(),
	}
	if req.University != "" {
		university := req.University
		upload.University = &university
	}

	var stored []string
	cleanup := func() {
		for _, key := range stored {
			if err := s.blobs.Delete(context.WithoutCancel(ctx), key); err != nil {
				s.logger.Warn("failed to remove orphaned asset", zap.String("key", key), zap.Error(err))
			}
		}
	}

	upload.File, err = s.storeAsset(ctx, FilePrefix, file, fileType)
	if err != nil {
		return nil, err
	}
	stored = append(stored, upload.File)

	if cover != nil {
		upload.CoverImage, err = s.storeAsset(ctx, CoverPrefix, cover, coverType)
		if err != nil {
			cleanup()
			return nil, err
		}
		stored = append(stored, upload.CoverImage)
	}

	if err := s.uploads.Create(ctx, upload); err != nil {
		cleanup()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create upload")
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, PublicListCachePattern); err != nil {
			s.logger.Warn("failed to invalidate public listing cache", zap.Error(err))
		}
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"title":           upload.Title,
		"submission_type": upload.SubmissionType,
		"status":          upload.Status,
	})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &ownerID,
		Action:     models.AuditActionUploadCreate,
		Resource:   models.AuditResourceUpload,
		ResourceID: &upload.ID,
		NewValues:  payload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record upload audit log", zap.Error(err))
	}

	resp := s.presenter.Full(*upload)
	return &resp, nil
}

func normaliseUploadRequest(req dto.CreateUploadRequest) dto.CreateUploadRequest {
	req.SubmissionType = strings.TrimSpace(req.SubmissionType)
	req.University = strings.TrimSpace(req.University)
	req.FieldOfStudy = strings.TrimSpace(req.FieldOfStudy)
	req.Title = strings.TrimSpace(req.Title)
	req.Authors = strings.TrimSpace(req.Authors)
	req.Description = strings.TrimSpace(req.Description)
	req.Year = strings.TrimSpace(req.Year)
	return req
}

// checkConditionalFields applies the per-submission-type required-field table.
func checkConditionalFields(req dto.CreateUploadRequest) error {
	required, ok := models.SubmissionRequiredFields[req.SubmissionType]
	if !ok {
		return nil
	}
	fields := map[string][]string{}
	for _, name := range required {
		value, known := conditionalFields[name]
		if !known || strings.TrimSpace(value(req)) == "" {
			fields[name] = []string{requiredMessage}
		}
	}
	if len(fields) > 0 {
		return appErrors.WithFields(appErrors.ErrValidation, fields)
	}
	return nil
}

// validateEntity collects every field-level failure of the payload and its
// assets into one error. It returns the parsed year and the sniffed MIME
// types on success.
func (s *SubmissionService) validateEntity(req dto.CreateUploadRequest, file, cover *AssetUpload) (int, *mimetype.MIME, *mimetype.MIME, error) {
	fields := map[string][]string{}
	if err := s.validator.Struct(req); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return 0, nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "invalid validation target")
		}
		for name, msgs := range validation.Fields(err) {
			fields[name] = append(fields[name], msgs...)
		}
	}

	year, msg := parseYear(req.Year)
	if msg != "" {
		fields["year"] = append(fields["year"], msg)
	}

	var fileType, coverType *mimetype.MIME
	if file == nil {
		fields["file"] = append(fields["file"], "No file was submitted.")
	} else {
		mt, msg, err := inspectAsset(file, s.rules.MaxFileSize, s.rules.AllowedFileTypes)
		if err != nil {
			return 0, nil, nil, err
		}
		if msg != "" {
			fields["file"] = append(fields["file"], msg)
		}
		fileType = mt
	}

	if cover != nil {
		mt, msg, err := inspectAsset(cover, s.rules.MaxCoverSize, s.rules.AllowedCoverTypes)
		if err != nil {
			return 0, nil, nil, err
		}
		if msg == "" && !strings.HasPrefix(mt.String(), "image/") {
			msg = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
		}
		if msg != "" {
			fields["cover_image"] = append(fields["cover_image"], msg)
		}
		coverType = mt
	}

	if len(fields) > 0 {
		return 0, nil, nil, appErrors.WithFields(appErrors.ErrValidation, fields)
	}
	return year, fileType, coverType, nil
}

// parseYear reads the publication year. An empty value is left to the
// required rule.
func parseYear(raw string) (int, string) {
	if raw == "" {
		return 0, ""
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, "A valid integer is required."
	}
	if year <= 0 {
		return 0, "Ensure this value is greater than or equal to 1."
	}
	return year, ""
}

// inspectAsset sniffs the content type and checks size and type limits. A
// non-empty message is a user-facing validation failure.
func inspectAsset(asset *AssetUpload, maxSize int64, allowed []string) (*mimetype.MIME, string, error) {
	if asset.Content == nil || asset.Size == 0 {
		return nil, "The submitted file is empty.", nil
	}
	if maxSize > 0 && asset.Size > maxSize {
		return nil, fmt.Sprintf("Ensure this file is no larger than %d bytes.", maxSize), nil
	}

	mt, err := mimetype.DetectReader(asset.Content)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to inspect file")
	}
	if _, err := asset.Content.Seek(0, io.SeekStart); err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset upload stream")
	}

	if !mimeAllowed(mt, allowed) {
		return mt, fmt.Sprintf("Unsupported file type %q.", mt.String()), nil
	}
	return mt, "", nil
}

// mimeAllowed accepts mt or any of its parents (docx is a zip, for example)
// when listed. An empty allow list accepts anything.
func mimeAllowed(mt *mimetype.MIME, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for m := mt; m != nil; m = m.Parent() {
		for _, a := range allowed {
			if m.Is(a) {
				return true
			}
		}
	}
	return false
}

func (s *SubmissionService) storeAsset(ctx context.Context, prefix string, asset *AssetUpload, mt *mimetype.MIME) (string, error) {
	return saveAsset(ctx, s.blobs, s.metrics, prefix, asset, mt)
}

// saveAsset writes asset under prefix with a generated name and returns its key.
func saveAsset(ctx context.Context, blobs storage.BlobStore, metrics *MetricsService, prefix string, asset *AssetUpload, mt *mimetype.MIME) (string, error) {
	key := path.Join(prefix, uuid.NewString()+assetExtension(asset.Filename, mt))
	contentType := ""
	if mt != nil {
		contentType = mt.String()
	}
	if err := blobs.Save(ctx, key, asset.Content, contentType); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store "+prefix+" asset")
	}
	metrics.RecordAssetBytes(prefix, asset.Size)
	return key, nil
}

func assetExtension(filename string, mt *mimetype.MIME) string {
	if mt != nil && mt.Extension() != "" {
		return mt.Extension()
	}
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\ `) {
		return ""
	}
	return ext
}
