package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/research-portal-api/internal/dto"
	"github.com/noah-isme/research-portal-api/internal/models"
	appErrors "github.com/noah-isme/research-portal-api/pkg/errors"
)

type mockReviewRepo struct {
	uploads    map[string]*models.Upload
	items      []models.ReviewItem
	lastFilter models.ReviewFilter
	updateErr  error
}

func (m *mockReviewRepo) GetByID(ctx context.Context, id string) (*models.Upload, error) {
	u, ok := m.uploads[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (m *mockReviewRepo) ListForReview(ctx context.Context, filter models.ReviewFilter) ([]models.ReviewItem, error) {
	m.lastFilter = filter
	return m.items, nil
}

func (m *mockReviewRepo) UpdateReview(ctx context.Context, id string, status models.UploadStatus, feedback string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	u, ok := m.uploads[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.Status = status
	u.Feedback = feedback
	return nil
}

type reviewFixture struct {
	repo  *mockReviewRepo
	audit *mockAuditRepo
	cache *recordingInvalidator
	svc   *ReviewService
	id    string
}

func newReviewFixture() *reviewFixture {
	id := uuid.NewString()
	uploaded := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	f := &reviewFixture{
		repo: &mockReviewRepo{
			uploads: map[string]*models.Upload{
				id: {ID: id, UserID: "alice", Title: "Graph theory", Status: models.UploadStatusPending, Feedback: "initial", File: "files/x.pdf", UploadedAt: uploaded},
			},
			items: []models.ReviewItem{
				{Upload: models.Upload{ID: id, Title: "Graph theory", SubmissionType: "thesis", Status: models.UploadStatusPending, UploadedAt: uploaded}, AuthorName: "alice"},
			},
		},
		audit: &mockAuditRepo{},
		cache: &recordingInvalidator{},
		id:    id,
	}
	f.svc = NewReviewService(f.repo, f.audit, f.cache, nil, NewUploadPresenter("/media/"), nil, nil)
	f.svc.now = func() time.Time { return uploaded }
	return f
}

func TestReviewListIncludesAuthorAndLabel(t *testing.T) {
	f := newReviewFixture()

	items, err := f.svc.List(context.Background(), dto.ReviewQueueQuery{Status: "pending", Search: " graph "})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "alice", items[0].AuthorName)
	assert.Equal(t, "Pending Review", items[0].StatusDisplay)
	require.NotNil(t, f.repo.lastFilter.Status)
	assert.Equal(t, models.UploadStatusPending, *f.repo.lastFilter.Status)
	assert.Equal(t, "graph", f.repo.lastFilter.Search)
}

func TestReviewListRejectsUnknownStatus(t *testing.T) {
	f := newReviewFixture()

	_, err := f.svc.List(context.Background(), dto.ReviewQueueQuery{Status: "archived"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReviewSetsStatusAndFeedback(t *testing.T) {
	f := newReviewFixture()
	status, feedback := "approved", "  looks good "

	resp, err := f.svc.Review(context.Background(), f.id, dto.ReviewUploadRequest{Status: &status, Feedback: &feedback}, "admin-1", models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, "approved", resp.Status)
	assert.Equal(t, "looks good", resp.Feedback)
	assert.Equal(t, models.UploadStatusApproved, f.repo.uploads[f.id].Status)
	assert.Equal(t, []string{PublicListCachePattern}, f.cache.patterns)
	require.Len(t, f.audit.logs, 1)
	assert.Equal(t, models.AuditActionUploadReview, f.audit.logs[0].Action)
	assert.JSONEq(t, `{"status":"pending","feedback":"initial"}`, string(f.audit.logs[0].OldValues))
}

func TestReviewPartialKeepsFeedback(t *testing.T) {
	f := newReviewFixture()
	status := "rejected"

	resp, err := f.svc.Review(context.Background(), f.id, dto.ReviewUploadRequest{Status: &status}, "admin-1", models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, "initial", resp.Feedback)
	assert.Equal(t, "rejected", resp.Status)
}

func TestReviewRejectsDraft(t *testing.T) {
	f := newReviewFixture()
	status := "draft"

	_, err := f.svc.Review(context.Background(), f.id, dto.ReviewUploadRequest{Status: &status}, "admin-1", models.LoginRequest{})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Fields, "status")
	assert.Equal(t, models.UploadStatusPending, f.repo.uploads[f.id].Status)
}

func TestReviewNotFound(t *testing.T) {
	f := newReviewFixture()

	for _, id := range []string{"5", uuid.NewString()} {
		_, err := f.svc.Review(context.Background(), id, dto.ReviewUploadRequest{}, "admin-1", models.LoginRequest{})
		assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	}
	assert.Empty(t, f.audit.logs)
}

func TestReviewUpdateFailure(t *testing.T) {
	f := newReviewFixture()
	f.repo.updateErr = errBoom

	_, err := f.svc.Review(context.Background(), f.id, dto.ReviewUploadRequest{}, "admin-1", models.LoginRequest{})
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.cache.patterns)
}

func TestReviewExportCSV(t *testing.T) {
	f := newReviewFixture()

	out, err := f.svc.Export(context.Background(), dto.ReviewQueueQuery{Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, "review-queue-20240501.csv", out.FileName)
	assert.Equal(t, "text/csv; charset=utf-8", out.ContentType)

	records, err := csv.NewReader(bytes.NewReader(out.Body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Graph theory", "alice", "thesis", "Pending Review", "", "2024-05-01T08:00:00Z"}, records[1])
}

func TestReviewExportPDF(t *testing.T) {
	f := newReviewFixture()

	out, err := f.svc.Export(context.Background(), dto.ReviewQueueQuery{Format: "pdf"})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", out.ContentType)
	assert.True(t, bytes.HasPrefix(out.Body, []byte("%PDF")))
}
