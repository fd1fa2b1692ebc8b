package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/research-portal-api/internal/dto"
	"github.com/noah-isme/research-portal-api/internal/models"
	"github.com/noah-isme/research-portal-api/internal/service"
	appErrors "github.com/noah-isme/research-portal-api/pkg/errors"
	"github.com/noah-isme/research-portal-api/pkg/validation"
)

type fakeReviews struct {
	query    dto.ReviewQueueQuery
	reviewID string
	review   dto.ReviewUploadRequest
	actorID  string
}

func (f *fakeReviews) List(ctx context.Context, query dto.ReviewQueueQuery) ([]dto.AdminUploadItem, error) {
	f.query = query
	return []dto.AdminUploadItem{{ID: "a", Status: "pending", StatusDisplay: "Pending Review"}}, nil
}

func (f *fakeReviews) Review(ctx context.Context, id string, req dto.ReviewUploadRequest, actorID string, meta models.LoginRequest) (*dto.UploadResponse, error) {
	f.reviewID = id
	f.review = req
	f.actorID = actorID
	return &dto.UploadResponse{ID: id, Status: "approved"}, nil
}

func (f *fakeReviews) Export(ctx context.Context, query dto.ReviewQueueQuery) (*service.ReviewExport, error) {
	f.query = query
	return &service.ReviewExport{FileName: "review-queue-20240301.csv", ContentType: "text/csv", Body: []byte("Title\nGraphs\n")}, nil
}

type fakeAccounts struct {
	createErr error
	created   dto.AdminCreateUserRequest
}

func (f *fakeAccounts) List(ctx context.Context, query dto.AdminUserQuery) ([]dto.AdminUserItem, *models.Pagination, error) {
	return []dto.AdminUserItem{{ID: "u1"}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, nil
}

func (f *fakeAccounts) Create(ctx context.Context, req dto.AdminCreateUserRequest, actorID string, meta models.LoginRequest) (*dto.AdminCreatedUser, error) {
	f.created = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &dto.AdminCreatedUser{ID: "new", Username: req.Username, Role: "RESEARCHER"}, nil
}

func adminRouter(reviews *fakeReviews, accounts *fakeAccounts) http.Handler {
	h := NewAdminHandler(reviews, accounts)
	r := testRouter()
	r.GET("/admin/uploads/", h.ListUploads)
	r.GET("/admin/uploads/export", h.ExportUploads)
	r.PATCH("/admin/uploads/:id/", h.ReviewUpload)
	r.GET("/admin/users/", h.ListUsers)
	r.POST("/admin/users/", h.CreateUser)
	return r
}

func TestAdminListUploadsBindsFilters(t *testing.T) {
	reviews := &fakeReviews{}
	req := asUser(httptest.NewRequest(http.MethodGet, "/admin/uploads/?status=pending&search=graph", nil), "admin", models.RoleAdmin)

	rec := performRequest(adminRouter(reviews, &fakeAccounts{}), req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pending", reviews.query.Status)
	assert.Equal(t, "graph", reviews.query.Search)
}

func TestAdminReviewUpload(t *testing.T) {
	reviews := &fakeReviews{}
	req := asUser(jsonRequest(http.MethodPatch, "/admin/uploads/abc/", `{"status":"approved","feedback":"ok"}`), "admin", models.RoleAdmin)

	rec := performRequest(adminRouter(reviews, &fakeAccounts{}), req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", reviews.reviewID)
	assert.Equal(t, "admin", reviews.actorID)
	require.NotNil(t, reviews.review.Status)
	assert.Equal(t, "approved", *reviews.review.Status)
}

func TestAdminExportSetsAttachmentHeaders(t *testing.T) {
	reviews := &fakeReviews{}
	req := asUser(httptest.NewRequest(http.MethodGet, "/admin/uploads/export?format=csv&status=approved", nil), "admin", models.RoleAdmin)

	rec := performRequest(adminRouter(reviews, &fakeAccounts{}), req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="review-queue-20240301.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "Title\nGraphs\n", rec.Body.String())
	assert.Equal(t, "csv", reviews.query.Format)
}

func TestAdminListUsersIncludesPagination(t *testing.T) {
	req := asUser(httptest.NewRequest(http.MethodGet, "/admin/users/?page=1", nil), "admin", models.RoleAdmin)

	rec := performRequest(adminRouter(&fakeReviews{}, &fakeAccounts{}), req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec).Pagination["total_count"])
}

func TestAdminCreateUserMismatch(t *testing.T) {
	accounts := &fakeAccounts{createErr: appErrors.WithFields(appErrors.ErrPasswordMismatch, map[string][]string{
		validation.NonFieldErrors: {"Passwords do not match"},
	})}
	body := `{"username":"bob","email":"b@x.io","password":"secret123","confirm_password":"other123"}`
	req := asUser(jsonRequest(http.MethodPost, "/admin/users/", body), "admin", models.RoleAdmin)

	rec := performRequest(adminRouter(&fakeReviews{}, accounts), req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "PASSWORD_MISMATCH", env.Error.Code)
	assert.Equal(t, []string{"Passwords do not match"}, env.Error.Fields[validation.NonFieldErrors])
	assert.Equal(t, "bob", accounts.created.Username)
}

func TestAdminCreateUserCreated(t *testing.T) {
	body := `{"username":"bob","email":"b@x.io","password":"secret123","confirm_password":"secret123"}`
	req := asUser(jsonRequest(http.MethodPost, "/admin/users/", body), "admin", models.RoleAdmin)

	rec := performRequest(adminRouter(&fakeReviews{}, &fakeAccounts{}), req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}
