package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/research-portal-api/internal/models"
	appErrors "github.com/noah-isme/research-portal-api/pkg/errors"
)

type staticTokens map[string]*models.JWTClaims

func (s staticTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.ErrUnauthorized
}

type recordingAudit struct {
	mu   sync.Mutex
	logs []*models.AuditLog
}

func (r *recordingAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, log)
	return nil
}

func portalRouter(audit *recordingAudit) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	Router{
		Auth:    NewAuthHandler(&fakeAuth{}),
		Profile: NewProfileHandler(&fakeProfiles{}),
		Uploads: NewUploadHandler(&fakeSubmissions{}, &fakeQueries{}),
		Admin:   NewAdminHandler(&fakeReviews{}, &fakeAccounts{}),
		Events:  NewEventHandler(&fakeEvents{}),
		Metrics: NewMetricsHandler(nil, nil),
		Tokens: staticTokens{
			"researcher": {UserID: "r1", Role: models.RoleResearcher},
			"admin":      {UserID: "a1", Role: models.RoleAdmin},
		},
		Audit:            audit,
		UploadBodyLimit:  16 << 10,
		ProfileBodyLimit: 16 << 10,
	}.Register(engine, "/api")
	return engine
}

func bearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestRoutesEnforceAuthAndRoles(t *testing.T) {
	router := portalRouter(&recordingAudit{})

	cases := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"public list is open", httptest.NewRequest(http.MethodGet, "/api/innovations/public-list/", nil), http.StatusOK},
		{"events are open", httptest.NewRequest(http.MethodGet, "/api/events/", nil), http.StatusOK},
		{"detail without token", httptest.NewRequest(http.MethodGet, "/api/book/x/", nil), http.StatusOK},
		{"my uploads needs token", httptest.NewRequest(http.MethodGet, "/api/my-uploads/", nil), http.StatusUnauthorized},
		{"bad token", bearer(httptest.NewRequest(http.MethodGet, "/api/profile/", nil), "forged"), http.StatusUnauthorized},
		{"researcher profile", bearer(httptest.NewRequest(http.MethodGet, "/api/profile/", nil), "researcher"), http.StatusOK},
		{"researcher blocked from admin", bearer(httptest.NewRequest(http.MethodGet, "/api/admin/uploads/", nil), "researcher"), http.StatusForbidden},
		{"admin review queue", bearer(httptest.NewRequest(http.MethodGet, "/api/admin/uploads/", nil), "admin"), http.StatusOK},
		{"admin users", bearer(httptest.NewRequest(http.MethodGet, "/api/admin/users/", nil), "admin"), http.StatusOK},
		{"health", httptest.NewRequest(http.MethodGet, "/health", nil), http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := performRequest(router, tc.req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestExportRouteIsAudited(t *testing.T) {
	audit := &recordingAudit{}
	router := portalRouter(audit)

	rec := performRequest(router, bearer(httptest.NewRequest(http.MethodGet, "/api/admin/uploads/export?format=csv", nil), "admin"))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionUploadExport, audit.logs[0].Action)
}

func TestAdminReviewRouteDoesNotShadowExport(t *testing.T) {
	router := portalRouter(&recordingAudit{})

	req := bearer(jsonRequest(http.MethodPatch, "/api/admin/uploads/abc/", `{"status":"rejected"}`), "admin")
	rec := performRequest(router, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMultipartRoutesAreBodyCapped(t *testing.T) {
	router := portalRouter(&recordingAudit{})
	big := bytes.Repeat([]byte("x"), 64<<10)

	cases := []struct {
		method, target, field string
	}{
		{http.MethodPost, "/api/upload/", "file"},
		{http.MethodPut, "/api/profile/", "profile_image"},
		{http.MethodPatch, "/api/profile/", "profile_image"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.target, func(t *testing.T) {
			req := multipartRequest(t, tc.method, tc.target, nil, part{field: tc.field, filename: "big.bin", content: big})
			rec := performRequest(router, bearer(req, "researcher"))

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decode(t, rec).Error.Fields, tc.field)
		})
	}
}
