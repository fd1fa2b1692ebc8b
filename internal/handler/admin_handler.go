package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/research-portal-api/internal/dto"
	"github.com/noah-isme/research-portal-api/internal/middleware"
	"github.com/noah-isme/research-portal-api/internal/models"
	"github.com/noah-isme/research-portal-api/internal/service"
	appErrors "github.com/noah-isme/research-portal-api/pkg/errors"
	"github.com/noah-isme/research-portal-api/pkg/response"
)

type reviewService interface {
	List(ctx context.Context, query dto.ReviewQueueQuery) ([]dto.AdminUploadItem, error)
	Review(ctx context.Context, id string, req dto.ReviewUploadRequest, actorID string, meta models.LoginRequest) (*dto.UploadResponse, error)
	Export(ctx context.Context, query dto.ReviewQueueQuery) (*service.ReviewExport, error)
}

type accountService interface {
	List(ctx context.Context, query dto.AdminUserQuery) ([]dto.AdminUserItem, *models.Pagination, error)
	Create(ctx context.Context, req dto.AdminCreateUserRequest, actorID string, meta models.LoginRequest) (*dto.AdminCreatedUser, error)
}

// AdminHandler exposes the reviewer workflow and account management.
type AdminHandler struct {
	reviews  reviewService
	accounts accountService
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(reviews reviewService, accounts accountService) *AdminHandler {
	return &AdminHandler{reviews: reviews, accounts: accounts}
}

// ListUploads godoc
// @Summary Review queue
// @Tags Admin
// @Produce json
// @Param status query string false "pending, approved, rejected or draft"
// @Param search query string false "Matches title or author username"
// @Success 200 {object} response.Envelope{data=[]dto.AdminUploadItem}
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/uploads/ [get]
func (h *AdminHandler) ListUploads(c *gin.Context) {
	var query dto.ReviewQueueQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query"))
		return
	}
	items, err := h.reviews.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCount(c, len(items))
	response.JSON(c, http.StatusOK, items, nil, middleware.ExtractMeta(c))
}

// ReviewUpload godoc
// @Summary Set status and feedback
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Upload ID"
// @Param payload body dto.ReviewUploadRequest true "Review"
// @Success 200 {object} response.Envelope{data=dto.UploadResponse}
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/uploads/{id}/ [patch]
func (h *AdminHandler) ReviewUpload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ReviewUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid review payload"))
		return
	}
	upload, err := h.reviews.Review(c.Request.Context(), c.Param("id"), req, claims.UserID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, upload)
}

// ExportUploads godoc
// @Summary Export the review queue
// @Tags Admin
// @Produce text/csv,application/pdf
// @Param format query string false "csv (default) or pdf"
// @Param status query string false "Status filter"
// @Param search query string false "Search"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/uploads/export [get]
func (h *AdminHandler) ExportUploads(c *gin.Context) {
	var query dto.ReviewQueueQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query"))
		return
	}
	out, err := h.reviews.Export(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.FileName))
	c.Data(http.StatusOK, out.ContentType, out.Body)
}

// ListUsers godoc
// @Summary List accounts
// @Tags Admin
// @Produce json
// @Param search query string false "Username, email, full name or university"
// @Param role query string false "SUPERADMIN, ADMIN or RESEARCHER"
// @Param user_category query string false "User category (case-insensitive)"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope{data=[]dto.AdminUserItem}
// @Security BearerAuth
// @Router /admin/users/ [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var query dto.AdminUserQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query"))
		return
	}
	users, pagination, err := h.accounts.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

// CreateUser godoc
// @Summary Create an account
// @Description password and confirm_password must match; the confirmation is never stored.
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.AdminCreateUserRequest true "Account"
// @Success 201 {object} response.Envelope{data=dto.AdminCreatedUser}
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/users/ [post]
func (h *AdminHandler) CreateUser(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.AdminCreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid account payload"))
		return
	}
	user, err := h.accounts.Create(c.Request.Context(), req, claims.UserID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}
