package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/research-portal-api/internal/dto"
	"github.com/noah-isme/research-portal-api/internal/middleware"
	"github.com/noah-isme/research-portal-api/internal/models"
	"github.com/noah-isme/research-portal-api/internal/service"
	appErrors "github.com/noah-isme/research-portal-api/pkg/errors"
	"github.com/noah-isme/research-portal-api/pkg/response"
)

type submissionService interface {
	Submit(ctx context.Context, ownerID string, req dto.CreateUploadRequest, file, cover *service.AssetUpload, meta models.LoginRequest) (*dto.UploadResponse, error)
}

type uploadQueryService interface {
	ListMine(ctx context.Context, ownerID string) ([]dto.UploadResponse, error)
	ListPublic(ctx context.Context, field string) ([]dto.UploadResponse, bool, error)
	Detail(ctx context.Context, id, requesterID, baseURL string) (*dto.PublicUploadDetail, error)
}

// UploadHandler exposes submission and listing endpoints.
type UploadHandler struct {
	submissions submissionService
	queries     uploadQueryService
}

// NewUploadHandler constructs the handler.
func NewUploadHandler(submissions submissionService, queries uploadQueryService) *UploadHandler {
	return &UploadHandler{submissions: submissions, queries: queries}
}

// Submit godoc
// @Summary Submit an upload
// @Description Multipart submission. Requires a complete profile; status is always pending.
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param submission_type formData string true "thesis, masters, bachelor or other"
// @Param university formData string false "Required for thesis, masters and bachelor"
// @Param field_of_study formData string false "Field of study"
// @Param title formData string true "Title"
// @Param authors formData string true "Authors"
// @Param year formData int true "Publication year"
// @Param description formData string true "Description"
// @Param file formData file true "Document"
// @Param cover_image formData file false "Cover image"
// @Success 201 {object} response.Envelope{data=dto.UploadResponse}
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /upload/ [post]
func (h *UploadHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, multipartError(err, "file", "invalid upload payload"))
		return
	}

	file, closeFile, err := formAsset(c, "file")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeFile()

	cover, closeCover, err := formAsset(c, "cover_image")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeCover()

	upload, err := h.submissions.Submit(c.Request.Context(), claims.UserID, req, file, cover, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, upload)
}

// ListMine godoc
// @Summary List my uploads
// @Tags Uploads
// @Produce json
// @Success 200 {object} response.Envelope{data=[]dto.UploadResponse}
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /my-uploads/ [get]
func (h *UploadHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	uploads, err := h.queries.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCount(c, len(uploads))
	response.JSON(c, http.StatusOK, uploads, nil, middleware.ExtractMeta(c))
}

// PublicList godoc
// @Summary Public listing
// @Description Newest first, optionally filtered by field of study (case-insensitive).
// @Tags Uploads
// @Produce json
// @Param field query string false "Field of study"
// @Success 200 {object} response.Envelope{data=[]dto.UploadResponse}
// @Router /innovations/public-list/ [get]
func (h *UploadHandler) PublicList(c *gin.Context) {
	var query dto.PublicListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query"))
		return
	}
	uploads, cacheHit, err := h.queries.ListPublic(c.Request.Context(), query.Field)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	middleware.SetCount(c, len(uploads))
	response.JSON(c, http.StatusOK, uploads, nil, middleware.ExtractMeta(c))
}

// Detail godoc
// @Summary Upload detail
// @Description Visible only to the owner once approved; every other case is 404.
// @Tags Uploads
// @Produce json
// @Param id path string true "Upload ID"
// @Success 200 {object} response.Envelope{data=dto.PublicUploadDetail}
// @Failure 404 {object} response.Envelope
// @Router /book/{id}/ [get]
func (h *UploadHandler) Detail(c *gin.Context) {
	requesterID := ""
	if claims := claimsFromContext(c); claims != nil {
		requesterID = claims.UserID
	}
	detail, err := h.queries.Detail(c.Request.Context(), c.Param("id"), requesterID, baseURL(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, detail)
}
