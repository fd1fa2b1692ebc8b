package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/research-portal-api/internal/dto"
	"github.com/noah-isme/research-portal-api/internal/models"
	"github.com/noah-isme/research-portal-api/internal/service"
	appErrors "github.com/noah-isme/research-portal-api/pkg/errors"
	"github.com/noah-isme/research-portal-api/pkg/response"
)

type profileService interface {
	Get(ctx context.Context, userID string) (*dto.ProfileResponse, error)
	Update(ctx context.Context, userID string, req dto.UpdateProfileRequest, image *service.AssetUpload, meta models.LoginRequest) (*dto.ProfileResponse, error)
}

// ProfileHandler serves the caller's researcher profile.
type ProfileHandler struct {
	service profileService
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(svc profileService) *ProfileHandler {
	return &ProfileHandler{service: svc}
}

// Get godoc
// @Summary Get my profile
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Envelope{data=dto.ProfileResponse}
// @Failure 401 {object} response.Envelope
// @Security BearerAuth
// @Router /profile/ [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	profile, err := h.service.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, profile)
}

// Update godoc
// @Summary Update my profile
// @Description Partial update as JSON or multipart. profile_complete is derived.
// @Tags Profile
// @Accept json,multipart/form-data
// @Produce json
// @Param payload body dto.UpdateProfileRequest false "Profile fields"
// @Param profile_image formData file false "Profile image"
// @Success 200 {object} response.Envelope{data=dto.ProfileResponse}
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /profile/ [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, multipartError(err, "profile_image", "invalid profile payload"))
		return
	}

	image, closeImage, err := formAsset(c, "profile_image")
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeImage()

	profile, err := h.service.Update(c.Request.Context(), claims.UserID, req, image, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, profile)
}
