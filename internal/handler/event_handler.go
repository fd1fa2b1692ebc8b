package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/research-portal-api/internal/dto"
	"github.com/noah-isme/research-portal-api/internal/models"
	appErrors "github.com/noah-isme/research-portal-api/pkg/errors"
	"github.com/noah-isme/research-portal-api/pkg/response"
)

type eventService interface {
	List(ctx context.Context) ([]dto.EventResponse, error)
	Create(ctx context.Context, req dto.CreateEventRequest, actorID string, meta models.LoginRequest) (*dto.EventResponse, error)
}

// EventHandler serves portal events.
type EventHandler struct {
	service eventService
}

// NewEventHandler constructs the handler.
func NewEventHandler(svc eventService) *EventHandler {
	return &EventHandler{service: svc}
}

// List godoc
// @Summary List events
// @Tags Events
// @Produce json
// @Success 200 {object} response.Envelope{data=[]dto.EventResponse}
// @Router /events/ [get]
func (h *EventHandler) List(c *gin.Context) {
	events, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, events)
}

// Create godoc
// @Summary Create an event
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.CreateEventRequest true "Event"
// @Success 201 {object} response.Envelope{data=dto.EventResponse}
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /admin/events/ [post]
func (h *EventHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid event payload"))
		return
	}
	event, err := h.service.Create(c.Request.Context(), req, claims.UserID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}
