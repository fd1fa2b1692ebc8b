package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/research-portal-api/internal/dto"
	"github.com/noah-isme/research-portal-api/internal/models"
	appErrors "github.com/noah-isme/research-portal-api/pkg/errors"
	"github.com/noah-isme/research-portal-api/pkg/validation"
)

type eventRepository interface {
	List(ctx context.Context) ([]models.Event, error)
	Create(ctx context.Context, event *models.Event) error
}

// EventService manages portal events.
type EventService struct {
	repo      eventRepository
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs an EventService.
func NewEventService(repo eventRepository, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	return &EventService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns all events, most recent date first.
func (s *EventService) List(ctx context.Context) ([]dto.EventResponse, error) {
	events, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	out := make([]dto.EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse(e))
	}
	return out, nil
}

// Create stores a new event.
func (s *EventService) Create(ctx context.Context, req dto.CreateEventRequest, actorID string, meta models.LoginRequest) (*dto.EventResponse, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Date = strings.TrimSpace(req.Date)
	if err := validation.Struct(s.validator, req); err != nil {
		return nil, err
	}
	date, err := time.Parse(dto.EventDateLayout, req.Date)
	if err != nil {
		return nil, appErrors.WithFields(appErrors.ErrValidation, map[string][]string{
			"date": {"Date has wrong format. Use one of these formats instead: YYYY-MM-DD."},
		})
	}

	event := &models.Event{
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		Date:        date,
		Location:    strings.TrimSpace(req.Location),
		Link:        strings.TrimSpace(req.Link),
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}

	payload, _ := json.Marshal(map[string]interface{}{"title": event.Title, "date": req.Date})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionEventCreate,
		Resource:   models.AuditResourceEvent,
		ResourceID: &event.ID,
		NewValues:  payload,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record event audit log", zap.Error(err))
	}

	resp := eventResponse(*event)
	return &resp, nil
}

func eventResponse(e models.Event) dto.EventResponse {
	return dto.EventResponse{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Date:        e.Date.Format(dto.EventDateLayout),
		Location:    e.Location,
		Link:        e.Link,
	}
}
