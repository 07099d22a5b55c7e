package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/academiapress/platform-api/internal/service"
	appErrors "github.com/academiapress/platform-api/pkg/errors"
	"github.com/academiapress/platform-api/pkg/response"
)

// EventHandler wires conference listing and registration endpoints.
type EventHandler struct {
	service *service.EventService
}

// NewEventHandler creates a new handler.
func NewEventHandler(svc *service.EventService) *EventHandler {
	return &EventHandler{service: svc}
}

// List godoc
// @Summary List events
// @Description List events with lifecycle state, attendance and the caller's registration flag
// @Tags Events
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	var userID string
	if claims := claimsFromContext(c); claims != nil {
		userID = claims.UserID
	}
	events, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events, nil)
}

// Register godoc
// @Summary Register for an event
// @Tags Events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body map[string]string false "Registration type"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /events/{id}/register [post]
func (h *EventHandler) Register(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		RegistrationType string `json:"registration_type"`
	}
	_ = c.ShouldBindJSON(&payload)

	registration, err := h.service.Register(c.Request.Context(), service.RegisterEventRequest{
		EventID:          c.Param("id"),
		UserID:           claims.UserID,
		RegistrationType: payload.RegistrationType,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, registration)
}
