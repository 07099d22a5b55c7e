package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/academiapress/platform-api/internal/service"
	appErrors "github.com/academiapress/platform-api/pkg/errors"
	"github.com/academiapress/platform-api/pkg/response"
)

// PlagiarismHandler wires similarity check endpoints.
type PlagiarismHandler struct {
	service *service.PlagiarismService
}

// NewPlagiarismHandler creates a new handler.
func NewPlagiarismHandler(svc *service.PlagiarismService) *PlagiarismHandler {
	return &PlagiarismHandler{service: svc}
}

// Request godoc
// @Summary Request a plagiarism check
// @Description Queue a background similarity scan for a submission
// @Tags Plagiarism
// @Produce json
// @Param id path string true "Submission ID"
// @Success 202 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /submissions/{id}/plagiarism [post]
func (h *PlagiarismHandler) Request(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	check, err := h.service.RequestCheck(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, check, nil)
}

// Get godoc
// @Summary Fetch a plagiarism check
// @Tags Plagiarism
// @Produce json
// @Param id path string true "Check ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /plagiarism/{id} [get]
func (h *PlagiarismHandler) Get(c *gin.Context) {
	check, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, check, nil)
}
