package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/academiapress/platform-api/internal/models"
	"github.com/academiapress/platform-api/internal/service"
	appErrors "github.com/academiapress/platform-api/pkg/errors"
	"github.com/academiapress/platform-api/pkg/response"
)

// SearchHandler exposes the advanced submission search.
type SearchHandler struct {
	service *service.SearchService
}

// NewSearchHandler creates a new handler.
func NewSearchHandler(svc *service.SearchService) *SearchHandler {
	return &SearchHandler{service: svc}
}

// Search godoc
// @Summary Search submissions
// @Description Run the advanced search with facet, date, author and keyword filters
// @Tags Search
// @Accept json
// @Produce json
// @Param payload body models.SearchFilter true "Search criteria"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /search [post]
func (h *SearchHandler) Search(c *gin.Context) {
	var filter models.SearchFilter
	if err := c.ShouldBindJSON(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid search payload"))
		return
	}

	results, generation, err := h.service.Search(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, results, nil, map[string]interface{}{
		"generation":     generation,
		"count":          len(results),
		"active_filters": filter.HasActiveFilters(),
	})
}

// Options godoc
// @Summary Facet option catalog
// @Description List the selectable statuses, fields of study, submission types and keywords
// @Tags Search
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /search/options [get]
func (h *SearchHandler) Options(c *gin.Context) {
	options, err := h.service.Options(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, options, nil)
}

// Export godoc
// @Summary Export search results
// @Description Run the search and return the results as a CSV download
// @Tags Search
// @Accept json
// @Produce text/csv
// @Param payload body models.SearchFilter true "Search criteria"
// @Success 200 {string} string "CSV document"
// @Failure 400 {object} response.Envelope
// @Router /search/export [post]
func (h *SearchHandler) Export(c *gin.Context) {
	var filter models.SearchFilter
	if err := c.ShouldBindJSON(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid search payload"))
		return
	}

	results, _, err := h.service.Search(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	data, err := h.service.ExportCSV(results)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("search-results-%s.csv", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", data)
}
