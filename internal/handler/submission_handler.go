package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/academiapress/platform-api/internal/service"
	appErrors "github.com/academiapress/platform-api/pkg/errors"
	"github.com/academiapress/platform-api/pkg/response"
	"github.com/academiapress/platform-api/pkg/storage"
)

// SubmissionHandler wires the manuscript submission workflow.
type SubmissionHandler struct {
	service *service.SubmissionService
	files   *storage.LocalStorage
	signer  *storage.SignedURLSigner
}

// NewSubmissionHandler creates a new handler.
func NewSubmissionHandler(svc *service.SubmissionService, files *storage.LocalStorage, signer *storage.SignedURLSigner) *SubmissionHandler {
	return &SubmissionHandler{service: svc, files: files, signer: signer}
}

// Create godoc
// @Summary Submit a manuscript
// @Description Create a submission from a multipart form with the manuscript file
// @Tags Submissions
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param abstract formData string true "Abstract"
// @Param field_of_study formData string true "Field of study"
// @Param submission_type formData string true "Submission type"
// @Param keywords formData string false "Comma separated keywords"
// @Param file formData file true "Manuscript file"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /submissions [post]
func (h *SubmissionHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "manuscript file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer file.Close()

	var keywords []string
	if raw := c.PostForm("keywords"); raw != "" {
		for _, kw := range strings.Split(raw, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				keywords = append(keywords, kw)
			}
		}
	}

	req := service.CreateSubmissionRequest{
		AuthorID:       claims.UserID,
		Title:          c.PostForm("title"),
		Abstract:       c.PostForm("abstract"),
		FieldOfStudy:   c.PostForm("field_of_study"),
		SubmissionType: c.PostForm("submission_type"),
		Keywords:       keywords,
		FileName:       fileHeader.Filename,
		FileSize:       fileHeader.Size,
		ContentType:    fileHeader.Header.Get("Content-Type"),
		File:           file,
	}

	submission, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, submission)
}

// Get godoc
// @Summary Fetch a submission
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) Get(c *gin.Context) {
	submission, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}

// ListMine godoc
// @Summary List the caller's submissions
// @Tags Submissions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /submissions/mine [get]
func (h *SubmissionHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	rows, err := h.service.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// UpdateStatus godoc
// @Summary Move a submission through review
// @Tags Submissions
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body map[string]string true "New status"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /submissions/{id}/status [patch]
func (h *SubmissionHandler) UpdateStatus(c *gin.Context) {
	var payload struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "status is required"))
		return
	}

	submission, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), payload.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}

// DownloadURL godoc
// @Summary Issue a signed manuscript download link
// @Tags Submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /submissions/{id}/download-url [post]
func (h *SubmissionHandler) DownloadURL(c *gin.Context) {
	submission, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if submission.FilePath == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "submission has no manuscript"))
		return
	}

	token, expiresAt, err := h.signer.Generate(submission.ID, submission.FilePath)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download"))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"url":        fmt.Sprintf("/manuscripts/download?token=%s", token),
		"expires_at": expiresAt,
	}, nil)
}

// Download godoc
// @Summary Download a manuscript
// @Description Serve the manuscript referenced by a signed token
// @Tags Submissions
// @Produce application/octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Router /manuscripts/download [get]
func (h *SubmissionHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	_, relPath, _, err := h.signer.Parse(token, false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token"))
		return
	}
	path, err := h.files.Path(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "manuscript not found"))
		return
	}
	c.FileAttachment(path, relPath)
}
