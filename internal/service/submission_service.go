package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/academiapress/platform-api/internal/models"
	"github.com/academiapress/platform-api/pkg/config"
	appErrors "github.com/academiapress/platform-api/pkg/errors"
)

type submissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	ListByAuthor(ctx context.Context, authorID string) ([]models.Submission, error)
	UpdateStatus(ctx context.Context, id, status string, at time.Time) error
}

type manuscriptStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
}

// CreateSubmissionRequest describes a new manuscript submission.
type CreateSubmissionRequest struct {
	AuthorID       string    `json:"author_id" validate:"required"`
	Title          string    `json:"title" validate:"required"`
	Abstract       string    `json:"abstract" validate:"required"`
	FieldOfStudy   string    `json:"field_of_study" validate:"required"`
	SubmissionType string    `json:"submission_type" validate:"required"`
	Keywords       []string  `json:"keywords"`
	FileName       string    `json:"-"`
	FileSize       int64     `json:"-"`
	ContentType    string    `json:"-"`
	File           io.Reader `json:"-"`
}

// SubmissionService handles the manuscript submission workflow.
type SubmissionService struct {
	repo      submissionRepository
	storage   manuscriptStorage
	validator *validator.Validate
	cfg       config.ManuscriptConfig
	logger    *zap.Logger
	onChange  func(context.Context)
}

// NewSubmissionService constructs the service. onChange, when set, runs
// after every successful write so dependent caches can be invalidated.
func NewSubmissionService(repo submissionRepository, storage manuscriptStorage, validate *validator.Validate, cfg config.ManuscriptConfig, logger *zap.Logger, onChange func(context.Context)) *SubmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{repo: repo, storage: storage, validator: validate, cfg: cfg, logger: logger, onChange: onChange}
}

var allowedStatusTransitions = map[string][]string{
	models.StatusUnderReview:      {models.StatusAccepted, models.StatusRejected, models.StatusRevisionRequired},
	models.StatusRevisionRequired: {models.StatusUnderReview, models.StatusRejected},
	models.StatusAccepted:         {models.StatusPublished, models.StatusRejected},
}

// Create validates and stores a new submission along with its manuscript
// file. New submissions always enter review.
func (s *SubmissionService) Create(ctx context.Context, req CreateSubmissionRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}
	if req.File == nil {
		return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "manuscript file is required")
	}
	if s.cfg.MaxFileSizeBytes > 0 && req.FileSize > s.cfg.MaxFileSizeBytes {
		return nil, appErrors.ErrFileTooLarge
	}
	if !s.mimeAllowed(req.ContentType) {
		return nil, appErrors.ErrUnsupportedFile
	}

	fileName := sanitizeUploadName(req.FileName)
	if fileName == "" {
		return nil, appErrors.New(appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid manuscript filename")
	}

	id := uuid.NewString()
	storedName := fmt.Sprintf("%s_%s", id, fileName)
	relPath, err := s.storage.SaveStream(storedName, req.File)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store manuscript")
	}

	now := time.Now().UTC()
	submission := &models.Submission{
		ID:             id,
		AuthorID:       req.AuthorID,
		Title:          req.Title,
		Abstract:       req.Abstract,
		Status:         models.StatusUnderReview,
		FieldOfStudy:   req.FieldOfStudy,
		SubmissionType: req.SubmissionType,
		Keywords:       req.Keywords,
		FilePath:       relPath,
		SubmittedAt:    now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create submission")
	}
	s.logger.Info("submission created", zap.String("submission_id", id), zap.String("author_id", req.AuthorID))
	s.notifyChange(ctx)
	return submission, nil
}

// Get returns a submission by id.
func (s *SubmissionService) Get(ctx context.Context, id string) (*models.Submission, error) {
	submission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return submission, nil
}

// ListMine returns all submissions by one author, newest first.
func (s *SubmissionService) ListMine(ctx context.Context, authorID string) ([]models.Submission, error) {
	rows, err := s.repo.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	if rows == nil {
		rows = []models.Submission{}
	}
	return rows, nil
}

// UpdateStatus moves a submission through the review workflow. Only
// transitions in the allowed table succeed.
func (s *SubmissionService) UpdateStatus(ctx context.Context, id, status string) (*models.Submission, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(current.Status, status) {
		return nil, appErrors.Wrap(
			fmt.Errorf("cannot move %q to %q", current.Status, status),
			appErrors.ErrInvalidTransition.Code, appErrors.ErrInvalidTransition.Status, "status transition not allowed")
	}
	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, status, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update status")
	}
	current.Status = status
	current.UpdatedAt = now
	if status == models.StatusPublished {
		current.PublishedAt = &now
	}
	s.logger.Info("submission status updated", zap.String("submission_id", id), zap.String("status", status))
	s.notifyChange(ctx)
	return current, nil
}

// sanitizeUploadName strips any directory components from a client-supplied
// filename. Returns "" when nothing usable remains.
func sanitizeUploadName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(name)
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return name
}

func (s *SubmissionService) mimeAllowed(contentType string) bool {
	if len(s.cfg.AllowedMIMEs) == 0 {
		return true
	}
	for _, mime := range s.cfg.AllowedMIMEs {
		if mime == contentType {
			return true
		}
	}
	return false
}

func (s *SubmissionService) notifyChange(ctx context.Context) {
	if s.onChange != nil {
		s.onChange(ctx)
	}
}

func transitionAllowed(from, to string) bool {
	for _, candidate := range allowedStatusTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
