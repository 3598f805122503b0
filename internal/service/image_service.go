package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/storage"
	"github.com/spec-kit/helpdesk/pkg/util"
)

// ImageService handles image attachments on tickets and replies.
type ImageService struct {
	tickets repository.TicketRepository
	replies repository.ReplyRepository
	images  repository.ImageRepository
	store   storage.Store
	cfg     config.UploadConfig
	logger  *zap.Logger
}

// ImageDependencies bundles collaborators for the image service.
type ImageDependencies struct {
	TicketRepo repository.TicketRepository
	ReplyRepo  repository.ReplyRepository
	ImageRepo  repository.ImageRepository
	Store      storage.Store
	Config     config.UploadConfig
	Logger     *zap.Logger
}

// FileUpload is one uploaded file. Open is called at most once.
type FileUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// FileError records why one file was rejected.
type FileError struct {
	Filename string `json:"filename"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// AttachResult separates stored images from per-file rejections. A
// rejected file never aborts the rest of the batch.
type AttachResult struct {
	Attached []domain.Image `json:"attached"`
	Failed   []FileError    `json:"failed"`
}

// NewImageService constructs the service.
func NewImageService(deps ImageDependencies) *ImageService {
	return &ImageService{
		tickets: deps.TicketRepo,
		replies: deps.ReplyRepo,
		images:  deps.ImageRepo,
		store:   deps.Store,
		cfg:     deps.Config,
		logger:  deps.Logger,
	}
}

// Attach validates and stores a batch of files against a ticket, or
// against one of its replies when replyID is set. Each file succeeds or
// fails independently.
func (s *ImageService) Attach(ctx context.Context, ticketID string, replyID *string, files []FileUpload) (*AttachResult, error) {
	if !s.cfg.Enabled {
		return nil, util.NewValidationError("file uploads are disabled", nil)
	}

	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, util.NewPersistenceError(err)
	}

	if replyID != nil {
		reply, err := s.replies.GetByID(ctx, *replyID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, util.NewNotFound("reply", map[string]any{"reply_id": *replyID})
			}
			return nil, util.NewPersistenceError(err)
		}
		if reply.TicketID != ticketID {
			return nil, util.NewValidationError("reply does not belong to ticket", map[string]any{
				"ticket_id": ticketID,
				"reply_id":  *replyID,
			})
		}
	}

	result := &AttachResult{Attached: []domain.Image{}, Failed: []FileError{}}
	for _, file := range files {
		image, fileErr := s.attachOne(ctx, ticketID, replyID, file)
		if fileErr != nil {
			result.Failed = append(result.Failed, *fileErr)
			continue
		}
		result.Attached = append(result.Attached, *image)
	}
	return result, nil
}

// List returns the images in scope: replyID nil selects the images
// attached to the ticket's initial submission, a set replyID selects
// the images attached to that reply.
func (s *ImageService) List(ctx context.Context, ticketID string, replyID *string) ([]domain.Image, error) {
	images, err := s.images.ListByScope(ctx, ticketID, replyID)
	if err != nil {
		return nil, util.NewPersistenceError(err)
	}
	if images == nil {
		images = []domain.Image{}
	}
	return images, nil
}

func (s *ImageService) attachOne(ctx context.Context, ticketID string, replyID *string, file FileUpload) (*domain.Image, *FileError) {
	if fileErr := s.validateFile(file); fileErr != nil {
		return nil, fileErr
	}

	content, err := file.Open()
	if err != nil {
		return nil, &FileError{Filename: file.Filename, Code: "STORAGE_FAILED", Message: "could not read upload"}
	}
	defer content.Close()

	url, err := s.store.Save(ctx, file.Filename, content)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("failed to store upload", zap.String("filename", file.Filename), zap.Error(err))
		}
		return nil, &FileError{Filename: file.Filename, Code: "STORAGE_FAILED", Message: "could not store file"}
	}

	image := &domain.Image{
		ID:               uuid.NewString(),
		TicketID:         ticketID,
		ReplyID:          replyID,
		URL:              url,
		OriginalFilename: file.Filename,
	}
	if err := s.images.Create(ctx, image); err != nil {
		if removeErr := s.store.Remove(ctx, url); removeErr != nil && s.logger != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.String("url", url), zap.Error(removeErr))
		}
		return nil, &FileError{Filename: file.Filename, Code: "PERSISTENCE_FAILED", Message: "could not record file"}
	}
	return image, nil
}

func (s *ImageService) validateFile(file FileUpload) *FileError {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !s.extAllowed(ext) {
		return &FileError{
			Filename: file.Filename,
			Code:     "UNSUPPORTED_TYPE",
			Message:  "file type is not allowed: " + ext,
		}
	}
	if file.ContentType != "" && !strings.HasPrefix(file.ContentType, "image/") {
		return &FileError{
			Filename: file.Filename,
			Code:     "UNSUPPORTED_TYPE",
			Message:  "content type is not an image: " + file.ContentType,
		}
	}
	if file.Size <= 0 {
		return &FileError{Filename: file.Filename, Code: "EMPTY_FILE", Message: "file is empty"}
	}
	if s.cfg.MaxFileSizeBytes > 0 && file.Size > s.cfg.MaxFileSizeBytes {
		return &FileError{Filename: file.Filename, Code: "FILE_TOO_LARGE", Message: "file exceeds the size limit"}
	}
	return nil
}

func (s *ImageService) extAllowed(ext string) bool {
	if ext == "" {
		return false
	}
	for _, allowed := range s.cfg.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
