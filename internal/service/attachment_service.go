package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kanban-sync/internal/board"
	"kanban-sync/internal/client"
	"kanban-sync/internal/domain"
)

// MaxInlineAttachmentBytes caps files stored as data URLs inside the board document
const MaxInlineAttachmentBytes = 3 * 1024 * 1024

// AttachmentService defines the interface for task attachment logic
type AttachmentService interface {
	Attach(ctx context.Context, taskID string, file client.MediaFile) (domain.Task, domain.Attachment, error)
	Remove(ctx context.Context, taskID, attachmentID string) (domain.Task, error)
}

type attachmentServiceImpl struct {
	sessions EngineProvider
	mutator  *board.Mutator
	uploader client.MediaUploader
	newID    func() string
	logger   *zap.Logger
}

// NewAttachmentService creates a new instance of AttachmentService
func NewAttachmentService(sessions EngineProvider, mutator *board.Mutator, uploader client.MediaUploader, logger *zap.Logger) AttachmentService {
	return &attachmentServiceImpl{
		sessions: sessions,
		mutator:  mutator,
		uploader: uploader,
		newID:    uuid.NewString,
		logger:   logger,
	}
}

// Attach stores the file on the media host, or inline when the host is missing or fails,
// and appends it to the task.
func (s *attachmentServiceImpl) Attach(ctx context.Context, taskID string, file client.MediaFile) (domain.Task, domain.Attachment, error) {
	engine, err := s.sessions.Engine()
	if err != nil {
		return domain.Task{}, domain.Attachment{}, err
	}
	if _, ok := engine.State().Task(taskID); !ok {
		return domain.Task{}, domain.Attachment{}, ErrTaskNotFound
	}

	hosted := s.uploader.Configured()
	// the ceiling only guards the inline path chosen up front
	if !hosted && len(file.Data) > MaxInlineAttachmentBytes {
		return domain.Task{}, domain.Attachment{}, ErrUploadTooLarge
	}

	url := ""
	if hosted {
		url, err = s.uploader.Upload(ctx, file)
		if err != nil {
			s.logger.Warn("Media upload failed, storing attachment inline",
				zap.Error(err),
				zap.String("file_name", file.Name),
			)
			url = ""
		}
	}
	if url == "" {
		url = dataURL(file)
	}

	attachment := domain.Attachment{
		ID:   s.newID(),
		Type: domain.AttachmentTypeFor(file.ContentType),
		URL:  url,
		Name: file.Name,
	}

	var updated domain.Task
	err = engine.Apply(func(tasks []domain.Task) ([]domain.Task, error) {
		next, t, err := s.mutator.AddAttachment(tasks, taskID, attachment, engine.Self())
		updated = t
		return next, err
	})
	if err != nil {
		return domain.Task{}, domain.Attachment{}, err
	}
	return updated, attachment, nil
}

// Remove drops one attachment from the task
func (s *attachmentServiceImpl) Remove(ctx context.Context, taskID, attachmentID string) (domain.Task, error) {
	engine, err := s.sessions.Engine()
	if err != nil {
		return domain.Task{}, err
	}

	var updated domain.Task
	err = engine.Apply(func(tasks []domain.Task) ([]domain.Task, error) {
		next, t, err := s.mutator.RemoveAttachment(tasks, taskID, attachmentID, engine.Self())
		updated = t
		return next, err
	})
	if err != nil {
		return domain.Task{}, err
	}
	return updated, nil
}

func dataURL(file client.MediaFile) string {
	ct := file.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	return fmt.Sprintf("data:%s;base64,%s", ct, base64.StdEncoding.EncodeToString(file.Data))
}
