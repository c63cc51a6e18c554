package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/teamtask/internal/models"
	"github.com/yukikurage/teamtask/internal/repository"
	"github.com/yukikurage/teamtask/internal/storage"
	"gorm.io/gorm"
)

var ErrAttachmentNotFound = errors.New("attachment not found")

// UploadFile is one file of a multipart upload.
type UploadFile struct {
	FileName    string
	ContentType string
	Content     io.Reader
}

// AttachmentService moves attachment bytes into object storage and keeps the
// attachment records in step with them.
type AttachmentService struct {
	attachmentRepo repository.AttachmentRepository
	store          storage.ObjectStore
	log            logrus.FieldLogger
	newObjectID    func() string
}

// NewAttachmentService creates a new AttachmentService
func NewAttachmentService(attachmentRepo repository.AttachmentRepository, store storage.ObjectStore, log logrus.FieldLogger) *AttachmentService {
	return &AttachmentService{
		attachmentRepo: attachmentRepo,
		store:          store,
		log:            log,
		newObjectID:    uuid.NewString,
	}
}

// UploadAll stores each file under the task's prefix and records it.
//
// A failed upload skips that file. A failed record insert after a successful
// upload deletes the uploaded object again. Neither stops the remaining files.
func (s *AttachmentService) UploadAll(ctx context.Context, taskID uint64, uploaderID string, files []UploadFile) ([]models.TaskAttachment, Outcomes) {
	rec := newStepRecorder(s.log, taskID)
	created := make([]models.TaskAttachment, 0, len(files))

	for _, file := range files {
		fileName := cleanFileName(file.FileName)
		objectPath := s.objectPath(taskID, fileName)

		size, err := s.store.Upload(ctx, objectPath, file.Content, file.ContentType)
		if err != nil {
			rec.softFail(StepUploadAttachment, fileName, fmt.Errorf("failed to upload %s: %w", fileName, err))
			continue
		}

		attachment := models.TaskAttachment{
			TaskID:      taskID,
			FilePath:    objectPath,
			FileName:    fileName,
			ContentType: file.ContentType,
			Size:        size,
			UploadedBy:  uploaderID,
		}
		if err := s.attachmentRepo.Create(ctx, &attachment); err != nil {
			rec.softFail(StepRecordAttachment, fileName, fmt.Errorf("failed to record %s: %w", fileName, err))
			rec.record(StepCleanupUpload, objectPath, s.store.Delete(ctx, objectPath))
			continue
		}

		rec.succeed(StepUploadAttachment, fileName)
		created = append(created, attachment)
	}

	return created, rec.outcomes
}

// List returns the task's attachment records.
func (s *AttachmentService) List(ctx context.Context, taskID uint64) ([]models.TaskAttachment, error) {
	attachments, err := s.attachmentRepo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	return attachments, nil
}

// Find returns one attachment record of the task.
func (s *AttachmentService) Find(ctx context.Context, taskID, attachmentID uint64) (*models.TaskAttachment, error) {
	attachment, err := s.attachmentRepo.FindByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("failed to find attachment: %w", err)
	}
	if attachment.TaskID != taskID {
		return nil, ErrAttachmentNotFound
	}
	return attachment, nil
}

// Delete removes the stored object and the record. A failed object delete is
// swallowed so the record still goes; a missing object counts as deleted.
func (s *AttachmentService) Delete(ctx context.Context, attachment *models.TaskAttachment) (Outcomes, error) {
	rec := newStepRecorder(s.log, attachment.TaskID)

	err := s.store.Delete(ctx, attachment.FilePath)
	if errors.Is(err, storage.ErrObjectNotFound) {
		err = nil
	}
	rec.record(StepDeleteObject, attachment.FilePath, err)

	if err := s.attachmentRepo.Delete(ctx, attachment.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return rec.outcomes, ErrAttachmentNotFound
		}
		return rec.outcomes, fmt.Errorf("failed to delete attachment: %w", err)
	}
	return rec.outcomes, nil
}

// PublicURL is a pure lookup on the store.
func (s *AttachmentService) PublicURL(attachment models.TaskAttachment) string {
	return s.store.PublicURL(attachment.FilePath)
}

func (s *AttachmentService) objectPath(taskID uint64, fileName string) string {
	return fmt.Sprintf("tasks/%d/%s-%s", taskID, s.newObjectID(), fileName)
}

func cleanFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return name
}
