package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/teamtask/internal/constants"
	"github.com/yukikurage/teamtask/internal/models"
	"github.com/yukikurage/teamtask/internal/repository"
	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationService writes notification rows and serves the inbox.
//
// notificationRepo must be built on the service-role handle: rows are written
// on behalf of other users.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	log              logrus.FieldLogger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notificationRepo repository.NotificationRepository, userRepo repository.UserRepository, log logrus.FieldLogger) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		log:              log,
	}
}

// NotifyTaskAssigned tells each assignee that actorID assigned them.
// Self-assignment is skipped without an outcome.
func (s *NotificationService) NotifyTaskAssigned(ctx context.Context, task *models.Task, assigneeIDs []string, actorID string) Outcomes {
	rec := newStepRecorder(s.log, task.ID)

	recipients := make([]string, 0, len(assigneeIDs))
	for _, id := range uniqueStrings(assigneeIDs) {
		if id != actorID {
			recipients = append(recipients, id)
		}
	}
	if len(recipients) == 0 {
		return rec.outcomes
	}

	actorName := s.displayName(ctx, actorID)
	for _, userID := range recipients {
		err := s.notificationRepo.Create(ctx, &models.Notification{
			UserID:  userID,
			TaskID:  &task.ID,
			Title:   "New task assignment",
			Message: fmt.Sprintf("%s assigned you to %q", actorName, task.Title),
			Type:    constants.NotificationTypeTaskAssigned,
		})
		rec.record(StepNotify, userID, err)
	}
	return rec.outcomes
}

// NotifyNewComment fans out to every current assignee except the commenter.
func (s *NotificationService) NotifyNewComment(ctx context.Context, task *models.Task, assigneeIDs []string, commenterID string) Outcomes {
	rec := newStepRecorder(s.log, task.ID)

	commenterName := ""
	for _, userID := range uniqueStrings(assigneeIDs) {
		if userID == commenterID {
			continue
		}
		if commenterName == "" {
			commenterName = s.displayName(ctx, commenterID)
		}

		err := s.notificationRepo.Create(ctx, &models.Notification{
			UserID:  userID,
			TaskID:  &task.ID,
			Title:   "New comment",
			Message: fmt.Sprintf("%s commented on %q", commenterName, task.Title),
			Type:    constants.NotificationTypeTaskComment,
		})
		rec.record(StepNotify, userID, err)
	}
	return rec.outcomes
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string, filter repository.NotificationFilter) ([]models.Notification, error) {
	notifications, err := s.notificationRepo.ListForUser(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead marks one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id uint64, userID string) error {
	return s.ownedUpdate(s.notificationRepo.MarkRead(ctx, id, userID), "mark notification read")
}

// Archive hides one of the user's notifications from the default inbox.
func (s *NotificationService) Archive(ctx context.Context, id uint64, userID string) error {
	return s.ownedUpdate(s.notificationRepo.Archive(ctx, id, userID), "archive notification")
}

func (s *NotificationService) ownedUpdate(err error, action string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotificationNotFound
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

// displayName degrades to a placeholder when the lookup fails.
func (s *NotificationService) displayName(ctx context.Context, userID string) string {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.WithFields(logrus.Fields{
				"step":    StepResolveNames,
				"user_id": userID,
				"error":   err.Error(),
			}).Warn("Failed to resolve notification actor name")
		}
		return constants.SomeoneName
	}

	if name := user.DisplayName(); name != "" {
		return name
	}
	return constants.SomeoneName
}
