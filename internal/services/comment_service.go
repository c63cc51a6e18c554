package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/teamtask/internal/models"
	"github.com/yukikurage/teamtask/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrCommentNotFound             = errors.New("comment not found")
	ErrNotCommentAuthor            = errors.New("only the comment author can edit this comment")
	ErrOnlyAdminsCanDeleteComments = errors.New("only admins can delete comments")
)

// CommentInput is the body of a new or edited comment
type CommentInput struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// CommentService handles task comments
type CommentService struct {
	commentRepo   repository.CommentRepository
	userRepo      repository.UserRepository
	tasks         *TaskService
	notifications *NotificationService
}

// NewCommentService creates a new CommentService
func NewCommentService(commentRepo repository.CommentRepository, userRepo repository.UserRepository, tasks *TaskService, notifications *NotificationService) *CommentService {
	return &CommentService{
		commentRepo:   commentRepo,
		userRepo:      userRepo,
		tasks:         tasks,
		notifications: notifications,
	}
}

// ListComments returns the task's comments oldest first
func (s *CommentService) ListComments(ctx context.Context, taskID uint64, userID string) ([]models.TaskComment, error) {
	if _, err := s.tasks.GetTask(ctx, taskID, userID); err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// AddComment posts a comment and notifies the other assignees
func (s *CommentService) AddComment(ctx context.Context, taskID uint64, authorID string, input CommentInput) (*models.TaskComment, Outcomes, error) {
	input.Content = strings.TrimSpace(input.Content)
	if err := validateStruct(input); err != nil {
		return nil, nil, err
	}

	task, err := s.tasks.GetTask(ctx, taskID, authorID)
	if err != nil {
		return nil, nil, err
	}

	comment := &models.TaskComment{
		TaskID:   taskID,
		AuthorID: authorID,
		Content:  input.Content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, nil, fmt.Errorf("failed to create comment: %w", err)
	}

	saved, err := s.findComment(ctx, taskID, comment.ID)
	if err != nil {
		return nil, nil, err
	}

	steps := s.notifications.NotifyNewComment(ctx, task, task.AssigneeIDs(), authorID)
	return saved, steps, nil
}

// EditComment replaces the content. Only the author may edit.
func (s *CommentService) EditComment(ctx context.Context, taskID, commentID uint64, actorID string, input CommentInput) (*models.TaskComment, error) {
	input.Content = strings.TrimSpace(input.Content)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	comment, err := s.findComment(ctx, taskID, commentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != actorID {
		return nil, ErrNotCommentAuthor
	}

	if err := s.commentRepo.UpdateContent(ctx, commentID, input.Content); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	return s.findComment(ctx, taskID, commentID)
}

// DeleteComment removes a comment. Only admins may delete.
func (s *CommentService) DeleteComment(ctx context.Context, taskID, commentID uint64, actorID string) error {
	isAdmin, err := s.userRepo.HasRole(ctx, actorID, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to check admin role: %w", err)
	}
	if !isAdmin {
		return ErrOnlyAdminsCanDeleteComments
	}

	if _, err := s.findComment(ctx, taskID, commentID); err != nil {
		return err
	}

	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

func (s *CommentService) findComment(ctx context.Context, taskID, commentID uint64) (*models.TaskComment, error) {
	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}
	if comment.TaskID != taskID {
		return nil, ErrCommentNotFound
	}
	return comment, nil
}
