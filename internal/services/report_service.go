package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/teamtask/internal/calendar"
	"github.com/yukikurage/teamtask/internal/models"
	"github.com/yukikurage/teamtask/internal/report"
	"github.com/yukikurage/teamtask/internal/repository"
)

var ErrInvalidReportRange = errors.New("report range start must be before its end")

// ReportFilter narrows the rows a report is computed over
type ReportFilter struct {
	UserID    string
	ProjectID *uint64
	From      *time.Time
	To        *time.Time
}

// ReportService fetches visible task rows and hands them to the aggregators
type ReportService struct {
	taskRepo   repository.TaskRepository
	visibility *VisibilityService
	tasks      *TaskService
	now        func() time.Time
}

// NewReportService creates a new ReportService
func NewReportService(taskRepo repository.TaskRepository, visibility *VisibilityService, tasks *TaskService) *ReportService {
	return &ReportService{
		taskRepo:   taskRepo,
		visibility: visibility,
		tasks:      tasks,
		now:        time.Now,
	}
}

// Summary computes time, status and completion statistics
func (s *ReportService) Summary(ctx context.Context, filter ReportFilter) (*report.Summary, error) {
	tasks, err := s.rows(ctx, filter)
	if err != nil {
		return nil, err
	}

	summary := report.Summarize(tasks, s.now())
	return &summary, nil
}

// Team computes per-assignee statistics over the same rows as Summary
func (s *ReportService) Team(ctx context.Context, filter ReportFilter) ([]report.MemberStats, error) {
	tasks, err := s.rows(ctx, filter)
	if err != nil {
		return nil, err
	}

	return report.TeamSummary(tasks, s.tasks.DisplayNames(ctx, tasks), s.now()), nil
}

// Calendar renders every task the user created or is assigned to that has a
// deadline
func (s *ReportService) Calendar(ctx context.Context, userID string) (string, error) {
	tasks, _, err := s.taskRepo.List(ctx, repository.TaskFilter{
		MemberUserID:   userID,
		WithDeadline:   true,
		SortByDeadline: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to list tasks: %w", err)
	}

	return calendar.Export(tasks, calendar.Options{Name: "Tasks", Now: s.now()}), nil
}

func (s *ReportService) rows(ctx context.Context, filter ReportFilter) ([]models.Task, error) {
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, ErrInvalidReportRange
	}

	visible, err := s.visibility.VisibleProjectIDs(ctx, filter.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve visible projects: %w", err)
	}

	taskFilter := repository.TaskFilter{
		CreatedFrom: filter.From,
		CreatedTo:   filter.To,
	}
	if filter.ProjectID != nil {
		if !containsUint64(visible, *filter.ProjectID) {
			return nil, ErrProjectNotVisible
		}
		taskFilter.ProjectIDs = []uint64{*filter.ProjectID}
	} else {
		taskFilter.ProjectIDs = visible
		taskFilter.MemberUserID = filter.UserID
	}

	tasks, _, err := s.taskRepo.List(ctx, taskFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}
