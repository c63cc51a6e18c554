package dto

import (
	"time"

	"github.com/yukikurage/teamtask/internal/constants"
	"github.com/yukikurage/teamtask/internal/models"
	"github.com/yukikurage/teamtask/internal/recurrence"
	"github.com/yukikurage/teamtask/internal/services"
	"github.com/yukikurage/teamtask/internal/utils"
)

// UserRefDTO is a user reference with a resolved display name
type UserRefDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TaskView represents a task in API responses
type TaskView struct {
	ID                 uint64            `json:"id"`
	Title              string            `json:"title"`
	Description        string            `json:"description"`
	Priority           int               `json:"priority"`
	Status             models.TaskStatus `json:"status"`
	Deadline           *time.Time        `json:"deadline"`
	DeadlineDisplay    string            `json:"deadline_display,omitempty"`
	Notes              string            `json:"notes"`
	RecurrenceInterval int               `json:"recurrence_interval"`
	RecurrenceDate     *time.Time        `json:"recurrence_date"`
	ParentTaskID       *uint64           `json:"parent_task_id"`
	ProjectID          *uint64           `json:"project_id"`
	Project            *ProjectDTO       `json:"project,omitempty"`
	Creator            UserRefDTO        `json:"creator"`
	Assignees          []UserRefDTO      `json:"assignees"`
	Tags               []string          `json:"tags"`
	LoggedTime         int64             `json:"logged_time"`
	IsOverdue          bool              `json:"is_overdue"`
	IsArchived         bool              `json:"is_archived"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskView               `json:"tasks"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// TaskWriteResponse is a written task plus the best-effort steps it went through
type TaskWriteResponse struct {
	Task          TaskView          `json:"task"`
	Steps         services.Outcomes `json:"steps"`
	SpawnedTaskID *uint64           `json:"spawned_task_id,omitempty"`
}

// Conversion functions

// ToTaskView shapes a task row for the UI. names maps user ids to display
// names; ids missing from it render as "Unknown User". The task and its
// slices are only read.
func ToTaskView(task models.Task, names map[string]string, now time.Time) TaskView {
	view := TaskView{
		ID:                 task.ID,
		Title:              task.Title,
		Description:        task.Description,
		Priority:           task.PriorityBucket,
		Status:             task.Status,
		Deadline:           utils.ToSGT(task.Deadline),
		DeadlineDisplay:    utils.FormatSGT(task.Deadline),
		Notes:              task.Notes,
		RecurrenceInterval: task.RecurrenceInterval,
		RecurrenceDate:     utils.ToSGT(task.RecurrenceDate),
		ParentTaskID:       task.ParentTaskID,
		ProjectID:          task.ProjectID,
		Creator:            userRef(task.CreatorID, names),
		Tags:               task.TagNames(),
		LoggedTime:         task.LoggedTime,
		IsOverdue:          recurrence.IsOverdue(task.Deadline, task.Status, now),
		IsArchived:         task.IsArchived,
		CreatedAt:          task.CreatedAt,
		UpdatedAt:          task.UpdatedAt,
	}

	// Include project if preloaded
	if task.Project != nil {
		project := ToProjectDTO(*task.Project)
		view.Project = &project
	}

	view.Assignees = make([]UserRefDTO, 0, len(task.Assignments))
	for _, assignment := range task.Assignments {
		view.Assignees = append(view.Assignees, userRef(assignment.UserID, names))
	}

	return view
}

// ToTaskViews converts a slice of tasks
func ToTaskViews(tasks []models.Task, names map[string]string, now time.Time) []TaskView {
	views := make([]TaskView, len(tasks))
	for i, task := range tasks {
		views[i] = ToTaskView(task, names, now)
	}
	return views
}

// ToTaskListResponse converts a page of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, names map[string]string, now time.Time, params utils.PaginationParams, total int64) TaskListResponse {
	return TaskListResponse{
		Tasks:      ToTaskViews(tasks, names, now),
		Pagination: params.Response(total),
	}
}

// ToTaskWriteResponse converts a write result
func ToTaskWriteResponse(result *services.WriteResult, names map[string]string, now time.Time) TaskWriteResponse {
	steps := result.Steps
	if steps == nil {
		steps = services.Outcomes{}
	}
	return TaskWriteResponse{
		Task:          ToTaskView(*result.Task, names, now),
		Steps:         steps,
		SpawnedTaskID: result.SpawnedTaskID,
	}
}

func userRef(id string, names map[string]string) UserRefDTO {
	name, ok := names[id]
	if !ok || name == "" {
		name = constants.UnknownUserName
	}
	return UserRefDTO{ID: id, Name: name}
}
