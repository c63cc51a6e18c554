package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/teamtask/internal/constants"
	"github.com/yukikurage/teamtask/internal/models"
	"github.com/yukikurage/teamtask/internal/recurrence"
	"github.com/yukikurage/teamtask/internal/repository"
	"github.com/yukikurage/teamtask/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound                   = errors.New("task not found")
	ErrTaskAccessDenied               = errors.New("you do not have access to this task")
	ErrTaskPermissionDenied           = errors.New("you do not have permission to modify this task")
	ErrNotTaskCreator                 = errors.New("only the task creator can perform this action")
	ErrOnlyManagersCanRemoveAssignees = errors.New("only managers can remove assignees")
	ErrTooManyAssignees               = fmt.Errorf("a task cannot have more than %d assignees", constants.MaxAssigneesPerTask)
	ErrLastAssignee                   = fmt.Errorf("a task must keep at least %d assignee", constants.MinAssigneesPerTask)
	ErrAssigneeNotFound               = errors.New("user is not assigned to this task")
	ErrNoUserIDsProvided              = errors.New("at least one user ID is required")
	ErrInvalidTaskAssignee            = errors.New("one or more assignees do not exist")
	ErrTitleRequired                  = errors.New("title is required")
	ErrTitleTooLong                   = fmt.Errorf("title must be at most %d characters", constants.MaxTitleLength)
	ErrNotesTooLong                   = fmt.Errorf("notes must be at most %d characters", constants.MaxNotesLength)
	ErrInvalidPriority                = fmt.Errorf("priority must be between %d and %d", constants.MinPriority, constants.MaxPriority)
	ErrInvalidStatus                  = errors.New("status must be one of To Do, In Progress, Completed, Blocked")
	ErrInvalidRecurrenceInterval      = errors.New("recurrence interval must be one of 0, 1, 7, 30")
	ErrRecurrenceDateRequired         = errors.New("recurrence date is required for recurring tasks")
	ErrRecurrenceDateInPast           = errors.New("recurrence date cannot be in the past")
	ErrParentTaskNotFound             = errors.New("parent task not found")
	ErrNestedSubtask                  = errors.New("a subtask cannot have subtasks of its own")
	ErrProjectNotVisible              = errors.New("project not found or not visible")
	ErrInvalidLoggedTime              = errors.New("logged time must be a positive number of seconds")
	ErrAIServiceNotConfigured         = errors.New("AI service is not configured")
	ErrAINoTasksGenerated             = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks                 = errors.New("no valid tasks could be created from AI output")
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo      repository.TaskRepository
	tagRepo       repository.TagRepository
	userRepo      repository.UserRepository
	visibility    *VisibilityService
	attachments   *AttachmentService
	notifications *NotificationService
	aiService     *AIService
	log           logrus.FieldLogger
	now           func() time.Time
}

// NewTaskService creates a new TaskService
func NewTaskService(
	taskRepo repository.TaskRepository,
	tagRepo repository.TagRepository,
	userRepo repository.UserRepository,
	visibility *VisibilityService,
	attachments *AttachmentService,
	notifications *NotificationService,
	aiService *AIService,
	log logrus.FieldLogger,
) *TaskService {
	return &TaskService{
		taskRepo:      taskRepo,
		tagRepo:       tagRepo,
		userRepo:      userRepo,
		visibility:    visibility,
		attachments:   attachments,
		notifications: notifications,
		aiService:     aiService,
		log:           log,
		now:           time.Now,
	}
}

// taskPreloads are the relations every task view needs.
var taskPreloads = []string{"Project", "Assignments", "TaskTags.Tag"}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	UserID          string
	ProjectID       *uint64
	Status          *models.TaskStatus
	AssignedToMe    bool
	ParentTaskID    *uint64
	IncludeArchived bool
	SortByDeadline  bool
	Page            int
	PageSize        int
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title              string            `json:"title" validate:"required,max=200"`
	Description        string            `json:"description"`
	Priority           int               `json:"priority" validate:"min=1,max=10"`
	Status             models.TaskStatus `json:"status"`
	Deadline           *time.Time        `json:"deadline"`
	Notes              string            `json:"notes" validate:"max=1000"`
	ProjectID          *uint64           `json:"project_id"`
	ParentTaskID       *uint64           `json:"parent_task_id"`
	RecurrenceInterval int               `json:"recurrence_interval" validate:"oneof=0 1 7 30"`
	RecurrenceDate     *time.Time        `json:"recurrence_date"`
	AssigneeIDs        []string          `json:"assignee_ids" validate:"dive,required"`
	Tags               []string          `json:"tags" validate:"dive,required,max=50"`

	CreatorID string       `json:"-"`
	Files     []UploadFile `json:"-"`
}

// WriteResult is a write that succeeded, with the best-effort steps it went through.
type WriteResult struct {
	Task          *models.Task
	Steps         Outcomes
	SpawnedTaskID *uint64
}

// ListTasks returns tasks visible to a user: tasks in visible projects plus
// tasks the user created or is assigned to.
func (s *TaskService) ListTasks(ctx context.Context, input ListTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{
		Status:          input.Status,
		ParentTaskID:    input.ParentTaskID,
		IncludeArchived: input.IncludeArchived,
		SortByDeadline:  input.SortByDeadline,
		Page:            input.Page,
		PageSize:        input.PageSize,
	}
	if input.AssignedToMe {
		filter.AssignedUserID = &input.UserID
	}

	if input.ProjectID != nil {
		visible, err := s.visibility.VisibleProjectIDs(ctx, input.UserID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to resolve visible projects: %w", err)
		}
		if !containsUint64(visible, *input.ProjectID) {
			return nil, 0, ErrProjectNotVisible
		}
		filter.ProjectIDs = []uint64{*input.ProjectID}
	} else {
		filter.ProjectIDs = s.visibleProjectIDsOrEmpty(ctx, input.UserID)
		filter.MemberUserID = input.UserID
	}

	tasks, total, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task with related data if the user may view it
func (s *TaskService) GetTask(ctx context.Context, taskID uint64, userID string) (*models.Task, error) {
	task, err := s.findTask(ctx, taskID, taskPreloads...)
	if err != nil {
		return nil, err
	}

	ok, err := s.CanView(ctx, task, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrTaskAccessDenied
	}

	return task, nil
}

// CanView reports whether the user created the task, is assigned to it, or
// can see its project. task must have Assignments preloaded.
func (s *TaskService) CanView(ctx context.Context, task *models.Task, userID string) (bool, error) {
	if task.CreatorID == userID || task.IsAssignee(userID) {
		return true, nil
	}
	if task.ProjectID == nil {
		return false, nil
	}

	visible, err := s.visibility.VisibleProjectIDs(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to resolve visible projects: %w", err)
	}
	return containsUint64(visible, *task.ProjectID), nil
}

// CreateTask validates the payload, creates the task with its assignees in
// one call, then links tags, uploads files and notifies assignees. Only the
// first step can fail the operation.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*WriteResult, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Priority == 0 {
		input.Priority = constants.DefaultPriority
	}
	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	input.AssigneeIDs = uniqueStrings(trimAll(input.AssigneeIDs))
	input.Tags = normalizeTags(input.Tags)

	if len(input.AssigneeIDs) > constants.MaxAssigneesPerTask {
		return nil, ErrTooManyAssignees
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if !input.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if err := s.checkRecurrence(input.RecurrenceInterval, input.RecurrenceDate); err != nil {
		return nil, err
	}
	if len(input.AssigneeIDs) == 0 {
		input.AssigneeIDs = []string{input.CreatorID}
	}
	if err := s.ensureUsersExist(ctx, input.AssigneeIDs); err != nil {
		return nil, err
	}

	if input.ParentTaskID != nil {
		parent, err := s.findTask(ctx, *input.ParentTaskID, "Assignments")
		if err != nil {
			if errors.Is(err, ErrTaskNotFound) {
				return nil, ErrParentTaskNotFound
			}
			return nil, err
		}
		if parent.ParentTaskID != nil {
			return nil, ErrNestedSubtask
		}
		if ok, err := s.CanView(ctx, parent, input.CreatorID); err != nil {
			return nil, err
		} else if !ok {
			return nil, ErrParentTaskNotFound
		}
		if input.ProjectID == nil {
			input.ProjectID = parent.ProjectID
		}
	}

	if input.ProjectID != nil {
		visible, err := s.visibility.VisibleProjectIDs(ctx, input.CreatorID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve visible projects: %w", err)
		}
		if !containsUint64(visible, *input.ProjectID) {
			return nil, ErrProjectNotVisible
		}
	}

	task := &models.Task{
		Title:              input.Title,
		Description:        input.Description,
		PriorityBucket:     input.Priority,
		Status:             input.Status,
		Deadline:           utils.ToSGT(input.Deadline),
		Notes:              input.Notes,
		RecurrenceInterval: input.RecurrenceInterval,
		ParentTaskID:       input.ParentTaskID,
		ProjectID:          input.ProjectID,
		CreatorID:          input.CreatorID,
	}
	if input.RecurrenceInterval > recurrence.None {
		task.RecurrenceDate = utils.ToSGT(input.RecurrenceDate)
	}

	taskID, err := s.taskRepo.CreateWithAssignments(ctx, task, input.AssigneeIDs, input.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	rec := newStepRecorder(s.log, taskID)
	s.linkTags(ctx, taskID, input.Tags, rec)
	if len(input.Files) > 0 {
		_, steps := s.attachments.UploadAll(ctx, taskID, input.CreatorID, input.Files)
		rec.merge(steps)
	}
	rec.merge(s.notifications.NotifyTaskAssigned(ctx, task, input.AssigneeIDs, input.CreatorID))

	return &WriteResult{Task: s.reloadOr(ctx, task), Steps: rec.outcomes}, nil
}

// UpdateTitle replaces the title
func (s *TaskService) UpdateTitle(ctx context.Context, taskID uint64, actorID, title string) (*models.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if len([]rune(title)) > constants.MaxTitleLength {
		return nil, ErrTitleTooLong
	}
	return s.updateField(ctx, taskID, actorID, "title", title)
}

// UpdateDescription replaces the description
func (s *TaskService) UpdateDescription(ctx context.Context, taskID uint64, actorID, description string) (*models.Task, error) {
	return s.updateField(ctx, taskID, actorID, "description", description)
}

// UpdatePriority sets the priority bucket
func (s *TaskService) UpdatePriority(ctx context.Context, taskID uint64, actorID string, priority int) (*models.Task, error) {
	if priority < constants.MinPriority || priority > constants.MaxPriority {
		return nil, ErrInvalidPriority
	}
	return s.updateField(ctx, taskID, actorID, "priority_bucket", priority)
}

// UpdateDeadline sets or clears the deadline, normalized to UTC+8
func (s *TaskService) UpdateDeadline(ctx context.Context, taskID uint64, actorID string, deadline *time.Time) (*models.Task, error) {
	return s.updateField(ctx, taskID, actorID, "deadline", utils.ToSGT(deadline))
}

// UpdateNotes replaces the notes
func (s *TaskService) UpdateNotes(ctx context.Context, taskID uint64, actorID, notes string) (*models.Task, error) {
	if len([]rune(notes)) > constants.MaxNotesLength {
		return nil, ErrNotesTooLong
	}
	return s.updateField(ctx, taskID, actorID, "notes", notes)
}

// UpdateRecurrence sets the interval and anchor date. Interval 0 clears the anchor.
func (s *TaskService) UpdateRecurrence(ctx context.Context, taskID uint64, actorID string, interval int, anchor *time.Time) (*models.Task, error) {
	if err := s.checkRecurrence(interval, anchor); err != nil {
		return nil, err
	}

	if _, err := s.loadForWrite(ctx, taskID, actorID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"recurrence_interval": interval,
		"recurrence_date":     nil,
	}
	if interval > recurrence.None {
		fields["recurrence_date"] = utils.ToSGT(anchor)
	}
	if err := s.taskRepo.UpdateFields(ctx, taskID, fields); err != nil {
		return nil, s.wrapUpdateError(err)
	}

	return s.findTask(ctx, taskID, taskPreloads...)
}

// UpdateStatus sets the status. Moving a recurring task into Completed
// spawns its next occurrence as a new task; a failed spawn is a soft failure.
func (s *TaskService) UpdateStatus(ctx context.Context, taskID uint64, actorID string, status models.TaskStatus) (*WriteResult, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	task, err := s.loadForWrite(ctx, taskID, actorID, "TaskTags.Tag")
	if err != nil {
		return nil, err
	}
	previous := task.Status

	if err := s.taskRepo.UpdateFields(ctx, taskID, map[string]interface{}{"status": status}); err != nil {
		return nil, s.wrapUpdateError(err)
	}

	rec := newStepRecorder(s.log, taskID)
	result := &WriteResult{}
	if status == models.TaskStatusCompleted && previous != models.TaskStatusCompleted && task.RecurrenceInterval > recurrence.None {
		result.SpawnedTaskID = s.spawnNextOccurrence(ctx, task, actorID, rec)
	}

	updated, err := s.findTask(ctx, taskID, taskPreloads...)
	if err != nil {
		return nil, err
	}
	result.Task = updated
	result.Steps = rec.outcomes
	return result, nil
}

// AssignUsers adds assignees, keeping the task at or under the assignee limit
func (s *TaskService) AssignUsers(ctx context.Context, taskID uint64, actorID string, userIDs []string) (*WriteResult, error) {
	userIDs = uniqueStrings(trimAll(userIDs))
	if len(userIDs) == 0 {
		return nil, ErrNoUserIDsProvided
	}

	task, err := s.loadForWrite(ctx, taskID, actorID)
	if err != nil {
		return nil, err
	}

	current, err := s.taskRepo.ListAssigneeIDs(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assignees: %w", err)
	}

	added := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if !containsString(current, id) {
			added = append(added, id)
		}
	}
	if len(current)+len(added) > constants.MaxAssigneesPerTask {
		return nil, ErrTooManyAssignees
	}
	if len(added) == 0 {
		return &WriteResult{Task: s.reloadOr(ctx, task), Steps: Outcomes{}}, nil
	}
	if err := s.ensureUsersExist(ctx, added); err != nil {
		return nil, err
	}

	if err := s.taskRepo.AssignUsers(ctx, taskID, added, actorID); err != nil {
		return nil, fmt.Errorf("failed to assign users: %w", err)
	}

	steps := s.notifications.NotifyTaskAssigned(ctx, task, added, actorID)
	return &WriteResult{Task: s.reloadOr(ctx, task), Steps: steps}, nil
}

// RemoveAssignee removes one assignee. Only managers may do this and the
// task must keep at least one assignee.
func (s *TaskService) RemoveAssignee(ctx context.Context, taskID uint64, actorID, userID string) (*models.Task, error) {
	isManager, err := s.userRepo.HasRole(ctx, actorID, models.RoleManager)
	if err != nil {
		return nil, fmt.Errorf("failed to check manager role: %w", err)
	}
	if !isManager {
		return nil, ErrOnlyManagersCanRemoveAssignees
	}

	task, err := s.findTask(ctx, taskID, "Assignments")
	if err != nil {
		return nil, err
	}
	if ok, err := s.CanView(ctx, task, actorID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrTaskAccessDenied
	}

	current, err := s.taskRepo.ListAssigneeIDs(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assignees: %w", err)
	}
	if !containsString(current, userID) {
		return nil, ErrAssigneeNotFound
	}
	if len(current) <= constants.MinAssigneesPerTask {
		return nil, ErrLastAssignee
	}

	if err := s.taskRepo.UnassignUser(ctx, taskID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssigneeNotFound
		}
		return nil, fmt.Errorf("failed to unassign user: %w", err)
	}

	return s.findTask(ctx, taskID, taskPreloads...)
}

// ArchiveTask soft-archives or restores a task. Only the creator may do this.
func (s *TaskService) ArchiveTask(ctx context.Context, taskID uint64, actorID string, archived bool) (*models.Task, error) {
	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.CreatorID != actorID {
		return nil, ErrNotTaskCreator
	}

	if err := s.taskRepo.UpdateFields(ctx, taskID, map[string]interface{}{"is_archived": archived}); err != nil {
		return nil, s.wrapUpdateError(err)
	}

	return s.findTask(ctx, taskID, taskPreloads...)
}

// AddLoggedTime adds seconds of work to the task
func (s *TaskService) AddLoggedTime(ctx context.Context, taskID uint64, actorID string, seconds int64) (*models.Task, error) {
	if seconds <= 0 {
		return nil, ErrInvalidLoggedTime
	}
	if _, err := s.loadForWrite(ctx, taskID, actorID); err != nil {
		return nil, err
	}

	if err := s.taskRepo.AddLoggedTime(ctx, taskID, seconds); err != nil {
		return nil, s.wrapUpdateError(err)
	}

	return s.findTask(ctx, taskID, taskPreloads...)
}

// AddAttachments uploads files to an existing task
func (s *TaskService) AddAttachments(ctx context.Context, taskID uint64, actorID string, files []UploadFile) ([]models.TaskAttachment, Outcomes, error) {
	if _, err := s.loadForWrite(ctx, taskID, actorID); err != nil {
		return nil, nil, err
	}

	created, steps := s.attachments.UploadAll(ctx, taskID, actorID, files)
	return created, steps, nil
}

// ListAttachments returns the task's attachments if the user may view the task
func (s *TaskService) ListAttachments(ctx context.Context, taskID uint64, userID string) ([]models.TaskAttachment, error) {
	if _, err := s.GetTask(ctx, taskID, userID); err != nil {
		return nil, err
	}
	return s.attachments.List(ctx, taskID)
}

// DeleteAttachment removes an attachment. The uploader, the creator and the
// assignees may do this.
func (s *TaskService) DeleteAttachment(ctx context.Context, taskID, attachmentID uint64, actorID string) (Outcomes, error) {
	task, err := s.findTask(ctx, taskID, "Assignments")
	if err != nil {
		return nil, err
	}

	attachment, err := s.attachments.Find(ctx, taskID, attachmentID)
	if err != nil {
		return nil, err
	}
	if attachment.UploadedBy != actorID && !canModify(task, actorID) {
		return nil, ErrTaskPermissionDenied
	}

	return s.attachments.Delete(ctx, attachment)
}

// DisplayNames maps every creator and assignee of the tasks to a display
// name. Lookup failures are logged and leave the map partial; the mapper
// substitutes a placeholder for missing ids.
func (s *TaskService) DisplayNames(ctx context.Context, tasks []models.Task) map[string]string {
	names := make(map[string]string)
	if len(tasks) == 0 {
		return names
	}

	taskIDs := make([]uint64, 0, len(tasks))
	creatorIDs := make([]string, 0, len(tasks))
	for _, t := range tasks {
		taskIDs = append(taskIDs, t.ID)
		creatorIDs = append(creatorIDs, t.CreatorID)
	}

	rows, err := s.taskRepo.AssigneesInfo(ctx, taskIDs)
	if err != nil {
		s.logNameFailure(err)
	}
	for _, row := range rows {
		names[row.ID] = strings.TrimSpace(row.FirstName + " " + row.LastName)
	}

	missing := make([]string, 0, len(creatorIDs))
	for _, id := range uniqueStrings(creatorIDs) {
		if _, ok := names[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return names
	}

	users, err := s.userRepo.FindByIDs(ctx, missing)
	if err != nil {
		s.logNameFailure(err)
		return names
	}
	for _, u := range users {
		names[u.ID] = u.DisplayName()
	}
	return names
}

func (s *TaskService) logNameFailure(err error) {
	s.log.WithFields(logrus.Fields{
		"step":  StepResolveNames,
		"error": err.Error(),
	}).Warn("Failed to resolve display names")
}

// spawnNextOccurrence creates the follow-up of a completed recurring task.
// task must have Assignments and TaskTags.Tag preloaded.
func (s *TaskService) spawnNextOccurrence(ctx context.Context, task *models.Task, actorID string, rec *stepRecorder) *uint64 {
	next := recurrence.Next(task.RecurrenceInterval, utils.ToSGT(task.Deadline), models.TaskStatusTodo, s.now())

	var anchor *time.Time
	if task.RecurrenceDate != nil {
		advanced := recurrence.AddInterval(task.RecurrenceDate.In(utils.SGT), task.RecurrenceInterval)
		anchor = &advanced
	} else {
		anchor = next.Deadline
	}

	followUp := &models.Task{
		Title:              task.Title,
		Description:        task.Description,
		PriorityBucket:     task.PriorityBucket,
		Status:             models.TaskStatusTodo,
		Deadline:           next.Deadline,
		Notes:              task.Notes,
		RecurrenceInterval: task.RecurrenceInterval,
		RecurrenceDate:     anchor,
		ParentTaskID:       task.ParentTaskID,
		ProjectID:          task.ProjectID,
		CreatorID:          task.CreatorID,
	}

	assignees := task.AssigneeIDs()
	if len(assignees) == 0 {
		assignees = []string{task.CreatorID}
	}

	newID, err := s.taskRepo.CreateWithAssignments(ctx, followUp, assignees, actorID)
	if err != nil {
		rec.softFail(StepSpawnRecurrence, task.Title, fmt.Errorf("failed to create next occurrence: %w", err))
		return nil
	}
	rec.succeed(StepSpawnRecurrence, fmt.Sprintf("%d", newID))

	s.linkTags(ctx, newID, task.TagNames(), rec)
	return &newID
}

// linkTags ensures each tag exists and links it to the task. Failures are
// recorded per tag and never abort the caller.
func (s *TaskService) linkTags(ctx context.Context, taskID uint64, tags []string, rec *stepRecorder) {
	for _, name := range tags {
		tag, err := s.tagRepo.Ensure(ctx, name)
		if err != nil {
			rec.softFail(StepLinkTag, name, fmt.Errorf("failed to resolve tag: %w", err))
			continue
		}
		if err := s.tagRepo.LinkTask(ctx, taskID, tag.ID); err != nil {
			rec.softFail(StepLinkTag, name, fmt.Errorf("failed to link tag: %w", err))
			continue
		}
		rec.succeed(StepLinkTag, name)
	}
}

// checkRecurrence validates an interval and its anchor. A recurring task
// needs an anchor that is not before today in UTC+8.
func (s *TaskService) checkRecurrence(interval int, anchor *time.Time) error {
	if !recurrence.ValidInterval(interval) {
		return ErrInvalidRecurrenceInterval
	}
	if interval == recurrence.None {
		return nil
	}
	if anchor == nil {
		return ErrRecurrenceDateRequired
	}

	now := s.now().In(utils.SGT)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, utils.SGT)
	if anchor.In(utils.SGT).Before(today) {
		return ErrRecurrenceDateInPast
	}
	return nil
}

func (s *TaskService) ensureUsersExist(ctx context.Context, userIDs []string) error {
	users, err := s.userRepo.FindByIDs(ctx, userIDs)
	if err != nil {
		return fmt.Errorf("failed to verify users: %w", err)
	}
	if len(users) != len(userIDs) {
		return ErrInvalidTaskAssignee
	}
	return nil
}

func (s *TaskService) updateField(ctx context.Context, taskID uint64, actorID, column string, value interface{}) (*models.Task, error) {
	if _, err := s.loadForWrite(ctx, taskID, actorID); err != nil {
		return nil, err
	}

	if err := s.taskRepo.UpdateFields(ctx, taskID, map[string]interface{}{column: value}); err != nil {
		return nil, s.wrapUpdateError(err)
	}

	return s.findTask(ctx, taskID, taskPreloads...)
}

// loadForWrite fetches the task and checks the creator-or-assignee rule
func (s *TaskService) loadForWrite(ctx context.Context, taskID uint64, actorID string, preload ...string) (*models.Task, error) {
	task, err := s.findTask(ctx, taskID, append([]string{"Assignments"}, preload...)...)
	if err != nil {
		return nil, err
	}
	if !canModify(task, actorID) {
		return nil, ErrTaskPermissionDenied
	}
	return task, nil
}

func (s *TaskService) findTask(ctx context.Context, taskID uint64, preload ...string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// reloadOr returns the fully preloaded task, or fallback if the reload fails
func (s *TaskService) reloadOr(ctx context.Context, fallback *models.Task) *models.Task {
	task, err := s.taskRepo.FindByID(ctx, fallback.ID, taskPreloads...)
	if err != nil {
		s.log.WithFields(logrus.Fields{"task_id": fallback.ID, "error": err.Error()}).Warn("Failed to reload task")
		return fallback
	}
	return task
}

func (s *TaskService) wrapUpdateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrTaskNotFound
	}
	return fmt.Errorf("failed to update task: %w", err)
}

// visibleProjectIDsOrEmpty degrades to no projects when the lookup fails, so
// listings still show the user's own tasks.
func (s *TaskService) visibleProjectIDsOrEmpty(ctx context.Context, userID string) []uint64 {
	ids, err := s.visibility.VisibleProjectIDs(ctx, userID)
	if err != nil {
		s.log.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Failed to resolve visible projects")
		return []uint64{}
	}
	return ids
}

// canModify is the creator-or-assignee rule
func canModify(task *models.Task, userID string) bool {
	return task.CreatorID == userID || task.IsAssignee(userID)
}

func normalizeTags(tags []string) []string {
	return uniqueStrings(trimAll(tags))
}

func trimAll(values []string) []string {
	trimmed := make([]string, len(values))
	for i, v := range values {
		trimmed[i] = strings.TrimSpace(v)
	}
	return trimmed
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func containsUint64(values []uint64, target uint64) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
