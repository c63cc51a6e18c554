package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/teamtask/internal/dto"
	apierrors "github.com/yukikurage/teamtask/internal/errors"
	"github.com/yukikurage/teamtask/internal/middleware"
	"github.com/yukikurage/teamtask/internal/models"
	"github.com/yukikurage/teamtask/internal/services"
	"github.com/yukikurage/teamtask/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
	log         logrus.FieldLogger
	now         func() time.Time
}

func NewTaskHandler(taskService *services.TaskService, log logrus.FieldLogger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		log:         log,
		now:         time.Now,
	}
}

type createTaskRequest struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Priority           int      `json:"priority"`
	Status             string   `json:"status"`
	Deadline           *string  `json:"deadline"`
	Notes              string   `json:"notes"`
	ProjectID          *uint64  `json:"project_id"`
	ParentTaskID       *uint64  `json:"parent_task_id"`
	RecurrenceInterval int      `json:"recurrence_interval"`
	RecurrenceDate     *string  `json:"recurrence_date"`
	AssigneeIDs        []string `json:"assignee_ids"`
	Tags               []string `json:"tags"`
}

// ListTasks returns tasks visible to the current user
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	input := services.ListTasksInput{
		UserID:          userID,
		AssignedToMe:    c.Query("assigned_to_me") == "true",
		IncludeArchived: c.Query("include_archived") == "true",
		SortByDeadline:  c.Query("sort") == "deadline",
		Page:            params.Page,
		PageSize:        params.Limit,
	}

	if raw := c.Query("project_id"); raw != "" {
		projectID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid project_id")
			return
		}
		input.ProjectID = &projectID
	}
	if raw := c.Query("parent_id"); raw != "" {
		parentID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid parent_id")
			return
		}
		input.ParentTaskID = &parentID
	}
	if raw := c.Query("status"); raw != "" {
		status := models.TaskStatus(raw)
		if !status.Valid() {
			apierrors.BadRequest(c, services.ErrInvalidStatus.Error())
			return
		}
		input.Status = &status
	}

	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), input)
	if err != nil {
		respondTaskError(c, h.log, err)
		return
	}

	names := h.taskService.DisplayNames(c.Request.Context(), tasks)
	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, names, h.now(), params, total))
}

// GetTask returns the task loaded by RequireTaskAccess
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, exists := middleware.GetTask(c)
	if !exists {
		apierrors.NotFound(c, "Task not found")
		return
	}

	h.respondTask(c, http.StatusOK, &task)
}

// CreateTask creates a task. The body is either JSON or multipart with a
// "payload" JSON field and any number of "files".
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req createTaskRequest
	var files []services.UploadFile
	if c.ContentType() == "multipart/form-data" {
		if err := json.Unmarshal([]byte(c.PostForm("payload")), &req); err != nil {
			apierrors.BadRequest(c, "Invalid payload field")
			return
		}
		uploads, closeAll, err := readUploads(c)
		if err != nil {
			apierrors.BadRequest(c, err.Error())
			return
		}
		defer closeAll()
		files = uploads
	} else if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	deadline, err := parseOptionalDate(req.Deadline)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	recurrenceDate, err := parseOptionalDate(req.RecurrenceDate)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	result, err := h.taskService.CreateTask(c.Request.Context(), services.CreateTaskInput{
		Title:              req.Title,
		Description:        req.Description,
		Priority:           req.Priority,
		Status:             models.TaskStatus(req.Status),
		Deadline:           deadline,
		Notes:              req.Notes,
		ProjectID:          req.ProjectID,
		ParentTaskID:       req.ParentTaskID,
		RecurrenceInterval: req.RecurrenceInterval,
		RecurrenceDate:     recurrenceDate,
		AssigneeIDs:        req.AssigneeIDs,
		Tags:               req.Tags,
		CreatorID:          userID,
		Files:              files,
	})
	if err != nil {
		respondTaskError(c, h.log, err)
		return
	}

	h.respondWrite(c, http.StatusCreated, result)
}

// GenerateDrafts turns free text into task drafts with AI
func (h *TaskHandler) GenerateDrafts(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Text is required")
		return
	}

	drafts, err := h.taskService.GenerateDrafts(c.Request.Context(), req.Text)
	if err != nil {
		respondTaskError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"drafts": drafts})
}

// UpdateTitle handles PATCH /tasks/:id/title
func (h *TaskHandler) UpdateTitle(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
	}
	h.patch(c, &req, func(taskID uint64, userID string) (*models.Task, error) {
		return h.taskService.UpdateTitle(c.Request.Context(), taskID, userID, req.Title)
	})
}

// UpdateDescription handles PATCH /tasks/:id/description
func (h *TaskHandler) UpdateDescription(c *gin.Context) {
	var req struct {
		Description string `json:"description"`
	}
	h.patch(c, &req, func(taskID uint64, userID string) (*models.Task, error) {
		return h.taskService.UpdateDescription(c.Request.Context(), taskID, userID, req.Description)
	})
}

// UpdatePriority handles PATCH /tasks/:id/priority
func (h *TaskHandler) UpdatePriority(c *gin.Context) {
	var req struct {
		Priority *int `json:"priority" binding:"required"`
	}
	h.patch(c, &req, func(taskID uint64, userID string) (*models.Task, error) {
		return h.taskService.UpdatePriority(c.Request.Context(), taskID, userID, *req.Priority)
	})
}

// UpdateNotes handles PATCH /tasks/:id/notes
func (h *TaskHandler) UpdateNotes(c *gin.Context) {
	var req struct {
		Notes string `json:"notes"`
	}
	h.patch(c, &req, func(taskID uint64, userID string) (*models.Task, error) {
		return h.taskService.UpdateNotes(c.Request.Context(), taskID, userID, req.Notes)
	})
}

// UpdateDeadline handles PATCH /tasks/:id/deadline; a null deadline clears it
func (h *TaskHandler) UpdateDeadline(c *gin.Context) {
	var req struct {
		Deadline *string `json:"deadline"`
	}
	h.patch(c, &req, func(taskID uint64, userID string) (*models.Task, error) {
		deadline, err := parseOptionalDate(req.Deadline)
		if err != nil {
			return nil, &services.ValidationError{Field: "deadline", Message: err.Error()}
		}
		return h.taskService.UpdateDeadline(c.Request.Context(), taskID, userID, deadline)
	})
}

// UpdateRecurrence handles PATCH /tasks/:id/recurrence
func (h *TaskHandler) UpdateRecurrence(c *gin.Context) {
	var req struct {
		RecurrenceInterval *int    `json:"recurrence_interval" binding:"required"`
		RecurrenceDate     *string `json:"recurrence_date"`
	}
	h.patch(c, &req, func(taskID uint64, userID string) (*models.Task, error) {
		anchor, err := parseOptionalDate(req.RecurrenceDate)
		if err != nil {
			return nil, &services.ValidationError{Field: "recurrence_date", Message: err.Error()}
		}
		return h.taskService.UpdateRecurrence(c.Request.Context(), taskID, userID, *req.RecurrenceInterval, anchor)
	})
}

// UpdateStatus handles PATCH /tasks/:id/status. Completing a recurring task
// also reports the spawned follow-up.
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	taskID, userID, ok := taskAndUser(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.taskService.UpdateStatus(c.Request.Context(), taskID, userID, models.TaskStatus(req.Status))
	if err != nil {
		respondTaskError(c, h.log, err)
		return
	}

	h.respondWrite(c, http.StatusOK, result)
}

// ArchiveTask handles POST /tasks/:id/archive
func (h *TaskHandler) ArchiveTask(c *gin.Context) {
	var req struct {
		Archived *bool `json:"archived"`
	}
	h.patch(c, &req, func(taskID uint64, userID string) (*models.Task, error) {
		archived := true
		if req.Archived != nil {
			archived = *req.Archived
		}
		return h.taskService.ArchiveTask(c.Request.Context(), taskID, userID, archived)
	})
}

// AddLoggedTime handles POST /tasks/:id/time
func (h *TaskHandler) AddLoggedTime(c *gin.Context) {
	var req struct {
		Seconds int64 `json:"seconds" binding:"required"`
	}
	h.patch(c, &req, func(taskID uint64, userID string) (*models.Task, error) {
		return h.taskService.AddLoggedTime(c.Request.Context(), taskID, userID, req.Seconds)
	})
}

// AssignUsers handles POST /tasks/:id/assignees
func (h *TaskHandler) AssignUsers(c *gin.Context) {
	taskID, userID, ok := taskAndUser(c)
	if !ok {
		return
	}

	var req struct {
		UserIDs []string `json:"user_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.taskService.AssignUsers(c.Request.Context(), taskID, userID, req.UserIDs)
	if err != nil {
		respondTaskError(c, h.log, err)
		return
	}

	h.respondWrite(c, http.StatusOK, result)
}

// RemoveAssignee handles DELETE /tasks/:id/assignees/:user_id
func (h *TaskHandler) RemoveAssignee(c *gin.Context) {
	taskID, userID, ok := taskAndUser(c)
	if !ok {
		return
	}

	task, err := h.taskService.RemoveAssignee(c.Request.Context(), taskID, userID, c.Param("user_id"))
	if err != nil {
		respondTaskError(c, h.log, err)
		return
	}

	h.respondTask(c, http.StatusOK, task)
}

// patch binds the JSON body into req and runs a single-field update
func (h *TaskHandler) patch(c *gin.Context, req interface{}, update func(taskID uint64, userID string) (*models.Task, error)) {
	taskID, userID, ok := taskAndUser(c)
	if !ok {
		return
	}

	if err := c.ShouldBindJSON(req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := update(taskID, userID)
	if err != nil {
		respondTaskError(c, h.log, err)
		return
	}

	h.respondTask(c, http.StatusOK, task)
}

func (h *TaskHandler) respondTask(c *gin.Context, status int, task *models.Task) {
	names := h.taskService.DisplayNames(c.Request.Context(), []models.Task{*task})
	c.JSON(status, dto.ToTaskView(*task, names, h.now()))
}

func (h *TaskHandler) respondWrite(c *gin.Context, status int, result *services.WriteResult) {
	names := h.taskService.DisplayNames(c.Request.Context(), []models.Task{*result.Task})
	c.JSON(status, dto.ToTaskWriteResponse(result, names, h.now()))
}

// currentUser reads the session user or responds 401
func currentUser(c *gin.Context) (string, bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return "", false
	}
	return userID, true
}

// taskAndUser parses :id and reads the session user, responding on failure
func taskAndUser(c *gin.Context) (uint64, string, bool) {
	userID, ok := currentUser(c)
	if !ok {
		return 0, "", false
	}

	taskID, ok := parseIDParam(c, "id", "Invalid task ID")
	if !ok {
		return 0, "", false
	}
	return taskID, userID, true
}

func parseIDParam(c *gin.Context, name, message string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, message)
		return 0, false
	}
	return id, true
}

func parseOptionalDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := utils.ParseDeadline(*value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func respondTaskError(c *gin.Context, log logrus.FieldLogger, err error) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		apierrors.ValidationFailed(c, validationErr.Field, validationErr.Message)
	case errors.Is(err, services.ErrTooManyAssignees),
		errors.Is(err, services.ErrLastAssignee),
		errors.Is(err, services.ErrNoUserIDsProvided),
		errors.Is(err, services.ErrInvalidTaskAssignee),
		errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrTitleTooLong),
		errors.Is(err, services.ErrNotesTooLong),
		errors.Is(err, services.ErrInvalidPriority),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidRecurrenceInterval),
		errors.Is(err, services.ErrRecurrenceDateRequired),
		errors.Is(err, services.ErrRecurrenceDateInPast),
		errors.Is(err, services.ErrNestedSubtask),
		errors.Is(err, services.ErrInvalidLoggedTime),
		errors.Is(err, services.ErrInvalidReportRange),
		errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrTaskPermissionDenied),
		errors.Is(err, services.ErrNotTaskCreator),
		errors.Is(err, services.ErrOnlyManagersCanRemoveAssignees),
		errors.Is(err, services.ErrNotCommentAuthor),
		errors.Is(err, services.ErrOnlyAdminsCanDeleteComments):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrTaskAccessDenied):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrAssigneeNotFound),
		errors.Is(err, services.ErrParentTaskNotFound),
		errors.Is(err, services.ErrProjectNotVisible),
		errors.Is(err, services.ErrCommentNotFound),
		errors.Is(err, services.ErrAttachmentNotFound),
		errors.Is(err, services.ErrNotificationNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())
	default:
		log.WithField("error", err.Error()).Error("Request failed")
		apierrors.UpstreamError(c, err)
	}
}

func closeQuietly(closers []func() error) func() {
	return func() {
		for _, closeFn := range closers {
			_ = closeFn()
		}
	}
}

// readUploads opens every "files" part of a multipart request. The returned
// func closes them.
func readUploads(c *gin.Context) ([]services.UploadFile, func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, func() {}, fmt.Errorf("invalid multipart form: %w", err)
	}

	headers := form.File["files"]
	uploads := make([]services.UploadFile, 0, len(headers))
	closers := make([]func() error, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			closeQuietly(closers)()
			return nil, func() {}, fmt.Errorf("failed to read %s: %w", header.Filename, err)
		}
		closers = append(closers, file.Close)
		uploads = append(uploads, services.UploadFile{
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Content:     file,
		})
	}
	return uploads, closeQuietly(closers), nil
}
