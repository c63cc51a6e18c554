package middleware

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/teamtask/internal/constants"
	apierrors "github.com/yukikurage/teamtask/internal/errors"
	"github.com/yukikurage/teamtask/internal/models"
	"github.com/yukikurage/teamtask/internal/services"
)

// RequireTaskAccess loads the task named by the :id parameter and checks the
// user may view it: creator, assignee, or member of a department linked to
// the task's project. The loaded task is stored under constants.ContextKeyTask.
func RequireTaskAccess(taskService *services.TaskService, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid task ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		task, err := taskService.GetTask(c.Request.Context(), taskID, userID)
		switch {
		case err == nil:
		case errors.Is(err, services.ErrTaskNotFound), errors.Is(err, services.ErrTaskAccessDenied):
			// Return 404 instead of 403 to avoid leaking task existence
			apierrors.NotFound(c, "Task not found")
			c.Abort()
			return
		default:
			log.WithFields(logrus.Fields{"task_id": taskID, "error": err.Error()}).Error("Failed to load task")
			apierrors.UpstreamError(c, err)
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTask, *task)
		c.Next()
	}
}

// GetTask retrieves the task stored by RequireTaskAccess
func GetTask(c *gin.Context) (models.Task, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return models.Task{}, false
	}
	task, ok := value.(models.Task)
	return task, ok
}
