package handlers

import (
	"github.com/gin-gonic/gin"
)

// Handlers groups every HTTP handler the API serves.
type Handlers struct {
	Auth          *AuthHandler
	Tasks         *TaskHandler
	Comments      *CommentHandler
	Attachments   *AttachmentHandler
	Notifications *NotificationHandler
	Directory     *DirectoryHandler
	Reports       *ReportHandler
}

// RegisterRoutes mounts the /api tree. requireAuth guards every route but
// session creation and logout; taskAccess guards single-task reads.
func RegisterRoutes(r gin.IRouter, h Handlers, requireAuth, taskAccess gin.HandlerFunc) {
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/session", h.Auth.CreateSession)
			auth.POST("/logout", h.Auth.Logout)
			auth.GET("/me", requireAuth, h.Auth.GetCurrentUser)
		}

		// Directory routes (protected)
		api.GET("/departments", requireAuth, h.Directory.ListDepartments)
		api.GET("/projects", requireAuth, h.Directory.ListProjects)
		api.GET("/users/colleagues", requireAuth, h.Directory.ListColleagues)

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", h.Tasks.ListTasks)
			tasks.POST("", h.Tasks.CreateTask)
			tasks.POST("/drafts", h.Tasks.GenerateDrafts)
			tasks.GET("/:id", taskAccess, h.Tasks.GetTask)
			tasks.PATCH("/:id/title", h.Tasks.UpdateTitle)
			tasks.PATCH("/:id/description", h.Tasks.UpdateDescription)
			tasks.PATCH("/:id/status", h.Tasks.UpdateStatus)
			tasks.PATCH("/:id/priority", h.Tasks.UpdatePriority)
			tasks.PATCH("/:id/deadline", h.Tasks.UpdateDeadline)
			tasks.PATCH("/:id/notes", h.Tasks.UpdateNotes)
			tasks.PATCH("/:id/recurrence", h.Tasks.UpdateRecurrence)
			tasks.POST("/:id/archive", h.Tasks.ArchiveTask)
			tasks.POST("/:id/time", h.Tasks.AddLoggedTime)
			tasks.POST("/:id/assignees", h.Tasks.AssignUsers)
			tasks.DELETE("/:id/assignees/:user_id", h.Tasks.RemoveAssignee)

			tasks.GET("/:id/comments", h.Comments.ListComments)
			tasks.POST("/:id/comments", h.Comments.AddComment)
			tasks.PATCH("/:id/comments/:comment_id", h.Comments.EditComment)
			tasks.DELETE("/:id/comments/:comment_id", h.Comments.DeleteComment)

			tasks.GET("/:id/attachments", h.Attachments.ListAttachments)
			tasks.POST("/:id/attachments", h.Attachments.UploadAttachments)
			tasks.DELETE("/:id/attachments/:attachment_id", h.Attachments.DeleteAttachment)
		}

		// Notification routes (protected)
		notifications := api.Group("/notifications")
		notifications.Use(requireAuth)
		{
			notifications.GET("", h.Notifications.ListNotifications)
			notifications.POST("/:id/read", h.Notifications.MarkRead)
			notifications.POST("/:id/archive", h.Notifications.Archive)
		}

		// Report routes (protected)
		reports := api.Group("/reports")
		reports.Use(requireAuth)
		{
			reports.GET("/summary", h.Reports.Summary)
			reports.GET("/team", h.Reports.Team)
		}
		api.GET("/calendar.ics", requireAuth, h.Reports.Calendar)
	}
}
