package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/teamtask/internal/constants"
	"github.com/yukikurage/teamtask/internal/repository"
	"github.com/yukikurage/teamtask/internal/services"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
	log                 logrus.FieldLogger
}

func NewNotificationHandler(notificationService *services.NotificationService, log logrus.FieldLogger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		log:                 log,
	}
}

// ListNotifications handles GET /notifications?unread=true&archived=true
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	notifications, err := h.notificationService.List(c.Request.Context(), userID, repository.NotificationFilter{
		UnreadOnly:      c.Query("unread") == "true",
		IncludeArchived: c.Query("archived") == "true",
		Limit:           constants.MaxPageSize,
	})
	if err != nil {
		respondTaskError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// MarkRead handles POST /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	h.update(c, h.notificationService.MarkRead)
}

// Archive handles POST /notifications/:id/archive
func (h *NotificationHandler) Archive(c *gin.Context) {
	h.update(c, h.notificationService.Archive)
}

func (h *NotificationHandler) update(c *gin.Context, apply func(ctx context.Context, id uint64, userID string) error) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "Invalid notification ID")
	if !ok {
		return
	}

	if err := apply(c.Request.Context(), id, userID); err != nil {
		respondTaskError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification updated"})
}
