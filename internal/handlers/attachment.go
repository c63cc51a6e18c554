package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/teamtask/internal/dto"
	apierrors "github.com/yukikurage/teamtask/internal/errors"
	"github.com/yukikurage/teamtask/internal/models"
	"github.com/yukikurage/teamtask/internal/services"
)

type AttachmentHandler struct {
	taskService       *services.TaskService
	attachmentService *services.AttachmentService
	log               logrus.FieldLogger
}

func NewAttachmentHandler(taskService *services.TaskService, attachmentService *services.AttachmentService, log logrus.FieldLogger) *AttachmentHandler {
	return &AttachmentHandler{
		taskService:       taskService,
		attachmentService: attachmentService,
		log:               log,
	}
}

// ListAttachments handles GET /tasks/:id/attachments
func (h *AttachmentHandler) ListAttachments(c *gin.Context) {
	taskID, userID, ok := taskAndUser(c)
	if !ok {
		return
	}

	attachments, err := h.taskService.ListAttachments(c.Request.Context(), taskID, userID)
	if err != nil {
		respondTaskError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"attachments": h.toDTOs(attachments)})
}

// UploadAttachments handles POST /tasks/:id/attachments (multipart "files")
func (h *AttachmentHandler) UploadAttachments(c *gin.Context) {
	taskID, userID, ok := taskAndUser(c)
	if !ok {
		return
	}

	files, closeAll, err := readUploads(c)
	if err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}
	defer closeAll()
	if len(files) == 0 {
		apierrors.BadRequest(c, "At least one file is required")
		return
	}

	created, steps, err := h.taskService.AddAttachments(c.Request.Context(), taskID, userID, files)
	if err != nil {
		respondTaskError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"attachments": h.toDTOs(created),
		"steps":       steps,
	})
}

// DeleteAttachment handles DELETE /tasks/:id/attachments/:attachment_id
func (h *AttachmentHandler) DeleteAttachment(c *gin.Context) {
	taskID, userID, ok := taskAndUser(c)
	if !ok {
		return
	}
	attachmentID, ok := parseIDParam(c, "attachment_id", "Invalid attachment ID")
	if !ok {
		return
	}

	steps, err := h.taskService.DeleteAttachment(c.Request.Context(), taskID, attachmentID, userID)
	if err != nil {
		respondTaskError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Attachment deleted successfully",
		"steps":   steps,
	})
}

func (h *AttachmentHandler) toDTOs(attachments []models.TaskAttachment) []dto.AttachmentDTO {
	dtos := make([]dto.AttachmentDTO, len(attachments))
	for i, a := range attachments {
		dtos[i] = dto.ToAttachmentDTO(a, h.attachmentService.PublicURL(a))
	}
	return dtos
}
