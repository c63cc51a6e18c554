package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/teamtask/internal/dto"
	apierrors "github.com/yukikurage/teamtask/internal/errors"
	"github.com/yukikurage/teamtask/internal/services"
)

type CommentHandler struct {
	commentService *services.CommentService
	log            logrus.FieldLogger
}

func NewCommentHandler(commentService *services.CommentService, log logrus.FieldLogger) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		log:            log,
	}
}

// ListComments handles GET /tasks/:id/comments
func (h *CommentHandler) ListComments(c *gin.Context) {
	taskID, userID, ok := taskAndUser(c)
	if !ok {
		return
	}

	comments, err := h.commentService.ListComments(c.Request.Context(), taskID, userID)
	if err != nil {
		respondTaskError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": dto.ToCommentDTOs(comments)})
}

// AddComment handles POST /tasks/:id/comments
func (h *CommentHandler) AddComment(c *gin.Context) {
	taskID, userID, ok := taskAndUser(c)
	if !ok {
		return
	}

	var req services.CommentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	comment, steps, err := h.commentService.AddComment(c.Request.Context(), taskID, userID, req)
	if err != nil {
		respondTaskError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"comment": dto.ToCommentDTO(*comment),
		"steps":   steps,
	})
}

// EditComment handles PATCH /tasks/:id/comments/:comment_id
func (h *CommentHandler) EditComment(c *gin.Context) {
	taskID, userID, ok := taskAndUser(c)
	if !ok {
		return
	}
	commentID, ok := parseIDParam(c, "comment_id", "Invalid comment ID")
	if !ok {
		return
	}

	var req services.CommentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	comment, err := h.commentService.EditComment(c.Request.Context(), taskID, commentID, userID, req)
	if err != nil {
		respondTaskError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCommentDTO(*comment))
}

// DeleteComment handles DELETE /tasks/:id/comments/:comment_id
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	taskID, userID, ok := taskAndUser(c)
	if !ok {
		return
	}
	commentID, ok := parseIDParam(c, "comment_id", "Invalid comment ID")
	if !ok {
		return
	}

	if err := h.commentService.DeleteComment(c.Request.Context(), taskID, commentID, userID); err != nil {
		respondTaskError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}
