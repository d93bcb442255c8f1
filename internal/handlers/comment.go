package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/ticket-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/ticket-tracker-api/internal/errors"
	"github.com/yukikurage/ticket-tracker-api/internal/services"
)

type CommentHandler struct {
	commentService *services.CommentService
}

func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// AddComment posts a comment on a ticket
func (h *CommentHandler) AddComment(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	ticketID, ok := idParam(c, "id")
	if !ok {
		return
	}

	type AddCommentRequest struct {
		Content string `json:"content" binding:"required"`
	}

	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	comment, err := h.commentService.AddComment(c.Request.Context(), ticketID, req.Content, principal.Username)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCommentDTO(*comment))
}

// ListComments returns the comments of a ticket
func (h *CommentHandler) ListComments(c *gin.Context) {
	ticketID, ok := idParam(c, "id")
	if !ok {
		return
	}

	comments, err := h.commentService.ListComments(c.Request.Context(), ticketID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": dto.ToCommentDTOs(comments),
	})
}
