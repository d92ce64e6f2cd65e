package handler

import (
	"Murmur/internal/api/dto"
	"Murmur/internal/pkg/response"
	"Murmur/internal/service"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	commentSvc service.CommentService
}

func NewCommentHandler(commentSvc service.CommentService) *CommentHandler {
	return &CommentHandler{commentSvc: commentSvc}
}

func (h *CommentHandler) GetComments(c *gin.Context) {
	postID, ok := paramID(c, "post_id")
	if !ok {
		return
	}
	tree, err := h.commentSvc.List(c.Request.Context(), postID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tree)
}

func (h *CommentHandler) GetCommentCount(c *gin.Context) {
	postID, ok := paramID(c, "post_id")
	if !ok {
		return
	}
	count, err := h.commentSvc.Count(c.Request.Context(), postID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, map[string]int64{"count": count})
}

func (h *CommentHandler) CreateComment(c *gin.Context) {
	postID, ok := paramID(c, "post_id")
	if !ok {
		return
	}
	var req dto.CreateCommentDTO
	if !bindJSON(c, &req) {
		return
	}
	comment, err := h.commentSvc.Create(c.Request.Context(), postID, req.ParentID, req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, comment)
}

func (h *CommentHandler) UpdateComment(c *gin.Context) {
	id, ok := paramID(c, "comment_id")
	if !ok {
		return
	}
	var req dto.UpdateCommentDTO
	if !bindJSON(c, &req) {
		return
	}
	if err := h.commentSvc.Update(c.Request.Context(), id, req.Content); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *CommentHandler) DeleteComment(c *gin.Context) {
	id, ok := paramID(c, "comment_id")
	if !ok {
		return
	}
	if err := h.commentSvc.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
