package handlers

import (
	"net/http"

	"campusboard/internal/middleware"
	"campusboard/internal/services"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

type createCommentRequest struct {
	Content  string `json:"content" binding:"required"`
	ParentID *uint  `json:"parent_id"`
}

type updateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// commentIDs 解析 :id 和 :cid
func commentIDs(c *gin.Context) (uint, uint, bool) {
	postID, ok := pathID(c, "id")
	if !ok {
		return 0, 0, false
	}
	commentID, ok := pathID(c, "cid")
	if !ok {
		return 0, 0, false
	}
	return postID, commentID, true
}

func (h *CommentHandler) List(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, perPage := pageParams(c)
	list, err := h.comments.ListComments(c.Request.Context(), postID, page, perPage)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CommentHandler) Create(c *gin.Context) {
	postID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req createCommentRequest
	if !bindJSON(c, &req) {
		return
	}
	comment, err := h.comments.CreateComment(c.Request.Context(), middleware.CurrentUser(c), postID, services.CommentInput{
		Content:  req.Content,
		ParentID: req.ParentID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *CommentHandler) Detail(c *gin.Context) {
	postID, commentID, ok := commentIDs(c)
	if !ok {
		return
	}
	comment, err := h.comments.GetComment(c.Request.Context(), postID, commentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// Replies 顶层评论下的回复
func (h *CommentHandler) Replies(c *gin.Context) {
	postID, commentID, ok := commentIDs(c)
	if !ok {
		return
	}
	page, perPage := pageParams(c)
	list, err := h.comments.ListReplies(c.Request.Context(), postID, commentID, page, perPage)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CommentHandler) Update(c *gin.Context) {
	postID, commentID, ok := commentIDs(c)
	if !ok {
		return
	}
	var req updateCommentRequest
	if !bindJSON(c, &req) {
		return
	}
	comment, err := h.comments.UpdateComment(c.Request.Context(), middleware.CurrentUser(c), postID, commentID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	postID, commentID, ok := commentIDs(c)
	if !ok {
		return
	}
	if err := h.comments.DeleteComment(c.Request.Context(), middleware.CurrentUser(c), postID, commentID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "评论已删除"})
}
