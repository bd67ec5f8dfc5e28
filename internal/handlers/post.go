package handlers

import (
	"errors"
	"net/http"

	"campusboard/internal/middleware"
	"campusboard/internal/services"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	posts *services.PostService
}

func NewPostHandler(posts *services.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

type createPostRequest struct {
	Title    string `json:"title" binding:"required,max=200"`
	Content  string `json:"content" binding:"required"`
	Category string `json:"category" binding:"max=50"`
}

type updatePostRequest struct {
	Title    *string `json:"title" binding:"omitempty,max=200"`
	Content  *string `json:"content"`
	Category *string `json:"category" binding:"omitempty,max=50"`
}

// List 帖子列表，默认当前用户所在学校
func (h *PostHandler) List(c *gin.Context) {
	page, perPage := pageParams(c)
	list, err := h.posts.ListPosts(c.Request.Context(), middleware.CurrentUser(c), services.PostFilter{
		SchoolID:     queryUint(c, "school_id"),
		CollegeID:    queryUint(c, "college_id"),
		DepartmentID: queryUint(c, "department_id"),
		Category:     c.Query("category"),
		Search:       c.Query("search"),
		Page:         page,
		PerPage:      perPage,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Detail 帖子详情，会记录浏览；已删除返回 410 和占位信息
func (h *PostHandler) Detail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	viewer := middleware.CurrentUser(c)
	post, err := h.posts.GetPost(c.Request.Context(), id, viewer, c.ClientIP())
	if errors.Is(err, services.ErrDeleted) {
		ts, tsErr := h.posts.Tombstone(c.Request.Context(), id, viewer)
		if tsErr != nil {
			respondError(c, tsErr)
			return
		}
		respondErrorWith(c, err, gin.H{"post": ts})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) Create(c *gin.Context) {
	var req createPostRequest
	if !bindJSON(c, &req) {
		return
	}
	post, err := h.posts.CreatePost(c.Request.Context(), middleware.CurrentUser(c), services.PostInput{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updatePostRequest
	if !bindJSON(c, &req) {
		return
	}
	post, err := h.posts.UpdatePost(c.Request.Context(), middleware.CurrentUser(c), id, services.PostPatch{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.posts.DeletePost(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "帖子已删除"})
}
