package handlers

import (
	"net/http"

	"campusboard/internal/middleware"
	"campusboard/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

func (h *UserHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, h.users.Me(middleware.CurrentUser(c)))
}

// DeleteMe 注销账号（软删除）
func (h *UserHandler) DeleteMe(c *gin.Context) {
	if err := h.users.DeleteAccount(c.Request.Context(), middleware.CurrentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "账号已注销"})
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	err := h.users.ChangePassword(c.Request.Context(), middleware.CurrentUser(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "密码已修改"})
}

func (h *UserHandler) MyPosts(c *gin.Context) {
	page, perPage := pageParams(c)
	list, err := h.users.MyPosts(c.Request.Context(), middleware.CurrentUser(c), page, perPage)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *UserHandler) MyComments(c *gin.Context) {
	page, perPage := pageParams(c)
	list, err := h.users.MyComments(c.Request.Context(), middleware.CurrentUser(c), page, perPage)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
