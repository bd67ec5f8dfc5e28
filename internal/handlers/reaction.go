package handlers

import (
	"context"
	"net/http"

	"campusboard/internal/middleware"
	"campusboard/internal/models"
	"campusboard/internal/services"

	"github.com/gin-gonic/gin"
)

type ReactionHandler struct {
	reactions *services.ReactionService
}

func NewReactionHandler(reactions *services.ReactionService) *ReactionHandler {
	return &ReactionHandler{reactions: reactions}
}

type reactFunc func(ctx context.Context, user *models.User, postID uint) (*services.PostView, error)

// handle 执行表态操作并返回最新的统计
func (h *ReactionHandler) handle(fn reactFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		post, err := fn(c.Request.Context(), middleware.CurrentUser(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, post)
	}
}

func (h *ReactionHandler) Like() gin.HandlerFunc {
	return h.handle(h.reactions.Like)
}

func (h *ReactionHandler) Dislike() gin.HandlerFunc {
	return h.handle(h.reactions.Dislike)
}

func (h *ReactionHandler) Unlike() gin.HandlerFunc {
	return h.handle(h.reactions.Unlike)
}

func (h *ReactionHandler) Undislike() gin.HandlerFunc {
	return h.handle(h.reactions.Undislike)
}
