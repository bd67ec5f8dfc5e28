package handlers

import (
	"net/http"

	"campusboard/internal/services"

	"github.com/gin-gonic/gin"
)

// NicknameHandler 管理员维护昵称词干
type NicknameHandler struct {
	nicknames *services.NicknameService
}

func NewNicknameHandler(nicknames *services.NicknameService) *NicknameHandler {
	return &NicknameHandler{nicknames: nicknames}
}

type addNicknameRequest struct {
	Nickname string `json:"nickname" binding:"required,max=90"`
}

func (h *NicknameHandler) List(c *gin.Context) {
	templates, err := h.nicknames.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": templates})
}

func (h *NicknameHandler) Add(c *gin.Context) {
	var req addNicknameRequest
	if !bindJSON(c, &req) {
		return
	}
	tpl, err := h.nicknames.Add(c.Request.Context(), req.Nickname)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tpl)
}

func (h *NicknameHandler) Delete(c *gin.Context) {
	if err := h.nicknames.Delete(c.Request.Context(), c.Param("nickname")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "昵称已删除"})
}
