package handlers

import (
	"net/http"

	"campusboard/internal/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type registerRequest struct {
	Email        string `json:"email" binding:"required,email,max=120"`
	Password     string `json:"password" binding:"required"`
	Name         string `json:"name" binding:"required,max=100"`
	CountryID    uint   `json:"country_id" binding:"required"`
	SchoolID     uint   `json:"school_id" binding:"required"`
	CollegeID    uint   `json:"college_id" binding:"required"`
	DepartmentID uint   `json:"department_id" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func tokenResponse(token string) gin.H {
	return gin.H{"access_token": token, "token_type": services.TokenType}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	token, err := h.auth.Register(c.Request.Context(), services.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		Name:         req.Name,
		CountryID:    req.CountryID,
		SchoolID:     req.SchoolID,
		CollegeID:    req.CollegeID,
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tokenResponse(token))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse(token))
}
