package handlers

import (
	"errors"
	"net/http"
	"testing"

	"campusboard/internal/services"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	cases := map[error]int{
		services.ErrNotFound:             http.StatusNotFound,
		services.ErrDeleted:              http.StatusGone,
		services.ErrForbidden:            http.StatusForbidden,
		services.ErrForbiddenCrossSchool: http.StatusForbidden,
		services.ErrAlreadyReacted:       http.StatusBadRequest,
		services.ErrNotReacted:           http.StatusBadRequest,
		services.ErrValidation:           http.StatusBadRequest,
		services.ErrConflict:             http.StatusConflict,
		services.ErrUnauthorized:         http.StatusUnauthorized,
		services.ErrNicknameExhausted:    http.StatusServiceUnavailable,
		errors.New("boom"):               http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, statusOf(err), err.Error())
	}
}

func TestBindingMessage(t *testing.T) {
	type req struct {
		Title string `json:"title" binding:"required,max=3"`
	}
	assert.Equal(t, "title 为必填项", bindingMessage(binding.Validator.ValidateStruct(req{})))
	assert.Equal(t, "title 不能超过 3 个字符", bindingMessage(binding.Validator.ValidateStruct(req{Title: "abcd"})))
	assert.Equal(t, "请求格式错误", bindingMessage(errors.New("unexpected EOF")))
}
