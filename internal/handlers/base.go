package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"reflect"
	"strings"

	"campusboard/internal/middleware"
	"campusboard/internal/services"
	"campusboard/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	// 校验错误里使用 json 字段名
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// statusOf 业务错误 -> HTTP 状态码
func statusOf(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrDeleted):
		return http.StatusGone
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrAlreadyReacted),
		errors.Is(err, services.ErrNotReacted),
		errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrNicknameExhausted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError 统一错误输出 {"error": "..."}，未知错误不暴露细节
func respondError(c *gin.Context, err error) {
	respondErrorWith(c, err, nil)
}

func respondErrorWith(c *gin.Context, err error, extra gin.H) {
	code := statusOf(err)
	msg := err.Error()
	switch code {
	case http.StatusServiceUnavailable:
		c.Header("Retry-After", "1")
	case http.StatusInternalServerError:
		log.Printf("[error] %s %s request_id=%s: %v", c.Request.Method, c.Request.URL.Path, c.GetString(middleware.RequestIDKey), err)
		msg = "服务器内部错误"
	}

	body := gin.H{"error": msg}
	for k, v := range extra {
		body[k] = v
	}
	c.AbortWithStatusJSON(code, body)
}

// bindingMessage 把 validator 错误转成可读提示
func bindingMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "请求格式错误"
	}
	fe := ve[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " 为必填项"
	case "email":
		return fe.Field() + " 格式不正确"
	case "max":
		return fmt.Sprintf("%s 不能超过 %s 个字符", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s 不能少于 %s 个字符", fe.Field(), fe.Param())
	default:
		return fe.Field() + " 不合法"
	}
}

// bindJSON 解析请求体，失败时已写好 400 响应
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
		return false
	}
	return true
}

// pathID 解析路径参数中的 id，非法 id 按不存在处理
func pathID(c *gin.Context, name string) (uint, bool) {
	id, ok := utils.StringToUint(c.Param(name))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": services.ErrNotFound.Error()})
	}
	return id, ok
}

func queryUint(c *gin.Context, name string) uint {
	id, _ := utils.StringToUint(c.Query(name))
	return id
}

func pageParams(c *gin.Context) (int, int) {
	return utils.NormalizePage(utils.StringToInt(c.Query("page")), utils.StringToInt(c.Query("per_page")))
}
