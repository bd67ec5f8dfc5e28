package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"campusboard/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestIDGenerated(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	w := serve(r, "", "")
	id := w.Header().Get(RequestIDHeader)
	assert.Equal(t, id, w.Body.String())
	_, err := uuid.FromString(id)
	assert.NoError(t, err)

	w = serve(r, RequestIDHeader, "abc-123")
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func withUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			c.Set(CheckUserKey, user)
		}
		c.Next()
	}
}

func TestAuthRequiredAndAdminRequired(t *testing.T) {
	cases := []struct {
		name      string
		user      *models.User
		authCode  int
		adminCode int
	}{
		{"anonymous", nil, http.StatusUnauthorized, http.StatusUnauthorized},
		{"user", &models.User{ID: 1, RegisterType: models.UserTypeUser}, http.StatusOK, http.StatusForbidden},
		{"admin", &models.User{ID: 2, RegisterType: models.UserTypeAdmin}, http.StatusOK, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(withUser(tc.user))
			ok := func(c *gin.Context) { c.Status(http.StatusOK) }
			r.GET("/auth", AuthRequired(), ok)
			r.GET("/admin", AuthRequired(), AdminRequired(), ok)

			for path, want := range map[string]int{"/auth": tc.authCode, "/admin": tc.adminCode} {
				req := httptest.NewRequest(http.MethodGet, path, nil)
				w := httptest.NewRecorder()
				r.ServeHTTP(w, req)
				assert.Equal(t, want, w.Code, path)
			}
		})
	}
}
