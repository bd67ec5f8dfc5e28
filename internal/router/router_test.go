package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"campusboard/internal/config"
	"campusboard/internal/db"
	"campusboard/internal/middleware"
	"campusboard/internal/models"
	"campusboard/internal/nickname"
	"campusboard/internal/services"
	"campusboard/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type constSource int

func (s constSource) Intn(n int) int { return int(s) % n }

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	engine *gin.Engine

	country    models.Country
	school     models.School
	college    models.College
	department models.Department
	other      models.School
	otherCol   models.College
	otherDept  models.Department
}

func newTestServer(t *testing.T, src nickname.Source, maxAttempts int, templates ...string) *testServer {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))

	for _, name := range templates {
		require.NoError(t, gdb.Create(&models.NicknameTemplate{Nickname: name}).Error)
	}

	s := &testServer{t: t, db: gdb}
	s.country = models.Country{Name: "Korea", Code: "KR"}
	require.NoError(t, gdb.Create(&s.country).Error)
	s.school = models.School{Name: "Hanbit University", CountryID: s.country.ID}
	s.other = models.School{Name: "Daehan University", CountryID: s.country.ID}
	require.NoError(t, gdb.Create(&s.school).Error)
	require.NoError(t, gdb.Create(&s.other).Error)
	s.college = models.College{Name: "Engineering", SchoolID: s.school.ID}
	s.otherCol = models.College{Name: "Arts", SchoolID: s.other.ID}
	require.NoError(t, gdb.Create(&s.college).Error)
	require.NoError(t, gdb.Create(&s.otherCol).Error)
	s.department = models.Department{Name: "Computer Science", CollegeID: s.college.ID}
	s.otherDept = models.Department{Name: "Painting", CollegeID: s.otherCol.ID}
	require.NoError(t, gdb.Create(&s.department).Error)
	require.NoError(t, gdb.Create(&s.otherDept).Error)

	cfg := &config.Config{SecretKey: "test-secret", TokenTTL: time.Hour, NicknameMaxAttempts: maxAttempts}
	s.engine = gin.New()
	s.engine.Use(middleware.RequestID())
	RegisterRoutes(s.engine, services.New(gdb, cfg, utils.NewCache(100), src))
	return s
}

func newDefaultServer(t *testing.T) *testServer {
	return newTestServer(t, nickname.NewSource(1), 100, "Fox", "Wolf", "Owl")
}

type response struct {
	Code   int
	Header http.Header
	Body   map[string]interface{}
}

func (s *testServer) do(method, path, token string, body interface{}) response {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	out := response{Code: w.Code, Header: w.Header()}
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &out.Body), w.Body.String())
	}
	return out
}

// register 注册并返回令牌；otherSchool 为 true 时注册到外校
func (s *testServer) register(email string, otherSchool bool) string {
	s.t.Helper()
	school, college, dept := s.school, s.college, s.department
	if otherSchool {
		school, college, dept = s.other, s.otherCol, s.otherDept
	}
	res := s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email":         email,
		"password":      "Secret1!",
		"name":          "Kim",
		"country_id":    s.country.ID,
		"school_id":     school.ID,
		"college_id":    college.ID,
		"department_id": dept.ID,
	})
	require.Equal(s.t, http.StatusCreated, res.Code, res.Body)
	assert.Equal(s.t, "bearer", res.Body["token_type"])
	return res.Body["access_token"].(string)
}

func (s *testServer) createPost(token, title string) map[string]interface{} {
	s.t.Helper()
	res := s.do(http.MethodPost, "/api/v1/posts", token, gin.H{"title": title, "content": "body", "category": "free"})
	require.Equal(s.t, http.StatusCreated, res.Code, res.Body)
	return res.Body
}

func postPath(post map[string]interface{}, suffix string) string {
	return fmt.Sprintf("/api/v1/posts/%d%s", uint(post["id"].(float64)), suffix)
}

func TestHealthz(t *testing.T) {
	s := newDefaultServer(t)
	res := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "ok", res.Body["status"])
	assert.NotEmpty(t, res.Header.Get(middleware.RequestIDHeader))
}

func TestRegisterAndLogin(t *testing.T) {
	s := newDefaultServer(t)
	s.register("kim@example.com", false)

	res := s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "email 为必填项", res.Body["error"])

	res = s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email": "kim@example.com", "password": "Secret1!", "name": "Kim",
		"country_id": s.country.ID, "school_id": s.school.ID, "college_id": s.college.ID, "department_id": s.department.ID,
	})
	assert.Equal(t, http.StatusConflict, res.Code)

	res = s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email": "lee@example.com", "password": "Secret1!", "name": "Lee",
		"country_id": s.country.ID, "school_id": s.school.ID, "college_id": s.otherCol.ID, "department_id": s.otherDept.ID,
	})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "kim@example.com", "password": "Secret1!"})
	require.Equal(t, http.StatusOK, res.Code)
	token := res.Body["access_token"].(string)

	res = s.do(http.MethodGet, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "kim@example.com", res.Body["email"])

	res = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "kim@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestAuthGuards(t *testing.T) {
	s := newDefaultServer(t)

	res := s.do(http.MethodPost, "/api/v1/posts", "", gin.H{"title": "t", "content": "c"})
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	// 公共接口上的无效令牌同样拒绝
	res = s.do(http.MethodGet, "/api/v1/posts", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = s.do(http.MethodGet, "/api/v1/posts", "", nil)
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestPostLifecycleOverHTTP(t *testing.T) {
	s := newDefaultServer(t)
	author := s.register("author@example.com", false)
	reader := s.register("reader@example.com", false)

	post := s.createPost(author, "First post")
	assert.Equal(t, float64(0), post["view_count"])
	nick := post["nickname"].(string)

	// 匿名访问两次只计一次
	res := s.do(http.MethodGet, postPath(post, ""), "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, float64(1), res.Body["view_count"])
	assert.NotEmpty(t, res.Body["content_html"])
	res = s.do(http.MethodGet, postPath(post, ""), "", nil)
	assert.Equal(t, float64(1), res.Body["view_count"])

	// 登录用户另计一次
	res = s.do(http.MethodGet, postPath(post, ""), reader, nil)
	assert.Equal(t, float64(2), res.Body["view_count"])

	res = s.do(http.MethodPost, postPath(post, "/like"), reader, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, float64(1), res.Body["like_count"])
	assert.Equal(t, true, res.Body["user_like_status"])

	res = s.do(http.MethodPost, postPath(post, "/like"), reader, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
	res = s.do(http.MethodPost, postPath(post, "/undislike"), reader, nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = s.do(http.MethodPost, postPath(post, "/dislike"), reader, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, float64(0), res.Body["like_count"])
	assert.Equal(t, float64(1), res.Body["dislike_count"])

	title := "Edited"
	res = s.do(http.MethodPut, postPath(post, ""), reader, gin.H{"title": title})
	assert.Equal(t, http.StatusForbidden, res.Code)
	res = s.do(http.MethodPut, postPath(post, ""), author, gin.H{"title": title})
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, title, res.Body["title"])
	assert.Equal(t, nick, res.Body["nickname"])

	res = s.do(http.MethodDelete, postPath(post, ""), author, nil)
	require.Equal(t, http.StatusOK, res.Code)

	res = s.do(http.MethodGet, postPath(post, ""), "", nil)
	require.Equal(t, http.StatusGone, res.Code)
	assert.NotEmpty(t, res.Body["error"])
	ts := res.Body["post"].(map[string]interface{})
	assert.Nil(t, ts["title"])
	assert.Nil(t, ts["content"])
	assert.Nil(t, ts["nickname"])
	assert.Nil(t, ts["user"])
	assert.Equal(t, true, ts["is_deleted"])
	assert.Equal(t, float64(1), ts["dislike_count"])

	res = s.do(http.MethodGet, "/api/v1/posts/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	res = s.do(http.MethodGet, "/api/v1/posts/abc", "", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestCommentNicknamesOverHTTP(t *testing.T) {
	s := newDefaultServer(t)
	author := s.register("author@example.com", false)
	reader := s.register("reader@example.com", false)
	outsider := s.register("outsider@example.com", true)

	post := s.createPost(author, "Thread")
	postNick := post["nickname"].(string)

	res := s.do(http.MethodPost, postPath(post, "/comments"), reader, gin.H{"content": "first"})
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	readerNick := res.Body["nickname"].(string)
	assert.NotEqual(t, postNick, readerNick)
	topID := uint(res.Body["id"].(float64))

	res = s.do(http.MethodPost, postPath(post, "/comments"), reader, gin.H{"content": "reply", "parent_id": topID})
	require.Equal(t, http.StatusCreated, res.Code)
	assert.Equal(t, readerNick, res.Body["nickname"])

	res = s.do(http.MethodPost, postPath(post, "/comments"), author, gin.H{"content": "op here"})
	require.Equal(t, http.StatusCreated, res.Code)
	assert.Equal(t, postNick, res.Body["nickname"])

	res = s.do(http.MethodPost, postPath(post, "/comments"), outsider, gin.H{"content": "hi"})
	assert.Equal(t, http.StatusForbidden, res.Code)
	res = s.do(http.MethodPost, postPath(post, "/like"), outsider, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = s.do(http.MethodPost, postPath(post, "/comments"), reader, gin.H{})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "content 为必填项", res.Body["error"])

	res = s.do(http.MethodGet, postPath(post, "/comments"), "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, float64(2), res.Body["total"])

	res = s.do(http.MethodGet, postPath(post, fmt.Sprintf("/comments/%d/replies", topID)), "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, float64(1), res.Body["total"])

	res = s.do(http.MethodGet, postPath(post, ""), "", nil)
	assert.Equal(t, float64(2), res.Body["comment_count"])

	res = s.do(http.MethodDelete, postPath(post, fmt.Sprintf("/comments/%d", topID)), reader, nil)
	require.Equal(t, http.StatusOK, res.Code)
	res = s.do(http.MethodGet, postPath(post, fmt.Sprintf("/comments/%d", topID)), "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Nil(t, res.Body["content"])
	assert.Equal(t, true, res.Body["is_deleted"])
}

func TestNicknameExhaustedOverHTTP(t *testing.T) {
	s := newTestServer(t, constSource(0), 3, "Fox")
	author := s.register("author@example.com", false)
	reader := s.register("reader@example.com", false)

	post := s.createPost(author, "Only one name")
	assert.Equal(t, "Fox1000", post["nickname"])

	res := s.do(http.MethodPost, postPath(post, "/comments"), reader, gin.H{"content": "hi"})
	assert.Equal(t, http.StatusServiceUnavailable, res.Code)
	assert.Equal(t, "1", res.Header.Get("Retry-After"))
}

func TestNicknameAdminOverHTTP(t *testing.T) {
	s := newDefaultServer(t)
	user := s.register("user@example.com", false)
	admin := s.register("admin@example.com", false)
	require.NoError(t, s.db.Model(&models.User{}).Where("email = ?", "admin@example.com").
		Update("register_type", models.UserTypeAdmin).Error)

	res := s.do(http.MethodGet, "/api/v1/nicknames", user, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)
	res = s.do(http.MethodGet, "/api/v1/nicknames", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = s.do(http.MethodGet, "/api/v1/nicknames", admin, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, res.Body["items"], 3)

	res = s.do(http.MethodPost, "/api/v1/nicknames", admin, gin.H{"nickname": "Heron"})
	assert.Equal(t, http.StatusCreated, res.Code)
	res = s.do(http.MethodPost, "/api/v1/nicknames", admin, gin.H{"nickname": "Heron"})
	assert.Equal(t, http.StatusConflict, res.Code)

	res = s.do(http.MethodDelete, "/api/v1/nicknames/Heron", admin, nil)
	assert.Equal(t, http.StatusOK, res.Code)
	res = s.do(http.MethodDelete, "/api/v1/nicknames/Heron", admin, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestUserEndpointsOverHTTP(t *testing.T) {
	s := newDefaultServer(t)
	token := s.register("me@example.com", false)
	post := s.createPost(token, "mine")
	s.do(http.MethodPost, postPath(post, "/comments"), token, gin.H{"content": "note"})

	res := s.do(http.MethodGet, "/api/v1/users/me/posts", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, float64(1), res.Body["total"])

	res = s.do(http.MethodGet, "/api/v1/users/me/comments", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, float64(1), res.Body["total"])

	res = s.do(http.MethodPut, "/api/v1/users/me/password", token, gin.H{"current_password": "Secret1!", "new_password": "weak"})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	res = s.do(http.MethodPut, "/api/v1/users/me/password", token, gin.H{"current_password": "Secret1!", "new_password": "Better2@"})
	require.Equal(t, http.StatusOK, res.Code)

	res = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "me@example.com", "password": "Better2@"})
	require.Equal(t, http.StatusOK, res.Code)

	res = s.do(http.MethodDelete, "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	res = s.do(http.MethodGet, "/api/v1/users/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestHierarchyOverHTTP(t *testing.T) {
	s := newDefaultServer(t)

	res := s.do(http.MethodGet, "/api/v1/countries?search=kor", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, float64(1), res.Body["total"])

	res = s.do(http.MethodGet, fmt.Sprintf("/api/v1/countries/%d/schools?per_page=1", s.country.ID), "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, float64(2), res.Body["pages"])

	res = s.do(http.MethodGet, fmt.Sprintf("/api/v1/countries/%d/schools/%d/colleges/%d/departments", s.country.ID, s.school.ID, s.college.ID), "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, res.Body["items"], 1)

	res = s.do(http.MethodGet, fmt.Sprintf("/api/v1/countries/%d/schools/%d/colleges", s.country.ID, 999), "", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}
