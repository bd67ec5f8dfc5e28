package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"campusboard/internal/config"
	"campusboard/internal/db"
	"campusboard/internal/models"
	"campusboard/internal/nickname"
	"campusboard/internal/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// seqSource 按顺序返回预设值（对 n 取模），循环使用
type seqSource struct {
	vals []int
	i    int
}

func (s *seqSource) Intn(n int) int {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v % n
}

type fixture struct {
	db  *gorm.DB
	svc *Services
	ctx context.Context

	country      models.Country
	school       models.School
	college      models.College
	department   models.Department
	otherSchool  models.School
	otherCollege models.College
	otherDept    models.Department

	users int
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// 单连接：内存库每个连接是独立的数据库
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, nickname.NewSource(1), nickname.DefaultMaxAttempts, "Fox", "Wolf", "Owl", "Otter")
}

func newFixtureWith(t *testing.T, src nickname.Source, maxAttempts int, templates ...string) *fixture {
	t.Helper()
	gdb := openTestDB(t)
	for _, name := range templates {
		require.NoError(t, gdb.Create(&models.NicknameTemplate{Nickname: name}).Error)
	}

	cfg := &config.Config{
		SecretKey:           "test-secret",
		TokenTTL:            time.Hour,
		NicknameMaxAttempts: maxAttempts,
	}
	f := &fixture{
		db:  gdb,
		svc: New(gdb, cfg, utils.NewCache(100), src),
		ctx: context.Background(),
	}

	f.country = models.Country{Name: "Korea", Code: "KR"}
	require.NoError(t, gdb.Create(&f.country).Error)
	f.school = models.School{Name: "Hanbit University", CountryID: f.country.ID}
	f.otherSchool = models.School{Name: "Daehan University", CountryID: f.country.ID}
	require.NoError(t, gdb.Create(&f.school).Error)
	require.NoError(t, gdb.Create(&f.otherSchool).Error)
	f.college = models.College{Name: "Engineering", SchoolID: f.school.ID}
	f.otherCollege = models.College{Name: "Arts", SchoolID: f.otherSchool.ID}
	require.NoError(t, gdb.Create(&f.college).Error)
	require.NoError(t, gdb.Create(&f.otherCollege).Error)
	f.department = models.Department{Name: "Computer Science", CollegeID: f.college.ID}
	f.otherDept = models.Department{Name: "Painting", CollegeID: f.otherCollege.ID}
	require.NoError(t, gdb.Create(&f.department).Error)
	require.NoError(t, gdb.Create(&f.otherDept).Error)
	return f
}

const testPassword = "Secret1!"

func (f *fixture) newUser(t *testing.T, school models.School, college models.College, dept models.Department) *models.User {
	t.Helper()
	f.users++
	hash, err := utils.HashPassword(testPassword)
	require.NoError(t, err)
	u := &models.User{
		Email:        fmt.Sprintf("user%d@example.com", f.users),
		Password:     hash,
		Name:         fmt.Sprintf("User %d", f.users),
		CountryID:    f.country.ID,
		SchoolID:     school.ID,
		CollegeID:    college.ID,
		DepartmentID: dept.ID,
		RegisterType: models.UserTypeUser,
	}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

// student 本校用户
func (f *fixture) student(t *testing.T) *models.User {
	return f.newUser(t, f.school, f.college, f.department)
}

// outsider 外校用户
func (f *fixture) outsider(t *testing.T) *models.User {
	return f.newUser(t, f.otherSchool, f.otherCollege, f.otherDept)
}

func (f *fixture) createPost(t *testing.T, author *models.User, title string) *PostView {
	t.Helper()
	p, err := f.svc.Posts.CreatePost(f.ctx, author, PostInput{Title: title, Content: "content of " + title, Category: "free"})
	require.NoError(t, err)
	return p
}

func (f *fixture) comment(t *testing.T, author *models.User, postID uint, parentID *uint) *CommentView {
	t.Helper()
	c, err := f.svc.Comments.CreateComment(f.ctx, author, postID, CommentInput{Content: "hello", ParentID: parentID})
	require.NoError(t, err)
	return c
}
