package services

import (
	"time"

	"campusboard/internal/models"
	"campusboard/internal/utils"
)

// Ref 层级实体（国家/学校/学院/系）的简要信息
type Ref struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

// UserProfile 帖子和评论里展示的作者信息，不含邮箱和实名
type UserProfile struct {
	ID         uint `json:"id"`
	Country    Ref  `json:"country"`
	School     Ref  `json:"school"`
	College    Ref  `json:"college"`
	Department Ref  `json:"department"`
}

// CurrentUser /users/me 的返回
type CurrentUser struct {
	ID           uint            `json:"id"`
	Email        string          `json:"email"`
	Name         string          `json:"name"`
	Country      Ref             `json:"country"`
	School       Ref             `json:"school"`
	College      Ref             `json:"college"`
	Department   Ref             `json:"department"`
	RegisterType models.UserType `json:"register_type"`
	CreatedAt    time.Time       `json:"created_at"`
}

// PostView 帖子及其统计数据。已删除的帖子 title/content/user/nickname 为 null
type PostView struct {
	ID                uint         `json:"id"`
	Title             *string      `json:"title"`
	Content           *string      `json:"content"`
	ContentHTML       *string      `json:"content_html,omitempty"`
	Category          string       `json:"category"`
	Nickname          *string      `json:"nickname"`
	User              *UserProfile `json:"user"`
	School            Ref          `json:"school"`
	College           Ref          `json:"college"`
	Department        Ref          `json:"department"`
	ViewCount         int64        `json:"view_count"`
	CommentCount      int64        `json:"comment_count"`
	LikeCount         int64        `json:"like_count"`
	DislikeCount      int64        `json:"dislike_count"`
	UserLikeStatus    bool         `json:"user_like_status"`
	UserDislikeStatus bool         `json:"user_dislike_status"`
	IsDeleted         bool         `json:"is_deleted"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
	DeletedAt         *time.Time   `json:"deleted_at"`
}

// CommentView 评论。已删除的评论 content/nickname/user 为 null
type CommentView struct {
	ID         uint         `json:"id"`
	PostID     uint         `json:"post_id"`
	ParentID   *uint        `json:"parent_id"`
	Content    *string      `json:"content"`
	Nickname   *string      `json:"nickname"`
	User       *UserProfile `json:"user"`
	ReplyCount int64        `json:"reply_count"`
	IsDeleted  bool         `json:"is_deleted"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
	DeletedAt  *time.Time   `json:"deleted_at"`
}

type Pagination struct {
	Total       int64 `json:"total"`
	Pages       int   `json:"pages"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
}

func newPagination(total int64, page, perPage int) Pagination {
	return Pagination{
		Total:       total,
		Pages:       utils.TotalPages(total, perPage),
		CurrentPage: page,
		PerPage:     perPage,
	}
}

// PostFilters 列表实际使用的筛选条件（学校可能是默认值）
type PostFilters struct {
	School     *Ref   `json:"school"`
	College    *Ref   `json:"college"`
	Department *Ref   `json:"department"`
	Category   string `json:"category"`
	Search     string `json:"search"`
}

type PostList struct {
	Posts []PostView `json:"posts"`
	Pagination
	CurrentFilters PostFilters `json:"current_filters"`
}

type CommentList struct {
	Comments []CommentView `json:"comments"`
	Pagination
}

type RefList struct {
	Items []Ref `json:"items"`
	Pagination
}

func countryRef(c models.Country) Ref {
	return Ref{ID: c.ID, Name: c.Name, Code: c.Code}
}

func schoolRef(s models.School) Ref {
	return Ref{ID: s.ID, Name: s.Name}
}

func collegeRef(c models.College) Ref {
	return Ref{ID: c.ID, Name: c.Name}
}

func departmentRef(d models.Department) Ref {
	return Ref{ID: d.ID, Name: d.Name}
}

func newUserProfile(u *models.User) *UserProfile {
	return &UserProfile{
		ID:         u.ID,
		Country:    countryRef(u.Country),
		School:     schoolRef(u.School),
		College:    collegeRef(u.College),
		Department: departmentRef(u.Department),
	}
}

func newCurrentUser(u *models.User) *CurrentUser {
	return &CurrentUser{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Country:      countryRef(u.Country),
		School:       schoolRef(u.School),
		College:      collegeRef(u.College),
		Department:   departmentRef(u.Department),
		RegisterType: u.RegisterType,
		CreatedAt:    u.CreatedAt,
	}
}

// newPostView 组装帖子返回；withHTML 仅用于单篇详情
func newPostView(p *models.Post, c postCounts, withHTML bool) PostView {
	v := PostView{
		ID:                p.ID,
		Category:          p.Category,
		School:            schoolRef(p.School),
		College:           collegeRef(p.College),
		Department:        departmentRef(p.Department),
		ViewCount:         c.ViewCount,
		CommentCount:      c.CommentCount,
		LikeCount:         c.LikeCount,
		DislikeCount:      c.DislikeCount,
		UserLikeStatus:    c.UserLikeStatus > 0,
		UserDislikeStatus: c.UserDislikeStatus > 0,
		IsDeleted:         p.IsDeleted(),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
		DeletedAt:         p.DeletedAt,
	}
	if p.IsDeleted() {
		return v
	}

	title, content, nickname := p.Title, p.Content, p.Nickname
	v.Title = &title
	v.Content = &content
	v.Nickname = &nickname
	v.User = newUserProfile(&p.User)
	if withHTML {
		html := utils.RenderMarkdown(p.Content)
		v.ContentHTML = &html
	}
	return v
}

func newCommentView(c *models.Comment, replyCount int64) CommentView {
	v := CommentView{
		ID:         c.ID,
		PostID:     c.PostID,
		ParentID:   c.ParentID,
		ReplyCount: replyCount,
		IsDeleted:  c.IsDeleted(),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
		DeletedAt:  c.DeletedAt,
	}
	if c.IsDeleted() {
		return v
	}

	content, nickname := c.Content, c.Nickname
	v.Content = &content
	v.Nickname = &nickname
	v.User = newUserProfile(&c.User)
	return v
}
