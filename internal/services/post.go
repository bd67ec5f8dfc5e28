package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"campusboard/internal/models"
	"campusboard/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	titleMaxLength    = 200
	categoryMaxLength = 50
)

// postCounts 聚合查询的一行结果
type postCounts struct {
	PostID            uint
	Deleted           int64
	ViewCount         int64
	CommentCount      int64
	LikeCount         int64
	DislikeCount      int64
	UserLikeStatus    int64
	UserDislikeStatus int64
}

// 一次查询算出浏览数、顶层未删除评论数、点赞/点踩数，以及当前用户是否点过赞/踩。
// 三张表 LEFT JOIN 会产生笛卡尔积，所以全部用 COUNT(DISTINCT ...)。
const postCountsSelect = `posts.id AS post_id,
	CASE WHEN posts.deleted_at IS NULL THEN 0 ELSE 1 END AS deleted,
	COUNT(DISTINCT views.id) AS view_count,
	COUNT(DISTINCT CASE WHEN comments.parent_id IS NULL AND comments.deleted_at IS NULL THEN comments.id END) AS comment_count,
	COUNT(DISTINCT CASE WHEN reactions.type = 'like' THEN reactions.id END) AS like_count,
	COUNT(DISTINCT CASE WHEN reactions.type = 'dislike' THEN reactions.id END) AS dislike_count,
	COUNT(DISTINCT CASE WHEN reactions.type = 'like' AND reactions.user_id = ? THEN reactions.id END) AS user_like_status,
	COUNT(DISTINCT CASE WHEN reactions.type = 'dislike' AND reactions.user_id = ? THEN reactions.id END) AS user_dislike_status`

type PostService struct {
	db        *gorm.DB
	nicknames *NicknameService
	schools   *SchoolService
}

func NewPostService(db *gorm.DB, nicknames *NicknameService, schools *SchoolService) *PostService {
	return &PostService{
		db:        db,
		nicknames: nicknames,
		schools:   schools,
	}
}

// PostFilter 列表筛选参数，SchoolID 为 0 时取当前用户所在学校
type PostFilter struct {
	SchoolID     uint
	CollegeID    uint
	DepartmentID uint
	Category     string
	Search       string
	Page         int
	PerPage      int
}

type PostInput struct {
	Title    string
	Content  string
	Category string
}

// PostPatch 只更新非 nil 的字段
type PostPatch struct {
	Title    *string
	Content  *string
	Category *string
}

func viewerIDOf(viewer *models.User) uint {
	if viewer == nil {
		return 0
	}
	return viewer.ID
}

// counts 批量执行聚合查询；不存在的帖子不会出现在结果里
func (s *PostService) counts(db *gorm.DB, ids []uint, viewerID uint) (map[uint]postCounts, error) {
	var rows []postCounts
	err := db.Table("posts").
		Select(postCountsSelect, viewerID, viewerID).
		Joins("LEFT JOIN views ON views.post_id = posts.id").
		Joins("LEFT JOIN comments ON comments.post_id = posts.id").
		Joins("LEFT JOIN reactions ON reactions.post_id = posts.id").
		Where("posts.id IN ?", ids).
		Group("posts.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[uint]postCounts, len(rows))
	for _, r := range rows {
		out[r.PostID] = r
	}
	return out, nil
}

// postWithCounts 单个帖子的聚合结果，区分不存在与已删除
func (s *PostService) postWithCounts(db *gorm.DB, postID, viewerID uint) (postCounts, error) {
	m, err := s.counts(db, []uint{postID}, viewerID)
	if err != nil {
		return postCounts{}, err
	}
	c, ok := m[postID]
	if !ok {
		return postCounts{}, newError(ErrNotFound, "帖子不存在")
	}
	if c.Deleted != 0 {
		return c, newError(ErrDeleted, "帖子已删除")
	}
	return c, nil
}

func preloadPost(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User.Country").
		Preload("User.School").
		Preload("User.College").
		Preload("User.Department").
		Preload("School").
		Preload("College").
		Preload("Department")
}

func (s *PostService) load(db *gorm.DB, ids []uint) (map[uint]*models.Post, error) {
	var posts []models.Post
	if err := preloadPost(db).Where("id IN ?", ids).Find(&posts).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]*models.Post, len(posts))
	for i := range posts {
		out[posts[i].ID] = &posts[i]
	}
	return out, nil
}

// detail 聚合 + 加载，返回单篇帖子的完整视图
func (s *PostService) detail(db *gorm.DB, postID, viewerID uint) (*PostView, error) {
	c, err := s.postWithCounts(db, postID, viewerID)
	if err != nil {
		return nil, err
	}
	return s.render(db, postID, c)
}

func (s *PostService) render(db *gorm.DB, postID uint, c postCounts) (*PostView, error) {
	posts, err := s.load(db, []uint{postID})
	if err != nil {
		return nil, err
	}
	p, ok := posts[postID]
	if !ok {
		return nil, newError(ErrNotFound, "帖子不存在")
	}
	v := newPostView(p, c, true)
	return &v, nil
}

// alivePost 读取未删除的帖子
func alivePost(db *gorm.DB, postID uint) (*models.Post, error) {
	var post models.Post
	err := db.First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "帖子不存在")
	}
	if err != nil {
		return nil, err
	}
	if post.IsDeleted() {
		return &post, newError(ErrDeleted, "帖子已删除")
	}
	return &post, nil
}

// GetPost 帖子详情，同时记录一次浏览（每个用户或匿名 IP 只计一次）
func (s *PostService) GetPost(ctx context.Context, postID uint, viewer *models.User, viewerIP string) (*PostView, error) {
	db := s.db.WithContext(ctx)
	viewerID := viewerIDOf(viewer)

	c, err := s.postWithCounts(db, postID, viewerID)
	if err != nil {
		return nil, err
	}

	recorded, err := recordViewOnce(db, postID, viewerID, viewerIP)
	if err != nil {
		return nil, err
	}
	if recorded {
		c.ViewCount++
	}
	return s.render(db, postID, c)
}

// Tombstone 已删除帖子的外壳（统计数据和层级信息保留）
func (s *PostService) Tombstone(ctx context.Context, postID uint, viewer *models.User) (*PostView, error) {
	db := s.db.WithContext(ctx)
	m, err := s.counts(db, []uint{postID}, viewerIDOf(viewer))
	if err != nil {
		return nil, err
	}
	c, ok := m[postID]
	if !ok {
		return nil, newError(ErrNotFound, "帖子不存在")
	}
	return s.render(db, postID, c)
}

// recordViewOnce 依赖 (post_id,user_id) 与 (post_id,ip_address) 唯一索引去重。
// 登录用户只记 user_id，匿名访客只记 ip；两者都没有时不记录。
func recordViewOnce(db *gorm.DB, postID, viewerID uint, ip string) (bool, error) {
	view := models.View{PostID: postID}
	switch {
	case viewerID != 0:
		view.UserID = &viewerID
	case ip != "":
		view.IPAddress = &ip
	default:
		return false, nil
	}

	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&view)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// page 按 scope 分页列出帖子（新的在前），不记录浏览
func (s *PostService) page(db *gorm.DB, viewerID uint, scope func(*gorm.DB) *gorm.DB, page, perPage int) ([]PostView, Pagination, error) {
	page, perPage = utils.NormalizePage(page, perPage)

	var total int64
	if err := db.Model(&models.Post{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	var ids []uint
	err := db.Model(&models.Post{}).Scopes(scope).
		Order("posts.created_at DESC, posts.id DESC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Pluck("posts.id", &ids).Error
	if err != nil {
		return nil, Pagination{}, err
	}

	views := make([]PostView, 0, len(ids))
	if len(ids) > 0 {
		counts, err := s.counts(db, ids, viewerID)
		if err != nil {
			return nil, Pagination{}, err
		}
		posts, err := s.load(db, ids)
		if err != nil {
			return nil, Pagination{}, err
		}
		for _, id := range ids {
			if p, ok := posts[id]; ok {
				views = append(views, newPostView(p, counts[id], false))
			}
		}
	}
	return views, newPagination(total, page, perPage), nil
}

// ListPosts 学校帖子列表，支持学院/系/分类筛选和标题内容搜索
func (s *PostService) ListPosts(ctx context.Context, viewer *models.User, f PostFilter) (*PostList, error) {
	db := s.db.WithContext(ctx)

	schoolID := f.SchoolID
	if schoolID == 0 && viewer != nil {
		schoolID = viewer.SchoolID
	}
	if schoolID == 0 {
		id, err := s.schools.FirstSchoolID(ctx)
		if err != nil {
			return nil, err
		}
		schoolID = id
	}

	filters := PostFilters{Category: f.Category, Search: f.Search}
	page, perPage := utils.NormalizePage(f.Page, f.PerPage)
	if schoolID == 0 {
		// 还没有任何学校
		return &PostList{Posts: []PostView{}, Pagination: newPagination(0, page, perPage), CurrentFilters: filters}, nil
	}

	refs, err := s.schools.resolveFilters(db, schoolID, f.CollegeID, f.DepartmentID)
	if err != nil {
		return nil, err
	}
	filters.School, filters.College, filters.Department = refs.school, refs.college, refs.department

	search := strings.ToLower(strings.TrimSpace(f.Search))
	scope := func(q *gorm.DB) *gorm.DB {
		q = q.Where("posts.school_id = ? AND posts.deleted_at IS NULL", schoolID)
		if f.CollegeID != 0 {
			q = q.Where("posts.college_id = ?", f.CollegeID)
		}
		if f.DepartmentID != 0 {
			q = q.Where("posts.department_id = ?", f.DepartmentID)
		}
		if f.Category != "" {
			q = q.Where("posts.category = ?", f.Category)
		}
		if search != "" {
			like := "%" + search + "%"
			q = q.Where("(LOWER(posts.title) LIKE ? OR LOWER(posts.content) LIKE ?)", like, like)
		}
		return q
	}

	posts, pagination, err := s.page(db, viewerIDOf(viewer), scope, page, perPage)
	if err != nil {
		return nil, err
	}
	return &PostList{Posts: posts, Pagination: pagination, CurrentFilters: filters}, nil
}

func validateTitle(title string) (string, error) {
	title = utils.StripHTML(title)
	if title == "" {
		return "", newError(ErrValidation, "标题不能为空")
	}
	if utf8.RuneCountInString(title) > titleMaxLength {
		return "", newError(ErrValidation, "标题不能超过 200 个字符")
	}
	return title, nil
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", newError(ErrValidation, "内容不能为空")
	}
	return content, nil
}

func validateCategory(category string) (string, error) {
	category = strings.TrimSpace(category)
	if utf8.RuneCountInString(category) > categoryMaxLength {
		return "", newError(ErrValidation, "分类不能超过 50 个字符")
	}
	return category, nil
}

// CreatePost 发帖，学校/学院/系取自作者，并分配帖子昵称
func (s *PostService) CreatePost(ctx context.Context, user *models.User, in PostInput) (*PostView, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	content, err := validateContent(in.Content)
	if err != nil {
		return nil, err
	}
	category, err := validateCategory(in.Category)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	post := models.Post{
		Title:        title,
		Content:      content,
		Category:     category,
		UserID:       user.ID,
		SchoolID:     user.SchoolID,
		CollegeID:    user.CollegeID,
		DepartmentID: user.DepartmentID,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		nick, err := s.nicknames.Generate(tx, 0)
		if err != nil {
			return err
		}
		post.Nickname = nick
		return tx.Create(&post).Error
	})
	if err != nil {
		return nil, err
	}
	return s.detail(db, post.ID, user.ID)
}

// ownedPost 读取当前用户自己的未删除帖子
func ownedPost(db *gorm.DB, user *models.User, postID uint) (*models.Post, error) {
	post, err := alivePost(db, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != user.ID {
		return nil, newError(ErrForbidden, "只能操作自己的帖子")
	}
	return post, nil
}

func (s *PostService) UpdatePost(ctx context.Context, user *models.User, postID uint, patch PostPatch) (*PostView, error) {
	db := s.db.WithContext(ctx)
	post, err := ownedPost(db, user, postID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if patch.Title != nil {
		title, err := validateTitle(*patch.Title)
		if err != nil {
			return nil, err
		}
		updates["title"] = title
	}
	if patch.Content != nil {
		content, err := validateContent(*patch.Content)
		if err != nil {
			return nil, err
		}
		updates["content"] = content
	}
	if patch.Category != nil {
		category, err := validateCategory(*patch.Category)
		if err != nil {
			return nil, err
		}
		updates["category"] = category
	}

	if len(updates) > 0 {
		if err := db.Model(post).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.detail(db, postID, user.ID)
}

// DeletePost 软删除；评论、浏览和表态记录保留
func (s *PostService) DeletePost(ctx context.Context, user *models.User, postID uint) error {
	db := s.db.WithContext(ctx)
	post, err := ownedPost(db, user, postID)
	if err != nil {
		return err
	}
	now := time.Now()
	return db.Model(post).Update("deleted_at", &now).Error
}

// UserPosts 某个用户未删除的帖子
func (s *PostService) UserPosts(ctx context.Context, user *models.User, page, perPage int) (*PostList, error) {
	scope := func(q *gorm.DB) *gorm.DB {
		return q.Where("posts.user_id = ? AND posts.deleted_at IS NULL", user.ID)
	}
	posts, pagination, err := s.page(s.db.WithContext(ctx), user.ID, scope, page, perPage)
	if err != nil {
		return nil, err
	}
	return &PostList{Posts: posts, Pagination: pagination}, nil
}
