package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"campusboard/internal/models"
	"campusboard/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommentService struct {
	db        *gorm.DB
	nicknames *NicknameService
}

func NewCommentService(db *gorm.DB, nicknames *NicknameService) *CommentService {
	return &CommentService{db: db, nicknames: nicknames}
}

type CommentInput struct {
	Content  string
	ParentID *uint
}

func preloadComment(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User.Country").
		Preload("User.School").
		Preload("User.College").
		Preload("User.Department")
}

// replyCounts 批量统计回复数（含已删除的回复）
func replyCounts(db *gorm.DB, comments []models.Comment) (map[uint]int64, error) {
	out := make(map[uint]int64)
	if len(comments) == 0 {
		return out, nil
	}

	ids := make([]uint, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}

	type countResult struct {
		ParentID uint
		Count    int64
	}
	var results []countResult
	err := db.Model(&models.Comment{}).
		Select("parent_id, COUNT(*) AS count").
		Where("parent_id IN ?", ids).
		Group("parent_id").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		out[r.ParentID] = r.Count
	}
	return out, nil
}

func (s *CommentService) views(db *gorm.DB, comments []models.Comment) ([]CommentView, error) {
	counts, err := replyCounts(db, comments)
	if err != nil {
		return nil, err
	}
	views := make([]CommentView, len(comments))
	for i := range comments {
		views[i] = newCommentView(&comments[i], counts[comments[i].ID])
	}
	return views, nil
}

// paginate 按 scope 分页查询评论
func (s *CommentService) paginate(db *gorm.DB, scope func(*gorm.DB) *gorm.DB, order string, page, perPage int) (*CommentList, error) {
	page, perPage = utils.NormalizePage(page, perPage)

	var total int64
	if err := db.Model(&models.Comment{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, err
	}

	var comments []models.Comment
	err := preloadComment(db).Scopes(scope).
		Order(order).
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&comments).Error
	if err != nil {
		return nil, err
	}

	views, err := s.views(db, comments)
	if err != nil {
		return nil, err
	}
	return &CommentList{Comments: views, Pagination: newPagination(total, page, perPage)}, nil
}

func postExists(db *gorm.DB, postID uint) error {
	var count int64
	if err := db.Model(&models.Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return newError(ErrNotFound, "帖子不存在")
	}
	return nil
}

// ListComments 帖子的顶层评论，新的在前；已删除的评论以占位形式返回
func (s *CommentService) ListComments(ctx context.Context, postID uint, page, perPage int) (*CommentList, error) {
	db := s.db.WithContext(ctx)
	if err := postExists(db, postID); err != nil {
		return nil, err
	}
	scope := func(q *gorm.DB) *gorm.DB {
		return q.Where("comments.post_id = ? AND comments.parent_id IS NULL", postID)
	}
	return s.paginate(db, scope, "comments.created_at DESC, comments.id DESC", page, perPage)
}

func findComment(db *gorm.DB, postID, commentID uint) (*models.Comment, error) {
	var comment models.Comment
	err := preloadComment(db).Where("id = ? AND post_id = ?", commentID, postID).Take(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "评论不存在")
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *CommentService) GetComment(ctx context.Context, postID, commentID uint) (*CommentView, error) {
	db := s.db.WithContext(ctx)
	comment, err := findComment(db, postID, commentID)
	if err != nil {
		return nil, err
	}
	views, err := s.views(db, []models.Comment{*comment})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListReplies 顶层评论下的回复，按时间正序
func (s *CommentService) ListReplies(ctx context.Context, postID, commentID uint, page, perPage int) (*CommentList, error) {
	db := s.db.WithContext(ctx)
	parent, err := findComment(db, postID, commentID)
	if err != nil {
		return nil, err
	}
	if !parent.IsTopLevel() {
		return nil, newError(ErrValidation, "回复没有下一级回复")
	}
	scope := func(q *gorm.DB) *gorm.DB {
		return q.Where("comments.post_id = ? AND comments.parent_id = ?", postID, commentID)
	}
	return s.paginate(db, scope, "comments.created_at ASC, comments.id ASC", page, perPage)
}

// CreateComment 发表评论或回复。锁住帖子行，同一帖子的并发评论依次分配昵称
func (s *CommentService) CreateComment(ctx context.Context, user *models.User, postID uint, in CommentInput) (*CommentView, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, newError(ErrValidation, "评论内容不能为空")
	}

	db := s.db.WithContext(ctx)
	comment := models.Comment{
		PostID:   postID,
		UserID:   user.ID,
		ParentID: in.ParentID,
		Content:  content,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		post, err := alivePost(tx.Clauses(clause.Locking{Strength: "UPDATE"}), postID)
		if err != nil {
			return err
		}
		if post.SchoolID != user.SchoolID {
			return newError(ErrForbiddenCrossSchool, ErrForbiddenCrossSchool.Error())
		}

		if in.ParentID != nil {
			var parent models.Comment
			err := tx.First(&parent, *in.ParentID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return newError(ErrNotFound, "回复的评论不存在")
			}
			if err != nil {
				return err
			}
			if parent.PostID != postID {
				return newError(ErrValidation, "回复的评论不属于该帖子")
			}
			if !parent.IsTopLevel() {
				return newError(ErrValidation, "只能回复顶层评论")
			}
			if parent.IsDeleted() {
				return newError(ErrDeleted, "回复的评论已删除")
			}
		}

		nick, err := s.nicknames.AssignNickname(tx, user.ID, postID, post.UserID)
		if err != nil {
			return err
		}
		comment.Nickname = nick
		return tx.Create(&comment).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetComment(ctx, postID, comment.ID)
}

// ownedComment 读取当前用户自己的未删除评论
func ownedComment(db *gorm.DB, user *models.User, postID, commentID uint) (*models.Comment, error) {
	comment, err := findComment(db, postID, commentID)
	if err != nil {
		return nil, err
	}
	if comment.IsDeleted() {
		return nil, newError(ErrDeleted, "评论已删除")
	}
	if comment.UserID != user.ID {
		return nil, newError(ErrForbidden, "只能操作自己的评论")
	}
	return comment, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, user *models.User, postID, commentID uint, content string) (*CommentView, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, newError(ErrValidation, "评论内容不能为空")
	}

	db := s.db.WithContext(ctx)
	comment, err := ownedComment(db, user, postID, commentID)
	if err != nil {
		return nil, err
	}
	if err := db.Model(&models.Comment{}).Where("id = ?", comment.ID).
		Updates(map[string]interface{}{"content": content, "updated_at": time.Now()}).Error; err != nil {
		return nil, err
	}
	return s.GetComment(ctx, postID, commentID)
}

func (s *CommentService) DeleteComment(ctx context.Context, user *models.User, postID, commentID uint) error {
	db := s.db.WithContext(ctx)
	comment, err := ownedComment(db, user, postID, commentID)
	if err != nil {
		return err
	}
	now := time.Now()
	return db.Model(&models.Comment{}).Where("id = ?", comment.ID).Update("deleted_at", &now).Error
}

// UserComments 某个用户未删除的评论，新的在前
func (s *CommentService) UserComments(ctx context.Context, user *models.User, page, perPage int) (*CommentList, error) {
	scope := func(q *gorm.DB) *gorm.DB {
		return q.Where("comments.user_id = ? AND comments.deleted_at IS NULL", user.ID)
	}
	return s.paginate(s.db.WithContext(ctx), scope, "comments.created_at DESC, comments.id DESC", page, perPage)
}
