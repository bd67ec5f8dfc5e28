package services

import (
	"context"
	"time"

	"campusboard/internal/models"
	"campusboard/internal/utils"

	"gorm.io/gorm"
)

type UserService struct {
	db       *gorm.DB
	posts    *PostService
	comments *CommentService
}

func NewUserService(db *gorm.DB, posts *PostService, comments *CommentService) *UserService {
	return &UserService{db: db, posts: posts, comments: comments}
}

// Me 当前用户信息，user 需已预加载层级
func (s *UserService) Me(user *models.User) *CurrentUser {
	return newCurrentUser(user)
}

// DeleteAccount 软删除账号，之后令牌失效、无法登录
func (s *UserService) DeleteAccount(ctx context.Context, user *models.User) error {
	now := time.Now()
	return s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Update("deleted_at", &now).Error
}

func (s *UserService) ChangePassword(ctx context.Context, user *models.User, current, next string) error {
	if !utils.CheckPasswordHash(current, user.Password) {
		return newError(ErrValidation, "当前密码不正确")
	}
	if current == next {
		return newError(ErrValidation, "新密码不能与当前密码相同")
	}
	if err := utils.ValidatePassword(next); err != nil {
		return newError(ErrValidation, err.Error())
	}

	hash, err := utils.HashPassword(next)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Update("password", hash).Error
}

func (s *UserService) MyPosts(ctx context.Context, user *models.User, page, perPage int) (*PostList, error) {
	return s.posts.UserPosts(ctx, user, page, perPage)
}

func (s *UserService) MyComments(ctx context.Context, user *models.User, page, perPage int) (*CommentList, error) {
	return s.comments.UserComments(ctx, user, page, perPage)
}
