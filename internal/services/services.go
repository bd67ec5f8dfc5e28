package services

import (
	"campusboard/internal/config"
	"campusboard/internal/nickname"
	"campusboard/internal/utils"

	"gorm.io/gorm"
)

// Services 所有业务服务，main 和测试共用同一套组装方式
type Services struct {
	Nicknames *NicknameService
	Schools   *SchoolService
	Posts     *PostService
	Reactions *ReactionService
	Comments  *CommentService
	Auth      *AuthService
	Users     *UserService
}

func New(db *gorm.DB, cfg *config.Config, cache *utils.GlobalCache, src nickname.Source) *Services {
	nicknames := NewNicknameService(db, cache, src, cfg.NicknameMaxAttempts)
	schools := NewSchoolService(db, cache)
	posts := NewPostService(db, nicknames, schools)
	comments := NewCommentService(db, nicknames)
	return &Services{
		Nicknames: nicknames,
		Schools:   schools,
		Posts:     posts,
		Reactions: NewReactionService(db, posts),
		Comments:  comments,
		Auth:      NewAuthService(db, schools, cfg.SecretKey, cfg.TokenTTL),
		Users:     NewUserService(db, posts, comments),
	}
}
