package services

import (
	"context"

	"campusboard/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReactionService 点赞/点踩状态机：none -> liked/disliked，liked <-> disliked，撤销回到 none
type ReactionService struct {
	db    *gorm.DB
	posts *PostService
}

func NewReactionService(db *gorm.DB, posts *PostService) *ReactionService {
	return &ReactionService{db: db, posts: posts}
}

func (s *ReactionService) Like(ctx context.Context, user *models.User, postID uint) (*PostView, error) {
	return s.react(ctx, user, postID, models.ReactionLike)
}

func (s *ReactionService) Dislike(ctx context.Context, user *models.User, postID uint) (*PostView, error) {
	return s.react(ctx, user, postID, models.ReactionDislike)
}

func (s *ReactionService) Unlike(ctx context.Context, user *models.User, postID uint) (*PostView, error) {
	return s.withdraw(ctx, user, postID, models.ReactionLike)
}

func (s *ReactionService) Undislike(ctx context.Context, user *models.User, postID uint) (*PostView, error) {
	return s.withdraw(ctx, user, postID, models.ReactionDislike)
}

func (s *ReactionService) react(ctx context.Context, user *models.User, postID uint, typ models.ReactionType) (*PostView, error) {
	db := s.db.WithContext(ctx)
	post, err := alivePost(db, postID)
	if err != nil {
		return nil, err
	}
	if post.SchoolID != user.SchoolID {
		return nil, newError(ErrForbiddenCrossSchool, ErrForbiddenCrossSchool.Error())
	}

	applied, err := upsertReaction(db, postID, user.ID, typ)
	if err != nil {
		return nil, err
	}
	if !applied {
		if typ == models.ReactionLike {
			return nil, newError(ErrAlreadyReacted, "已经点过赞了")
		}
		return nil, newError(ErrAlreadyReacted, "已经点过踩了")
	}
	return s.posts.detail(db, postID, user.ID)
}

// upsertReaction 插入表态；已有相反类型时原地改写，已有相同类型时不改动并返回 false
func upsertReaction(db *gorm.DB, postID, userID uint, typ models.ReactionType) (bool, error) {
	reaction := models.Reaction{PostID: postID, UserID: userID, Type: typ}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"type", "updated_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			gorm.Expr("reactions.type <> excluded.type"),
		}},
	}).Create(&reaction)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *ReactionService) withdraw(ctx context.Context, user *models.User, postID uint, typ models.ReactionType) (*PostView, error) {
	db := s.db.WithContext(ctx)
	if _, err := alivePost(db, postID); err != nil {
		return nil, err
	}

	res := db.Where("post_id = ? AND user_id = ? AND type = ?", postID, user.ID, typ).Delete(&models.Reaction{})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if typ == models.ReactionLike {
			return nil, newError(ErrNotReacted, "还没有点过赞")
		}
		return nil, newError(ErrNotReacted, "还没有点过踩")
	}
	return s.posts.detail(db, postID, user.ID)
}
