package models

import (
	"time"
)

type ReactionType string

const (
	ReactionLike    ReactionType = "like"
	ReactionDislike ReactionType = "dislike"
)

// Opposite like <-> dislike
func (t ReactionType) Opposite() ReactionType {
	if t == ReactionLike {
		return ReactionDislike
	}
	return ReactionLike
}

// Reaction 点赞/点踩，每个 (post, user) 只有一行，切换类型时原地覆盖
type Reaction struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	PostID    uint         `gorm:"not null;index;uniqueIndex:idx_reaction_post_user" json:"post_id"`
	Post      Post         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    uint         `gorm:"not null;index;uniqueIndex:idx_reaction_post_user" json:"user_id"`
	Type      ReactionType `gorm:"size:10;not null" json:"type"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
