package models

import (
	"time"
)

// View 浏览去重记录，只追加不修改。
// 登录用户按 (post_id, user_id) 去重；匿名访客只记录 ip_address，按 (post_id, ip_address) 去重。
// 两个唯一索引里 NULL 互不冲突，所以登录与匿名记录不会相互影响。
type View struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index;uniqueIndex:idx_view_post_user;uniqueIndex:idx_view_post_ip" json:"post_id"`
	Post      Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	UserID    *uint     `gorm:"uniqueIndex:idx_view_post_user" json:"user_id"`
	IPAddress *string   `gorm:"size:45;uniqueIndex:idx_view_post_ip" json:"ip_address"` // IPv6 最长 45 字符
	CreatedAt time.Time `json:"created_at"`
}
