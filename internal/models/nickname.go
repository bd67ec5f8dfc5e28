package models

import (
	"time"
)

// NicknameTemplate 昵称词干，由运营维护，请求期间只读
type NicknameTemplate struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Nickname  string    `gorm:"size:100;uniqueIndex;not null" json:"nickname"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (NicknameTemplate) TableName() string {
	return "nicknames"
}
