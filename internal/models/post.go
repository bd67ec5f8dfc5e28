package models

import (
	"time"
)

type Post struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Title        string     `gorm:"size:200;not null" json:"title"`
	Content      string     `gorm:"type:text;not null" json:"content"`
	Category     string     `gorm:"size:50;not null;index" json:"category"`
	UserID       uint       `gorm:"not null;index" json:"user_id"`
	User         User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	SchoolID     uint       `gorm:"not null;index" json:"school_id"`
	School       School     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	CollegeID    uint       `gorm:"not null;index" json:"college_id"`
	College      College    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	DepartmentID uint       `gorm:"not null;index" json:"department_id"`
	Department   Department `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	Nickname     string     `gorm:"size:100;not null;index" json:"nickname"` // 匿名昵称，创建后不再改变
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `gorm:"index" json:"deleted_at"` // 软删除；不用 gorm.DeletedAt，查询时要能区分"不存在"和"已删除"
}

func (p *Post) IsDeleted() bool {
	return p.DeletedAt != nil
}
