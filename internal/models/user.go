package models

import (
	"time"
)

type UserType string

const (
	UserTypeUser  UserType = "USER"
	UserTypeAdmin UserType = "ADMIN"
)

type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Email        string     `gorm:"size:120;uniqueIndex;not null" json:"email"`
	Password     string     `gorm:"size:255;not null" json:"-"` // bcrypt hash
	Name         string     `gorm:"size:100;not null" json:"name"` // 实名，不对外展示
	CountryID    uint       `gorm:"not null;index" json:"country_id"`
	Country      Country    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	SchoolID     uint       `gorm:"not null;index" json:"school_id"`
	School       School     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	CollegeID    uint       `gorm:"not null;index" json:"college_id"`
	College      College    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	DepartmentID uint       `gorm:"not null;index" json:"department_id"`
	Department   Department `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	RegisterType UserType   `gorm:"size:10;default:USER;not null" json:"register_type"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `gorm:"index" json:"deleted_at"`
}

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

func (u *User) IsAdmin() bool {
	return u.RegisterType == UserTypeAdmin
}
