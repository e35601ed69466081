package model

import (
	"time"
)

// User is a back-office operator. Agents are users with role "agent"; the
// candidate's agent_id references this table.
type User struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string     `gorm:"type:varchar(128);not null" json:"name"`
	Email        string     `gorm:"type:varchar(128);uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"type:varchar(128);not null" json:"-"`
	Role         string     `gorm:"type:varchar(20);index;not null" json:"role"`
	Phone        string     `gorm:"type:varchar(32)" json:"phone"`
	IsDeleted    bool       `gorm:"index;not null;default:false" json:"is_deleted"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
