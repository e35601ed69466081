package model

import (
	"time"
)

// Employer is the overseas company a candidate is placed with. Soft deleted
// so historical placements stay reportable.
type Employer struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	CompanyName string     `gorm:"type:varchar(128);not null" json:"company_name"`
	Country     string     `gorm:"type:varchar(64)" json:"country"`
	ContactName string     `gorm:"type:varchar(128)" json:"contact_name"`
	Phone       string     `gorm:"type:varchar(32)" json:"phone"`
	Email       string     `gorm:"type:varchar(128)" json:"email"`
	Address     string     `gorm:"type:varchar(256)" json:"address"`
	IsDeleted   bool       `gorm:"index;not null;default:false" json:"is_deleted"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Employer) TableName() string {
	return "employers"
}
