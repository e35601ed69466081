package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// JobPackage is a priced placement offering (destination, trade, total fee).
// A candidate created under a package starts with package_amount = Amount and
// due_amount = package_amount.
type JobPackage struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"type:varchar(128);not null" json:"name"`
	Country     string          `gorm:"type:varchar(64)" json:"country"`
	Description string          `gorm:"type:varchar(256)" json:"description"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	IsDeleted   bool            `gorm:"index;not null;default:false" json:"is_deleted"`
	DeletedAt   *time.Time      `json:"deleted_at,omitempty"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (JobPackage) TableName() string {
	return "job_packages"
}
