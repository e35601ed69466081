package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candidate lifecycle labels. The status column is a free-form label in the
// back office UI; these are the values the API itself writes.
const (
	CandidateStatusNew        = "new"
	CandidateStatusProcessing = "processing"
	CandidateStatusFlown      = "flown"
)

// Candidate carries both identity and the financial snapshot.
//
// TotalPaid and DueAmount are denormalized caches over the payments ledger,
// recomputed on write, never on read. Every write path must go through
// CandidateRepository.ApplyPayment so the invariant
// due_amount == package_amount - total_paid holds after each mutation.
type Candidate struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name          string          `gorm:"type:varchar(128);not null" json:"name"`
	PassportNo    string          `gorm:"type:varchar(32);index" json:"passport_no"`
	Phone         string          `gorm:"type:varchar(32)" json:"phone"`
	Email         string          `gorm:"type:varchar(128)" json:"email"`
	Address       string          `gorm:"type:varchar(256)" json:"address"`
	City          string          `gorm:"type:varchar(64)" json:"city"`
	Country       string          `gorm:"type:varchar(64)" json:"country"`
	AgentID       *int64          `gorm:"index" json:"agent_id"`
	EmployerID    *int64          `gorm:"index" json:"employer_id"`
	PackageID     *int64          `gorm:"index" json:"package_id"`
	PackageAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"package_amount"`
	TotalPaid     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_paid"`
	DueAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"due_amount"`
	Status        string          `gorm:"type:varchar(32);index;not null;default:new" json:"status"`
	IsDeleted     bool            `gorm:"index;not null;default:false" json:"is_deleted"`
	DeletedAt     *time.Time      `json:"deleted_at,omitempty"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Candidate) TableName() string {
	return "candidates"
}
