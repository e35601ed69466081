package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SSLTxnStatusPending   = "pending"
	SSLTxnStatusSuccess   = "success"
	SSLTxnStatusFailed    = "failed"
	SSLTxnStatusCancelled = "cancelled"
)

// TerminalSSLTxnStatus reports whether s is a valid terminal state for a
// gateway transaction. Pending is the only non-terminal state and the only
// state a transition may leave.
func TerminalSSLTxnStatus(s string) bool {
	switch s {
	case SSLTxnStatusSuccess, SSLTxnStatusFailed, SSLTxnStatusCancelled:
		return true
	}
	return false
}

// SSLTransaction is the gateway handshake record. One row per initiation,
// created before the external call so a crash mid-handshake still leaves a
// traceable pending row. TranID is generated by us, never by the gateway,
// and joins this record to the eventual Payment row.
type SSLTransaction struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CandidateID int64           `gorm:"index;not null" json:"candidate_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentType string          `gorm:"type:varchar(32);not null" json:"payment_type"`
	TranID      string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"tran_id"`
	Status      string          `gorm:"type:varchar(20);index;not null;default:pending" json:"status"`
	CreatedAt   time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SSLTransaction) TableName() string {
	return "ssl_transactions"
}
