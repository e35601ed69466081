package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentMethodCash       = "cash"
	PaymentMethodSSLCommerz = "sslcommerz"
)

// Payment type tags used by the front office when categorizing a receipt.
const (
	PaymentTypeVisa    = "visa"
	PaymentTypeMedical = "medical"
	PaymentTypeTicket  = "ticket"
	PaymentTypeService = "service"
)

func ValidPaymentType(t string) bool {
	switch t {
	case PaymentTypeVisa, PaymentTypeMedical, PaymentTypeTicket, PaymentTypeService:
		return true
	}
	return false
}

// Payment is the append-only ledger table.
//
// Ledger design rules:
// 1. Append only. Rows are never updated or deleted by the application.
// 2. TransactionID is the external correlation key: the gateway tran_id for
//    sslcommerz rows, an optional manually recorded reference for cash rows.
//    The unique index on it is what makes a duplicate gateway credit fail at
//    the storage layer instead of relying on a read-then-write check.
type Payment struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CandidateID   int64           `gorm:"index;not null" json:"candidate_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentType   string          `gorm:"type:varchar(32);not null" json:"payment_type"`
	PaymentMethod string          `gorm:"type:varchar(20);not null" json:"payment_method"`
	TransactionID *string         `gorm:"type:varchar(64);uniqueIndex" json:"transaction_id,omitempty"`
	Notes         string          `gorm:"type:varchar(256)" json:"notes"`
	ReceivedBy    int64           `gorm:"index" json:"received_by"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Payment) TableName() string {
	return "payments"
}
