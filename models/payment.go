package models

import (
	"gorm.io/gorm"
)

const (
	PaymentTypeDebit  = "debit"
	PaymentTypeCredit = "credit"
)

// PaymentHistory is the append-only record of monetary events, written after
// the authoritative wallet mutation succeeds.
type PaymentHistory struct {
	gorm.Model
	UserID        uint   `json:"user_id" gorm:"index"`
	Purpose       string `json:"purpose"`
	Amount        int64  `json:"amount"` // minor units
	Currency      string `json:"currency" gorm:"size:3;default:USD"`
	TransactionID string `json:"transaction_id"`
	PaymentType   string `json:"payment_type"` // debit or credit
}
