package models

import (
	"gorm.io/gorm"
)

// Wallet holds a user's spendable balance and the hold sub-balance earmarked
// against open bookings. Amounts are integer minor units (cents); both stay
// non-negative at rest, enforced by check constraints and by the conditional
// updates in the wallet ledger.
type Wallet struct {
	gorm.Model
	UserID      uint   `json:"user_id" gorm:"uniqueIndex"`
	User        User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Balance     int64  `json:"balance" gorm:"not null;default:0;check:balance >= 0"`
	HoldBalance int64  `json:"hold_balance" gorm:"not null;default:0;check:hold_balance >= 0"`
	Currency    string `json:"currency" gorm:"size:3;default:USD"`
}
