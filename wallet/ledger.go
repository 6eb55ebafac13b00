package wallet

import (
	"errors"

	"github.com/tanvirahmed-dev/therapylink/models"
	"github.com/tanvirahmed-dev/therapylink/utils"
	"gorm.io/gorm"
)

// Ledger performs wallet accounting. Every balance mutation is a single
// conditional UPDATE so concurrent debits, holds and top-ups never lose
// updates; a debit that would push the balance negative affects zero rows
// and is rejected.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Get returns the wallet for the given user.
func (l *Ledger) Get(userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := l.db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFound("wallet not found")
		}
		return nil, err
	}
	return &wallet, nil
}

// Hold moves amount from balance into the hold sub-balance, guarded by
// balance >= amount at the moment of the write. The caller supplies the
// transaction the hold must be atomic with.
func (l *Ledger) Hold(tx *gorm.DB, userID uint, amount int64) error {
	result := tx.Model(&models.Wallet{}).
		Where("user_id = ? AND balance >= ?", userID, amount).
		Updates(map[string]interface{}{
			"balance":      gorm.Expr("balance - ?", amount),
			"hold_balance": gorm.Expr("hold_balance + ?", amount),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.BadRequest("insufficient balance in patient wallet")
	}
	return nil
}

// HoldExternal adds already-collected funds straight into the hold
// sub-balance. Used when the booking fee was paid outside the wallet.
func (l *Ledger) HoldExternal(tx *gorm.DB, userID uint, amount int64) error {
	result := tx.Model(&models.Wallet{}).
		Where("user_id = ?", userID).
		Update("hold_balance", gorm.Expr("hold_balance + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.NotFound("wallet not found")
	}
	return nil
}

// ReleaseHold moves amount from the hold sub-balance back into balance,
// guarded by hold_balance >= amount.
func (l *Ledger) ReleaseHold(tx *gorm.DB, userID uint, amount int64) error {
	result := tx.Model(&models.Wallet{}).
		Where("user_id = ? AND hold_balance >= ?", userID, amount).
		Updates(map[string]interface{}{
			"balance":      gorm.Expr("balance + ?", amount),
			"hold_balance": gorm.Expr("hold_balance - ?", amount),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.BadRequest("hold balance is smaller than the release amount")
	}
	return nil
}

// Debit subtracts amount from balance, rejected when it would go negative.
func (l *Ledger) Debit(tx *gorm.DB, userID uint, amount int64) error {
	result := tx.Model(&models.Wallet{}).
		Where("user_id = ? AND balance >= ?", userID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.BadRequest("insufficient balance in patient wallet")
	}
	return nil
}

// TopUp credits already-captured funds into the wallet and records the
// payment. The gateway interaction happened elsewhere; only the captured
// transaction id and amount arrive here.
func (l *Ledger) TopUp(userID uint, amount int64, currency, transactionID string) error {
	if amount <= 0 {
		return utils.BadRequest("top-up amount must be positive")
	}
	if transactionID == "" {
		return utils.BadRequest("transaction id is required for a top-up")
	}
	return l.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Wallet{}).
			Where("user_id = ?", userID).
			Update("balance", gorm.Expr("balance + ?", amount))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return utils.NotFound("wallet not found")
		}
		return tx.Create(&models.PaymentHistory{
			UserID:        userID,
			Purpose:       "wallet top-up",
			Amount:        amount,
			Currency:      currency,
			TransactionID: transactionID,
			PaymentType:   models.PaymentTypeCredit,
		}).Error
	})
}
