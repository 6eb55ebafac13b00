package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tanvirahmed-dev/therapylink/models"
	"github.com/tanvirahmed-dev/therapylink/utils"
	"gorm.io/gorm"
)

// Engine reconciles elapsed session time against an appointment's pre-paid
// fee and settles the resulting dues. It receives its storage and lock
// collaborators explicitly.
type Engine struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewEngine(db *gorm.DB, rdb *redis.Client) *Engine {
	return &Engine{db: db, rdb: rdb}
}

// Result summarizes a session-end reconciliation. DueID is zero when no due
// record was created.
type Result struct {
	ConsumedAmount int64 `json:"consumed_amount"`
	DueAmount      int64 `json:"due_amount"`
	DueID          uint  `json:"due_id,omitempty"`
}

// reconcileLockTTL bounds how long a crashed reconciliation can keep an
// appointment locked.
const reconcileLockTTL = 30 * time.Second

// ReconcileSessionEnd converts elapsed session seconds into consumed fee,
// moving money from the booked bucket into hold, and records a due when the
// session overran its paid allotment. Reconciliation is not idempotent, so
// it is serialized per appointment via a redis lock. Fee mutation and due
// creation commit atomically; elapsedSeconds equal to the remaining paid
// time takes the overrun branch with a zero due and no due record.
func (e *Engine) ReconcileSessionEnd(appointmentID uint, elapsedSeconds int64) (*Result, error) {
	if elapsedSeconds < 0 {
		return nil, utils.BadRequest("elapsed seconds cannot be negative")
	}

	unlock, err := e.lock(appointmentID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result Result
	err = e.db.Transaction(func(tx *gorm.DB) error {
		var appointment models.Appointment
		if err := tx.First(&appointment, appointmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NotFound("appointment not found")
			}
			return err
		}

		if appointment.DurationSecs <= 0 {
			return utils.BadRequest("appointment has no billable duration")
		}

		booked := appointment.FeeInfo.BookedFee.Amount
		hold := appointment.FeeInfo.HoldFee.Amount
		totalFee := booked + hold
		if totalFee <= 0 {
			return utils.BadRequest("appointment has no billable fee")
		}

		// Seconds of session time still covered by the refundable booked
		// bucket, at the appointment's fixed rate.
		remainingPaidSeconds := secondsForFee(booked, totalFee, appointment.DurationSecs)

		updates := map[string]interface{}{}
		if elapsedSeconds < remainingPaidSeconds {
			// Session ended within the paid time: the consumed share of the
			// booked fee settles into hold, the rest stays refundable.
			remainingFee := feeForSeconds(remainingPaidSeconds-elapsedSeconds, totalFee, appointment.DurationSecs)
			consumed := booked - remainingFee
			result.ConsumedAmount = consumed
			updates["booked_fee_amount"] = booked - consumed
			updates["hold_fee_amount"] = hold + consumed
		} else {
			// Overrun: the booked fee is fully consumed; the extra time
			// becomes a due at the same rate.
			extraSeconds := elapsedSeconds - remainingPaidSeconds
			dueAmount := feeForSeconds(extraSeconds, totalFee, appointment.DurationSecs)
			result.ConsumedAmount = booked
			result.DueAmount = dueAmount
			updates["booked_fee_amount"] = int64(0)
			updates["hold_fee_amount"] = hold + booked
			updates["due_fee_amount"] = appointment.FeeInfo.DueFee.Amount + dueAmount

			if dueAmount > 0 {
				due := models.AppointmentDue{
					AppointmentID: appointment.ID,
					Due: models.Money{
						Amount:   dueAmount,
						Currency: appointment.FeeInfo.BookedFee.Currency,
					},
				}
				if err := tx.Create(&due).Error; err != nil {
					return err
				}
				result.DueID = due.ID
			}
		}

		return tx.Model(&models.Appointment{}).
			Where("id = ?", appointment.ID).
			Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DuePayment is an out-of-band payment clearing an appointment due.
type DuePayment struct {
	UserID        uint   `json:"user_id"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	TransactionID string `json:"transaction_id"`
}

// SettleDue clears the due for an appointment in full. The payment record is
// written first and the due row deleted last, in one transaction; a partial
// amount is rejected before anything is touched. Settling an already-settled
// due returns NotFoundError, never a silent success.
func (e *Engine) SettleDue(appointmentID uint, payment DuePayment) error {
	return e.db.Transaction(func(tx *gorm.DB) error {
		var due models.AppointmentDue
		if err := tx.Where("appointment_id = ?", appointmentID).First(&due).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NotFound("no due found for this appointment")
			}
			return err
		}

		if payment.TransactionID == "" {
			return utils.BadRequest("transaction id is required to settle a due")
		}
		if payment.Amount != due.Due.Amount {
			return utils.BadRequest("due must be settled in full: %d %s owed",
				due.Due.Amount, due.Due.Currency)
		}

		if err := tx.Create(&models.PaymentHistory{
			UserID:        payment.UserID,
			Purpose:       "appointment due settlement",
			Amount:        payment.Amount,
			Currency:      due.Due.Currency,
			TransactionID: payment.TransactionID,
			PaymentType:   models.PaymentTypeDebit,
		}).Error; err != nil {
			return err
		}

		// The paid due settles into the therapist's payable bucket.
		if err := tx.Model(&models.Appointment{}).
			Where("id = ?", due.AppointmentID).
			Updates(map[string]interface{}{
				"due_fee_amount":  gorm.Expr("due_fee_amount - ?", payment.Amount),
				"hold_fee_amount": gorm.Expr("hold_fee_amount + ?", payment.Amount),
			}).Error; err != nil {
			return err
		}

		// Hard delete: the due row is the only durable record of the debt
		// and a cleared debt leaves no row behind.
		return tx.Unscoped().Delete(&due).Error
	})
}

// lock takes the per-appointment reconcile lock. At most one reconciliation
// may run per appointment id; a second caller is rejected rather than queued.
func (e *Engine) lock(appointmentID uint) (func(), error) {
	if e.rdb == nil {
		return func() {}, nil
	}
	ctx := context.Background()
	key := fmt.Sprintf("reconcile:appointment:%d", appointmentID)

	ok, err := e.rdb.SetNX(ctx, key, "1", reconcileLockTTL).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, utils.BadRequest("a reconciliation is already running for this appointment")
	}
	return func() {
		e.rdb.Del(ctx, key)
	}, nil
}
