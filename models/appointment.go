package models

import (
	"time"

	"github.com/tanvirahmed-dev/therapylink/utils"
	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	StatusPending         AppointmentStatus = "pending"
	StatusApproved        AppointmentStatus = "approved"
	StatusCancelled       AppointmentStatus = "cancelled"
	StatusCancelRequested AppointmentStatus = "cancelled-requested"
	StatusCancelApproved  AppointmentStatus = "cancelled-approved"
	StatusMissed          AppointmentStatus = "missed"
	StatusRescheduled     AppointmentStatus = "rescheduled"
)

// TerminalStatuses are the statuses that no longer occupy a slot.
var TerminalStatuses = []AppointmentStatus{StatusCancelled, StatusMissed, StatusCancelApproved}

type TransitionEvent string

const (
	EventCancel        TransitionEvent = "cancel"         // patient, before approval
	EventRequestCancel TransitionEvent = "request-cancel" // patient, after approval
	EventApproveCancel TransitionEvent = "approve-cancel" // therapist confirms the cancel request
	EventAccept        TransitionEvent = "accept"         // therapist approves the booking
	EventReschedule    TransitionEvent = "reschedule"     // therapist reschedules a missed session
)

// Money is an amount in integer minor units with its currency code.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency" gorm:"size:3;default:USD"`
}

// FeeInfo is the appointment's four money buckets. BookedFee is reserved and
// refundable; HoldFee is settled/payable; DueFee is owed beyond the pre-paid
// amount. Their sum is conserved across a reconciliation except for funds
// introduced by an out-of-band due payment.
type FeeInfo struct {
	BookedFee            Money  `json:"booked_fee" gorm:"embedded;embeddedPrefix:booked_fee_"`
	HoldFee              Money  `json:"hold_fee" gorm:"embedded;embeddedPrefix:hold_fee_"`
	DueFee               Money  `json:"due_fee" gorm:"embedded;embeddedPrefix:due_fee_"`
	PatientTransactionID string `json:"patient_transaction_id"`
}

type Appointment struct {
	gorm.Model
	TherapistID      uint              `json:"therapist_id"`
	Therapist        User              `json:"therapist,omitempty" gorm:"foreignKey:TherapistID"`
	PatientID        uint              `json:"patient_id"`
	Patient          User              `json:"patient,omitempty" gorm:"foreignKey:PatientID"`
	Date             time.Time         `json:"date"`
	Slot             string            `json:"slot"`
	Status           AppointmentStatus `json:"status"`
	DurationSecs     int64             `json:"duration_secs"` // session seconds the booked fee pays for
	FeeInfo          FeeInfo           `json:"fee_info" gorm:"embedded"`
	CancelReason     string            `json:"cancel_reason"`
	RescheduleReason string            `json:"reschedule_reason"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.Status == "" {
		a.Status = StatusPending
	}
	return nil
}

// NextStatus returns the status the given event leads to, or a BadRequestError
// naming the only status the event is legal from.
func (a *Appointment) NextStatus(event TransitionEvent) (AppointmentStatus, error) {
	switch event {
	case EventCancel:
		if a.Status != StatusPending {
			return "", utils.BadRequest("only a pending appointment can be cancelled, current status is %s", a.Status)
		}
		return StatusCancelled, nil
	case EventRequestCancel:
		if a.Status != StatusApproved {
			return "", utils.BadRequest("only an approved appointment can request cancellation, current status is %s", a.Status)
		}
		return StatusCancelRequested, nil
	case EventApproveCancel:
		if a.Status != StatusCancelRequested {
			return "", utils.BadRequest("only a cancelled-requested appointment can be cancel-approved, current status is %s", a.Status)
		}
		return StatusCancelApproved, nil
	case EventAccept:
		if a.Status != StatusPending {
			return "", utils.BadRequest("only a pending appointment can be accepted, current status is %s", a.Status)
		}
		return StatusApproved, nil
	case EventReschedule:
		if a.Status != StatusMissed {
			return "", utils.BadRequest("only a missed appointment can be rescheduled, current status is %s", a.Status)
		}
		return StatusRescheduled, nil
	default:
		return "", utils.BadRequest("unknown transition event '%s'", event)
	}
}
