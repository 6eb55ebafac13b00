package booking

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tanvirahmed-dev/therapylink/availability"
	"github.com/tanvirahmed-dev/therapylink/models"
	"github.com/tanvirahmed-dev/therapylink/utils"
	"github.com/tanvirahmed-dev/therapylink/wallet"
	"gorm.io/gorm"
)

// Notifier dispatches fire-and-forget user notifications. Failures are the
// dispatcher's problem; the booking transaction never rolls back over them.
type Notifier interface {
	Dispatch(consumerID uint, title, message, sourceType string, sourceID uint)
}

// Service is the appointment state machine: booking admission plus the
// accept/cancel/reschedule transitions. It receives its collaborators
// explicitly; nothing is looked up through ambient singletons.
type Service struct {
	db       *gorm.DB
	wallet   *wallet.Ledger
	notifier Notifier
}

func NewService(db *gorm.DB, ledger *wallet.Ledger, notifier Notifier) *Service {
	return &Service{db: db, wallet: ledger, notifier: notifier}
}

// CreateRequest is a booking admission request.
type CreateRequest struct {
	PatientID     uint         `json:"patient_id"`
	TherapistID   uint         `json:"therapist_id"`
	Date          time.Time    `json:"date"`
	Slot          string       `json:"slot"`
	DurationSecs  int64        `json:"duration_secs"`
	BookedFee     models.Money `json:"booked_fee"`
	PayFromWallet bool         `json:"pay_from_wallet"`
	TransactionID string       `json:"transaction_id"` // external payment reference when not paying from wallet
}

var daysOfWeek = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Create admits a booking. Preconditions are checked in order and each
// rejection carries its own reason; the monetary reservation and the
// appointment insert commit or roll back as one transaction. Notifications
// are dispatched after commit and never fail the booking.
func (s *Service) Create(req CreateRequest) (*models.Appointment, error) {
	var patient, therapist models.User
	if err := s.db.First(&patient, req.PatientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFound("patient not found")
		}
		return nil, err
	}
	if err := s.db.First(&therapist, req.TherapistID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFound("therapist not found")
		}
		return nil, err
	}
	var profile models.TherapistProfile
	if err := s.db.Where("user_id = ?", req.TherapistID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFound("therapist profile not found")
		}
		return nil, err
	}

	if !req.Date.After(time.Now()) {
		return nil, utils.BadRequest("appointment date must be in the future")
	}
	if req.DurationSecs <= 0 {
		return nil, utils.BadRequest("appointment has no billable duration")
	}

	// The therapist's listed session fee prices the booking unless the
	// request carries an explicit fee.
	if req.BookedFee.Amount <= 0 {
		req.BookedFee.Amount = profile.SessionFee
	}
	if req.BookedFee.Currency == "" {
		req.BookedFee.Currency = "USD"
	}
	if req.BookedFee.Amount <= 0 {
		return nil, utils.BadRequest("appointment has no billable fee")
	}

	weekday := daysOfWeek[int(req.Date.Weekday())]

	var entry models.Availability
	err := s.db.Where("therapist_id = ? AND day_index = ?", req.TherapistID, int(req.Date.Weekday())).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && entry.IsClosed) {
		return nil, utils.BadRequest("therapist is not available on %s", weekday)
	}
	if err != nil {
		return nil, err
	}

	slotInTemplate := false
	for _, slot := range entry.Slots {
		if slot == req.Slot {
			slotInTemplate = true
			break
		}
	}
	if !slotInTemplate {
		return nil, utils.BadRequest("the selected slot '%s' is not available on %s", req.Slot, weekday)
	}

	booked, err := availability.BookedSlots(s.db, req.TherapistID, req.Date)
	if err != nil {
		return nil, err
	}
	if booked[req.Slot] {
		return nil, utils.BadRequest("slot already booked")
	}
	if entry.AppointmentLimit > 0 && len(booked) >= entry.AppointmentLimit {
		return nil, utils.BadRequest("appointment limit for %s has been exceeded", weekday)
	}

	patientWallet, err := s.wallet.Get(req.PatientID)
	if err != nil {
		var notFound *utils.NotFoundError
		if errors.As(err, &notFound) {
			return nil, utils.NotFound("patient wallet not found")
		}
		return nil, err
	}

	if req.PayFromWallet {
		if patientWallet.Balance < req.BookedFee.Amount {
			return nil, utils.BadRequest("insufficient balance in patient wallet")
		}
	} else if req.TransactionID == "" {
		return nil, utils.BadRequest("transaction id is required for booked time payment")
	}

	// External payments carry the gateway's reference; wallet holds get an
	// internal one so the payment record is traceable either way.
	transactionID := req.TransactionID
	if req.PayFromWallet {
		transactionID = utils.NewTransactionID()
	}

	appointment := models.Appointment{
		TherapistID:  req.TherapistID,
		PatientID:    req.PatientID,
		Date:         req.Date,
		Slot:         req.Slot,
		Status:       models.StatusPending,
		DurationSecs: req.DurationSecs,
		FeeInfo: models.FeeInfo{
			BookedFee:            req.BookedFee,
			HoldFee:              models.Money{Currency: req.BookedFee.Currency},
			DueFee:               models.Money{Currency: req.BookedFee.Currency},
			PatientTransactionID: transactionID,
		},
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if req.PayFromWallet {
			// Re-checked conditionally at the moment of the write.
			if err := s.wallet.Hold(tx, req.PatientID, req.BookedFee.Amount); err != nil {
				return err
			}
		} else {
			if err := s.wallet.HoldExternal(tx, req.PatientID, req.BookedFee.Amount); err != nil {
				return err
			}
		}

		if err := tx.Create(&models.PaymentHistory{
			UserID:        req.PatientID,
			Purpose:       "appointment booking",
			Amount:        req.BookedFee.Amount,
			Currency:      req.BookedFee.Currency,
			TransactionID: transactionID,
			PaymentType:   models.PaymentTypeDebit,
		}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.TherapistProfile{}).
			Where("user_id = ?", req.TherapistID).
			Update("consume_count", gorm.Expr("consume_count + 1")).Error; err != nil {
			return err
		}

		if err := tx.Create(&appointment).Error; err != nil {
			// The partial unique index closes the read-then-write race: a
			// concurrent booking for the same therapist, day and slot loses
			// here instead of double-booking.
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return utils.BadRequest("slot already booked")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(req.PatientID, "New Appointment Booked",
		fmt.Sprintf("Your appointment with %s has been booked.", therapist.Name),
		"appointment", appointment.ID)
	s.notifier.Dispatch(req.TherapistID, "New Appointment Booked",
		"A new appointment has been booked with you.",
		"appointment", appointment.ID)

	return &appointment, nil
}

// TransitionParams carries the event-specific fields of a transition request.
type TransitionParams struct {
	Reason string    `json:"reason"`
	Date   time.Time `json:"date"`
	Slot   string    `json:"slot"`
}

// Transition applies a state machine event to an appointment. Illegal events
// are rejected with a message naming the only valid prior state.
func (s *Service) Transition(appointmentID uint, event models.TransitionEvent, params TransitionParams) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := s.db.First(&appointment, appointmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFound("appointment not found")
		}
		return nil, err
	}

	next, err := appointment.NextStatus(event)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"status": next}
	switch event {
	case models.EventRequestCancel:
		if params.Reason == "" {
			return nil, utils.BadRequest("a reason is required to request cancellation")
		}
		updates["cancel_reason"] = params.Reason
	case models.EventReschedule:
		if params.Reason == "" {
			return nil, utils.BadRequest("a reason is required to reschedule")
		}
		if params.Slot == "" {
			return nil, utils.BadRequest("a new slot is required to reschedule")
		}
		if !params.Date.After(time.Now()) {
			return nil, utils.BadRequest("the new appointment date must be in the future")
		}
		updates["date"] = params.Date
		updates["slot"] = params.Slot
		updates["reschedule_reason"] = params.Reason
	}

	// Guarded on the status the event was validated against, so two
	// concurrent transitions cannot both apply.
	result := s.db.Model(&models.Appointment{}).
		Where("id = ? AND status = ?", appointment.ID, appointment.Status).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, utils.BadRequest("appointment is no longer %s", appointment.Status)
	}
	appointment.Status = next

	s.dispatchTransitionEffects(&appointment, event, params)
	return &appointment, nil
}

// dispatchTransitionEffects runs the per-transition side effects. All of them
// are isolated: a failed channel creation or notification is logged, never
// returned.
func (s *Service) dispatchTransitionEffects(appointment *models.Appointment, event models.TransitionEvent, params TransitionParams) {
	switch event {
	case models.EventCancel:
		s.notifier.Dispatch(appointment.PatientID, "Appointment Cancelled",
			"Your appointment has been cancelled.", "appointment", appointment.ID)
		s.notifier.Dispatch(appointment.TherapistID, "Appointment Cancelled",
			"An appointment with you has been cancelled by the patient.", "appointment", appointment.ID)
	case models.EventRequestCancel:
		s.notifier.Dispatch(appointment.PatientID, "Cancellation Requested",
			"Your cancellation request has been submitted.", "appointment", appointment.ID)
		s.notifier.Dispatch(appointment.TherapistID, "Cancellation Requested",
			fmt.Sprintf("The patient requested to cancel an appointment: %s", params.Reason),
			"appointment", appointment.ID)
	case models.EventApproveCancel:
		s.notifier.Dispatch(appointment.PatientID, "Cancellation Approved",
			"Your cancellation request has been approved.", "appointment", appointment.ID)
	case models.EventAccept:
		conversation := models.Conversation{
			AppointmentID: appointment.ID,
			TherapistID:   appointment.TherapistID,
			PatientID:     appointment.PatientID,
		}
		if err := s.db.Where("appointment_id = ?", appointment.ID).
			FirstOrCreate(&conversation).Error; err != nil {
			log.Printf("Failed to create conversation for appointment %d: %v", appointment.ID, err)
		}
		s.notifier.Dispatch(appointment.PatientID, "Appointment Approved",
			"Your appointment has been approved by the therapist.", "appointment", appointment.ID)
	case models.EventReschedule:
		s.notifier.Dispatch(appointment.PatientID, "Appointment Rescheduled",
			fmt.Sprintf("Your missed appointment has been rescheduled to %s at %s.",
				params.Date.Format("2006-01-02"), params.Slot),
			"appointment", appointment.ID)
		s.notifier.Dispatch(appointment.TherapistID, "Appointment Rescheduled",
			"A missed appointment has been rescheduled.", "appointment", appointment.ID)
	}
}

// MarkMissed flags approved appointments whose scheduled time has fully
// elapsed without a session start. A single UPDATE, safe to re-run: an
// already-missed appointment no longer matches the predicate.
func (s *Service) MarkMissed() (int64, error) {
	result := s.db.Model(&models.Appointment{}).
		Where("status = ? AND date + (duration_secs * interval '1 second') < ?",
			models.StatusApproved, time.Now()).
		Update("status", models.StatusMissed)
	return result.RowsAffected, result.Error
}
