package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tanvirahmed-dev/therapylink/billing"
	"github.com/tanvirahmed-dev/therapylink/models"
	"github.com/tanvirahmed-dev/therapylink/utils"
	"gorm.io/gorm"
)

// ConversationController serves the communication channel bound to an
// approved appointment and the call lifecycle that feeds billing
// reconciliation.
type ConversationController struct {
	DB      *gorm.DB
	Billing *billing.Engine
}

func NewConversationController(db *gorm.DB, engine *billing.Engine) *ConversationController {
	return &ConversationController{DB: db, Billing: engine}
}

// GetByAppointment returns the conversation channel for an appointment.
func (ctl *ConversationController) GetByAppointment(c *fiber.Ctx) error {
	appointmentID, err := c.ParamsInt("appointmentId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid appointment id",
			Error:   err.Error(),
		})
	}

	var conversation models.Conversation
	if err := ctl.DB.Where("appointment_id = ?", appointmentID).First(&conversation).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "Conversation channel hasn't initialized yet, wait for approved appointment!",
			Error:   err.Error(),
		})
	}
	return c.JSON(conversation)
}

type startCallInput struct {
	ConversationID uint   `json:"conversation_id"`
	UserID         uint   `json:"user_id"`
	CallType       string `json:"call_type"` // audio or video
}

// StartCall opens a call log for an ongoing session.
func (ctl *ConversationController) StartCall(c *fiber.Ctx) error {
	var input startCallInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}
	if input.ConversationID == 0 || input.UserID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Conversation ID and User ID are required",
			Error:   "missing required field",
		})
	}

	var conversation models.Conversation
	if err := ctl.DB.First(&conversation, input.ConversationID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "Conversation not found",
			Error:   err.Error(),
		})
	}

	if input.UserID != conversation.PatientID && input.UserID != conversation.TherapistID {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "You are unauthorized to start this call",
			Error:   "caller is not a participant",
		})
	}

	if input.CallType == "" {
		input.CallType = "audio"
	}

	callLog := models.CallLog{
		ConversationID: conversation.ID,
		AppointmentID:  conversation.AppointmentID,
		SenderID:       conversation.TherapistID,
		ReceiverID:     conversation.PatientID,
		StartedAt:      time.Now(),
		Type:           input.CallType,
		Status:         models.CallOngoing,
	}
	if err := ctl.DB.Create(&callLog).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to create call log",
			Error:   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"call_log_id":    callLog.ID,
		"appointment_id": conversation.AppointmentID,
	})
}

type endCallInput struct {
	AppointmentID  uint  `json:"appointment_id"`
	ElapsedSeconds int64 `json:"elapsed_seconds"`
	CallLogID      uint  `json:"call_log_id"`
}

// EndCall closes the call log and reconciles the elapsed session time
// against the appointment's pre-paid fee, returning the session summary.
func (ctl *ConversationController) EndCall(c *fiber.Ctx) error {
	var input endCallInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}
	if input.AppointmentID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Appointment ID and valid total call duration are required",
			Error:   "missing required field",
		})
	}

	result, err := ctl.Billing.ReconcileSessionEnd(input.AppointmentID, input.ElapsedSeconds)
	if err != nil {
		return utils.RespondError(c, err, "Failed to reconcile session")
	}

	if input.CallLogID != 0 {
		now := time.Now()
		err := ctl.DB.Model(&models.CallLog{}).
			Where("id = ?", input.CallLogID).
			Updates(map[string]interface{}{
				"ended_at":      &now,
				"duration_secs": input.ElapsedSeconds,
				"status":        models.CallEnded,
			}).Error
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
				Message: "Session reconciled but failed to close call log",
				Error:   err.Error(),
			})
		}
	}

	return c.JSON(fiber.Map{
		"total_call_duration": fiber.Map{"amount": input.ElapsedSeconds, "unit": "seconds"},
		"consumed_amount":     result.ConsumedAmount,
		"due_amount":          result.DueAmount,
		"due_id":              result.DueID,
		"need_pay":            result.DueAmount > 0,
		"appointment_id":      input.AppointmentID,
	})
}
