package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tanvirahmed-dev/therapylink/availability"
	"github.com/tanvirahmed-dev/therapylink/billing"
	"github.com/tanvirahmed-dev/therapylink/booking"
	"github.com/tanvirahmed-dev/therapylink/models"
	"github.com/tanvirahmed-dev/therapylink/utils"
	"gorm.io/gorm"
)

// AppointmentController exposes the booking engine over HTTP. The services
// are injected at construction; handlers stay thin.
type AppointmentController struct {
	DB       *gorm.DB
	Bookings *booking.Service
	Billing  *billing.Engine
	Slots    *availability.Resolver
}

func NewAppointmentController(db *gorm.DB, bookings *booking.Service, engine *billing.Engine, slots *availability.Resolver) *AppointmentController {
	return &AppointmentController{DB: db, Bookings: bookings, Billing: engine, Slots: slots}
}

// CreateAppointment admits a new booking.
func (ctl *AppointmentController) CreateAppointment(c *fiber.Ctx) error {
	var req booking.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	appointment, err := ctl.Bookings.Create(req)
	if err != nil {
		return utils.RespondError(c, err, "Failed to create appointment")
	}
	return c.Status(fiber.StatusCreated).JSON(appointment)
}

// GetAppointment returns an appointment by ID.
func (ctl *AppointmentController) GetAppointment(c *fiber.Ctx) error {
	id := c.Params("id")
	var appointment models.Appointment
	if err := ctl.DB.Preload("Therapist").Preload("Patient").First(&appointment, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "Appointment not found",
			Error:   err.Error(),
		})
	}
	return c.JSON(appointment)
}

// ListAppointments returns a user's appointments filtered by status, with
// skip/limit paging. ?as=therapist lists the therapist side.
func (ctl *AppointmentController) ListAppointments(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid user id",
			Error:   err.Error(),
		})
	}
	status := c.Query("status")
	skip := c.QueryInt("skip", 0)
	limit := c.QueryInt("limit", 20)

	column := "patient_id"
	if c.Query("as") == models.RoleTherapist {
		column = "therapist_id"
	}

	query := ctl.DB.Where(column+" = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var appointments []models.Appointment
	if err := query.Order("date").Offset(skip).Limit(limit).Find(&appointments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to fetch appointments",
			Error:   err.Error(),
		})
	}
	return c.JSON(appointments)
}

type transitionInput struct {
	Event  string `json:"event"`
	Reason string `json:"reason"`
	Date   string `json:"date"`
	Slot   string `json:"slot"`
}

// TransitionAppointment applies a state machine event (accept, cancel,
// request-cancel, approve-cancel, reschedule) to an appointment.
func (ctl *AppointmentController) TransitionAppointment(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid appointment id",
			Error:   err.Error(),
		})
	}

	var input transitionInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	params := booking.TransitionParams{Reason: input.Reason, Slot: input.Slot}
	if input.Date != "" {
		date, err := parseDate(input.Date)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
				Message: "Invalid date, expected RFC3339 or YYYY-MM-DD",
				Error:   err.Error(),
			})
		}
		params.Date = date
	}

	appointment, err := ctl.Bookings.Transition(uint(id), models.TransitionEvent(input.Event), params)
	if err != nil {
		return utils.RespondError(c, err, "Failed to transition appointment")
	}
	return c.JSON(appointment)
}

// GetOpenSlots returns a therapist's open slots for ?date=YYYY-MM-DD.
func (ctl *AppointmentController) GetOpenSlots(c *fiber.Ctx) error {
	therapistID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid therapist id",
			Error:   err.Error(),
		})
	}

	rawDate := c.Query("date")
	if rawDate == "" {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "date is required",
			Error:   "missing date query parameter",
		})
	}
	date, err := parseDate(rawDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid date, expected RFC3339 or YYYY-MM-DD",
			Error:   err.Error(),
		})
	}

	slots, err := ctl.Slots.ResolveOpenSlots(uint(therapistID), date)
	if err != nil {
		return utils.RespondError(c, err, "Failed to resolve open slots")
	}
	return c.JSON(fiber.Map{"date": rawDate, "slots": slots})
}

// SettleDue clears the outstanding due for an appointment in full.
func (ctl *AppointmentController) SettleDue(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid appointment id",
			Error:   err.Error(),
		})
	}

	var payment billing.DuePayment
	if err := c.BodyParser(&payment); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	if err := ctl.Billing.SettleDue(uint(id), payment); err != nil {
		return utils.RespondError(c, err, "Failed to settle due")
	}
	return c.JSON(fiber.Map{"message": "Due settled successfully"})
}

// parseDate accepts RFC3339 timestamps or bare YYYY-MM-DD dates, the latter
// interpreted in the server's local time zone.
func parseDate(raw string) (time.Time, error) {
	if date, err := time.Parse(time.RFC3339, raw); err == nil {
		return date, nil
	}
	return time.ParseInLocation("2006-01-02", raw, time.Local)
}
