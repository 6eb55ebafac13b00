package controllers

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/lib/pq"
	"github.com/tanvirahmed-dev/therapylink/models"
	"github.com/tanvirahmed-dev/therapylink/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TherapistProfileController struct {
	DB *gorm.DB
}

func NewTherapistProfileController(db *gorm.DB) *TherapistProfileController {
	return &TherapistProfileController{DB: db}
}

// GetProfile returns a therapist's profile with the availability template.
func (ctl *TherapistProfileController) GetProfile(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid user id",
			Error:   err.Error(),
		})
	}

	var profile models.TherapistProfile
	if err := ctl.DB.Preload("Availabilities").Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "Therapist profile not found",
			Error:   err.Error(),
		})
	}
	return c.JSON(profile)
}

// UpsertProfile creates or updates the calling therapist's profile. An
// optional multipart "avatar" file is uploaded to Cloudinary.
func (ctl *TherapistProfileController) UpsertProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	profile := models.TherapistProfile{UserID: userID}
	if err := ctl.DB.Where("user_id = ?", userID).FirstOrCreate(&profile).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to load profile",
			Error:   err.Error(),
		})
	}

	if specialty := c.FormValue("specialty"); specialty != "" {
		profile.Specialty = specialty
	}
	if about := c.FormValue("about"); about != "" {
		profile.About = about
	}
	if fee := c.QueryInt("session_fee", 0); fee > 0 {
		profile.SessionFee = int64(fee)
	}

	if fileHeader, err := c.FormFile("avatar"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
				Message: "Failed to read avatar file",
				Error:   err.Error(),
			})
		}
		defer file.Close()

		url, err := utils.UploadAvatar(file, fmt.Sprintf("therapist-%d", userID))
		if err != nil {
			// Avatar upload is cosmetic; the profile update still goes through.
			log.Printf("Failed to upload avatar for user %d: %v", userID, err)
		} else {
			profile.AvatarURL = url
		}
	}

	if err := ctl.DB.Save(&profile).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to save profile",
			Error:   err.Error(),
		})
	}
	return c.JSON(profile)
}

type availabilityInput struct {
	DayIndex         int      `json:"day_index"`
	IsClosed         bool     `json:"is_closed"`
	Slots            []string `json:"slots"`
	AppointmentLimit int      `json:"appointment_limit"`
}

// SetAvailability replaces weekday entries of the calling therapist's weekly
// template. The booking engine only reads this template; it is mutated here
// and nowhere else.
func (ctl *TherapistProfileController) SetAvailability(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var inputs []availabilityInput
	if err := c.BodyParser(&inputs); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	for _, input := range inputs {
		if input.DayIndex < 0 || input.DayIndex > 6 {
			return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
				Message: "day_index must be between 0 (Sunday) and 6 (Saturday)",
				Error:   fmt.Sprintf("got %d", input.DayIndex),
			})
		}
	}

	err := ctl.DB.Transaction(func(tx *gorm.DB) error {
		for _, input := range inputs {
			entry := models.Availability{
				TherapistID:      userID,
				DayIndex:         input.DayIndex,
				IsClosed:         input.IsClosed,
				Slots:            pq.StringArray(input.Slots),
				AppointmentLimit: input.AppointmentLimit,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "therapist_id"}, {Name: "day_index"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"is_closed", "slots", "appointment_limit", "updated_at",
				}),
			}).Create(&entry).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to save availability",
			Error:   err.Error(),
		})
	}

	var entries []models.Availability
	if err := ctl.DB.Where("therapist_id = ?", userID).Order("day_index").Find(&entries).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to fetch availability",
			Error:   err.Error(),
		})
	}
	return c.JSON(entries)
}
