package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tanvirahmed-dev/therapylink/models"
	"github.com/tanvirahmed-dev/therapylink/utils"
	"gorm.io/gorm"
)

type NotificationController struct {
	DB *gorm.DB
}

func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{DB: db}
}

// ListNotifications returns a user's notifications, newest first.
func (ctl *NotificationController) ListNotifications(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
			Message: "Invalid user id",
			Error:   err.Error(),
		})
	}

	var notifications []models.Notification
	if err := ctl.DB.Where("consumer_id = ?", userID).Order("created_at DESC").Find(&notifications).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to fetch notifications",
			Error:   err.Error(),
		})
	}
	return c.JSON(notifications)
}

// MarkSeen flags a notification as seen.
func (ctl *NotificationController) MarkSeen(c *fiber.Ctx) error {
	id := c.Params("id")
	result := ctl.DB.Model(&models.Notification{}).Where("id = ?", id).Update("seen", true)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(utils.ErrorResponse{
			Message: "Failed to update notification",
			Error:   result.Error.Error(),
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(utils.ErrorResponse{
			Message: "Notification not found",
			Error:   "no notification with that id",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
