package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tanvirahmed-dev/therapylink/controllers"
	"github.com/tanvirahmed-dev/therapylink/middleware"
	"github.com/tanvirahmed-dev/therapylink/models"
)

// SetupTherapistRoutes configures therapist profile, availability and
// open-slot routes
func SetupTherapistRoutes(app *fiber.App, profiles *controllers.TherapistProfileController, appointments *controllers.AppointmentController) {
	therapist := app.Group("/therapists")
	therapist.Get("/:id/slots", appointments.GetOpenSlots)
	therapist.Get("/:userId/profile", profiles.GetProfile)
	therapist.Put("/profile", middleware.Protected(), middleware.RequireRole(models.RoleTherapist), profiles.UpsertProfile)
	therapist.Put("/availability", middleware.Protected(), middleware.RequireRole(models.RoleTherapist), profiles.SetAvailability)
}
