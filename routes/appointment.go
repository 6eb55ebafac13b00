package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tanvirahmed-dev/therapylink/controllers"
	"github.com/tanvirahmed-dev/therapylink/middleware"
)

// SetupAppointmentRoutes configures all appointment related routes
func SetupAppointmentRoutes(app *fiber.App, ctl *controllers.AppointmentController) {
	appointment := app.Group("/appointments")
	appointment.Post("/", middleware.Protected(), ctl.CreateAppointment)
	appointment.Get("/user/:userId", middleware.Protected(), ctl.ListAppointments)
	appointment.Get("/:id", middleware.Protected(), ctl.GetAppointment)
	appointment.Post("/:id/transition", middleware.Protected(), ctl.TransitionAppointment)
	appointment.Post("/:id/due/settle", middleware.Protected(), ctl.SettleDue)
}
