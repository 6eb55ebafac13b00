package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tanvirahmed-dev/therapylink/controllers"
	"github.com/tanvirahmed-dev/therapylink/middleware"
)

// SetupConversationRoutes configures conversation and call routes
func SetupConversationRoutes(app *fiber.App, ctl *controllers.ConversationController) {
	conversation := app.Group("/conversations", middleware.Protected())
	conversation.Get("/appointment/:appointmentId", ctl.GetByAppointment)
	conversation.Post("/call/start", ctl.StartCall)
	conversation.Post("/call/end", ctl.EndCall)
}
