package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tanvirahmed-dev/therapylink/controllers"
)

// SetupAuthRoutes configures authentication routes
func SetupAuthRoutes(app *fiber.App) {
	auth := app.Group("/auth")
	auth.Post("/register", controllers.Register)
	auth.Post("/verify", controllers.VerifyOTP)
	auth.Post("/login", controllers.Login)
	auth.Post("/refresh", controllers.RefreshToken)
}
