package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tanvirahmed-dev/therapylink/controllers"
	"github.com/tanvirahmed-dev/therapylink/middleware"
)

// SetupWalletRoutes configures wallet and notification routes
func SetupWalletRoutes(app *fiber.App, wallets *controllers.WalletController, notifications *controllers.NotificationController) {
	wallet := app.Group("/wallets", middleware.Protected())
	wallet.Get("/:userId", wallets.GetWallet)
	wallet.Post("/:userId/top-up", wallets.TopUp)

	notification := app.Group("/notifications", middleware.Protected())
	notification.Get("/:userId", notifications.ListNotifications)
	notification.Patch("/:id/seen", notifications.MarkSeen)
}
