package main

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/tanvirahmed-dev/therapylink/availability"
	"github.com/tanvirahmed-dev/therapylink/billing"
	"github.com/tanvirahmed-dev/therapylink/booking"
	"github.com/tanvirahmed-dev/therapylink/controllers"
	"github.com/tanvirahmed-dev/therapylink/cron"
	"github.com/tanvirahmed-dev/therapylink/db"
	"github.com/tanvirahmed-dev/therapylink/notify"
	"github.com/tanvirahmed-dev/therapylink/redis"
	"github.com/tanvirahmed-dev/therapylink/routes"
	"github.com/tanvirahmed-dev/therapylink/wallet"
)

func main() {
	app := fiber.New()
	db.Init()
	if os.Getenv("AUTO_MIGRATE") == "true" {
		db.Migrate()
	}
	redis.InitRedis()

	// Core services wired explicitly; controllers stay thin.
	ledger := wallet.NewLedger(db.DB)
	dispatcher := notify.NewDispatcher(db.DB)
	resolver := availability.NewResolver(db.DB)
	bookings := booking.NewService(db.DB, ledger, dispatcher)
	engine := billing.NewEngine(db.DB, redis.Client)

	appointmentCtl := controllers.NewAppointmentController(db.DB, bookings, engine, resolver)
	walletCtl := controllers.NewWalletController(ledger)
	profileCtl := controllers.NewTherapistProfileController(db.DB)
	conversationCtl := controllers.NewConversationController(db.DB, engine)
	notificationCtl := controllers.NewNotificationController(db.DB)

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("TherapyLink API")
	})
	routes.SetupAuthRoutes(app)
	routes.SetupAppointmentRoutes(app, appointmentCtl)
	routes.SetupTherapistRoutes(app, profileCtl, appointmentCtl)
	routes.SetupWalletRoutes(app, walletCtl, notificationCtl)
	routes.SetupConversationRoutes(app, conversationCtl)

	cron.StartCronJobs(db.DB, bookings)

	if err := app.Listen(":8000"); err != nil {
		log.Fatal(err)
	}
}
