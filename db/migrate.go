package db

import (
	"fmt"
	"log"

	"github.com/tanvirahmed-dev/therapylink/models"
)

func Migrate() {
	err := DB.AutoMigrate(
		&models.User{},
		&models.TherapistProfile{},
		&models.Availability{},
		&models.Wallet{},
		&models.Appointment{},
		&models.AppointmentDue{},
		&models.PaymentHistory{},
		&models.Notification{},
		&models.Conversation{},
		&models.CallLog{},
	)
	if err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}

	// Slot exclusivity: at most one non-terminal appointment per therapist,
	// calendar day and slot. Booking re-validates against this index inside
	// its transaction, so a read-then-write race ends in a constraint
	// violation instead of a double booking.
	err = DB.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_slot_exclusive
		ON appointments (therapist_id, (date::date), slot)
		WHERE status NOT IN ('cancelled', 'missed', 'cancelled-approved')
		AND deleted_at IS NULL
	`).Error
	if err != nil {
		log.Fatal("Failed to create slot exclusivity index: ", err)
	}

	fmt.Println("✅ Migrations applied successfully!")
}
