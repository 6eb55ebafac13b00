package cron

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tanvirahmed-dev/therapylink/booking"
	"github.com/tanvirahmed-dev/therapylink/models"
	"github.com/tanvirahmed-dev/therapylink/utils"
	"gorm.io/gorm"
)

// StartCronJobs starts the periodic reconciler: every 15 minutes it marks
// elapsed approved appointments as missed and sends reminders for sessions
// starting within the next hour.
func StartCronJobs(db *gorm.DB, bookings *booking.Service) {
	c := cron.New()
	_, err := c.AddFunc("*/15 * * * *", func() {
		marked, err := bookings.MarkMissed()
		if err != nil {
			log.Printf("Error marking missed appointments: %v", err)
		} else if marked > 0 {
			log.Printf("Marked %d appointments as missed", marked)
		}
		sendAppointmentReminders(db)
	})
	if err != nil {
		log.Fatalf("Failed to add cron job: %v", err)
	}
	c.Start()
	log.Println("Cron job scheduler started for missed appointments and reminders")
}

// sendAppointmentReminders emails both parties of approved appointments
// starting in roughly one hour.
func sendAppointmentReminders(db *gorm.DB) {
	now := time.Now()
	startWindow := now.Add(55 * time.Minute)
	endWindow := now.Add(65 * time.Minute)

	var appointments []models.Appointment
	err := db.Preload("Patient").Preload("Therapist").
		Where("status = ? AND date BETWEEN ? AND ?", models.StatusApproved, startWindow, endWindow).
		Find(&appointments).Error
	if err != nil {
		log.Printf("Error fetching appointments for reminders: %v", err)
		return
	}

	for _, appointment := range appointments {
		if err := sendReminderEmail(&appointment); err != nil {
			log.Printf("Failed to send reminder for appointment %d: %v", appointment.ID, err)
			continue
		}
		log.Printf("Sent reminder for appointment %d to %s", appointment.ID, appointment.Patient.Email)
	}
}

// sendReminderEmail constructs and sends the reminder email
func sendReminderEmail(appointment *models.Appointment) error {
	subject := "Reminder: Upcoming Appointment"
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>This is a reminder for your upcoming session scheduled in one hour.</p>
		<p><strong>Details:</strong></p>
		<ul>
			<li><strong>Therapist:</strong> %s</li>
			<li><strong>Date:</strong> %s</li>
			<li><strong>Slot:</strong> %s</li>
			<li><strong>Status:</strong> %s</li>
		</ul>
		<p>Please join on time. If you need to cancel, contact us as soon as possible.</p>
		<p>Best regards,</p>
		<p>Your TherapyLink Team</p>
	`, appointment.Patient.Name, appointment.Therapist.Name,
		appointment.Date.Format("2006-01-02 15:04:05"),
		appointment.Slot, appointment.Status)

	return utils.SendEmail(appointment.Patient.Email, subject, body)
}
