package notify

import (
	"fmt"
	"log"

	"github.com/tanvirahmed-dev/therapylink/models"
	"github.com/tanvirahmed-dev/therapylink/utils"
	"gorm.io/gorm"
)

// Dispatcher records notifications and best-effort emails the consumer.
// Every failure is logged and swallowed: notification delivery never blocks
// or rolls back the operation that triggered it.
type Dispatcher struct {
	db *gorm.DB
}

func NewDispatcher(db *gorm.DB) *Dispatcher {
	return &Dispatcher{db: db}
}

func (d *Dispatcher) Dispatch(consumerID uint, title, message, sourceType string, sourceID uint) {
	notification := models.Notification{
		ConsumerID: consumerID,
		Title:      title,
		Message:    message,
		SourceType: sourceType,
		SourceID:   sourceID,
	}
	if err := d.db.Create(&notification).Error; err != nil {
		log.Printf("Failed to record notification for user %d: %v", consumerID, err)
		return
	}

	var consumer models.User
	if err := d.db.First(&consumer, consumerID).Error; err != nil {
		log.Printf("Failed to load user %d for notification email: %v", consumerID, err)
		return
	}

	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>%s</p>
		<p>Best regards,</p>
		<p>Your TherapyLink Team</p>
	`, consumer.Name, message)
	if err := utils.SendEmail(consumer.Email, title, body); err != nil {
		log.Printf("Failed to send notification email to %s: %v", consumer.Email, err)
	}
}
