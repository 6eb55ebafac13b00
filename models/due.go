package models

import (
	"gorm.io/gorm"
)

// AppointmentDue is the durable record of a post-session debt, created only
// by the billing reconciliation engine when a session overruns its paid
// duration, and deleted only on full payment. It references its appointment
// by id rather than owning it.
type AppointmentDue struct {
	gorm.Model
	AppointmentID uint  `json:"appointment_id" gorm:"uniqueIndex"`
	Due           Money `json:"due" gorm:"embedded;embeddedPrefix:due_"`
}
