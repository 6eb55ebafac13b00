package models

import (
	"gorm.io/gorm"
)

type Notification struct {
	gorm.Model
	ConsumerID uint   `json:"consumer_id" gorm:"index"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	SourceType string `json:"source_type"` // e.g. "appointment"
	SourceID   uint   `json:"source_id"`
	Seen       bool   `json:"seen"`
}
