package models

import (
	"time"

	"gorm.io/gorm"
)

type Comment struct {
	ID             uint64         `gorm:"primarykey" json:"id"`
	TicketID       uint64         `gorm:"not null;index" json:"ticket_id"`
	Content        string         `gorm:"type:text;not null" json:"content"`
	SenderUsername string         `gorm:"type:varchar(255);not null" json:"sender_username"`
	CreatedAt      time.Time      `json:"created_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}
