package models

import (
	"time"

	"gorm.io/gorm"
)

type Project struct {
	ID              uint64         `gorm:"primarykey" json:"id"`
	Name            string         `gorm:"type:varchar(255);not null;index" json:"name"`
	Description     string         `gorm:"type:text" json:"description"`
	StartDate       *time.Time     `json:"start_date"`
	EndDate         *time.Time     `json:"end_date"`
	ManagerUsername string         `gorm:"type:varchar(255);not null" json:"manager_username"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Tickets []Ticket `gorm:"foreignKey:ProjectID" json:"tickets,omitempty"`
}
