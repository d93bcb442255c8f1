package models

import "time"

// TimeLogEntry is append-only; rows are never updated or deleted.
type TimeLogEntry struct {
	ID               uint64    `gorm:"primarykey" json:"id"`
	TicketID         uint64    `gorm:"not null;index" json:"ticket_id"`
	Date             time.Time `gorm:"not null" json:"date"`
	DurationHours    float64   `gorm:"not null" json:"duration"`
	EmployeeUsername string    `gorm:"type:varchar(255);not null" json:"employee_username"`
	CreatedAt        time.Time `json:"created_at"`
}
