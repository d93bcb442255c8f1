package models

import (
	"time"

	"gorm.io/gorm"
)

type TicketStatus string

const (
	TicketStatusTodo       TicketStatus = "TODO"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusDone       TicketStatus = "DONE"
	TicketStatusValidated  TicketStatus = "VALIDATED"
)

// Valid reports whether s is one of the known lifecycle states.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusTodo, TicketStatusInProgress, TicketStatusDone, TicketStatusValidated:
		return true
	}
	return false
}

// Terminal reports whether no further lifecycle mutation is allowed.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusValidated
}

type Ticket struct {
	ID                       uint64         `gorm:"primarykey" json:"id"`
	Title                    string         `gorm:"type:varchar(255);not null" json:"title"`
	Description              string         `gorm:"type:text" json:"description"`
	Status                   TicketStatus   `gorm:"type:varchar(20);not null;default:'TODO';index" json:"status"`
	AssignedEmployeeUsername string         `gorm:"type:varchar(255);index" json:"assigned_employee_username"`
	ProjectID                uint64         `gorm:"not null;index" json:"project_id"`
	EstimatedTime            float64        `gorm:"not null;default:0" json:"estimated_time"`
	StartTime                *time.Time     `json:"start_time"`
	EndTime                  *time.Time     `json:"end_time"`
	WorkedTimeHours          float64        `gorm:"not null;default:0" json:"worked_time_hours"`
	ValidatedByAdmin         bool           `gorm:"not null;default:false" json:"validated_by_admin"`
	DueDate                  *time.Time     `json:"due_date"`
	DeadlineWarningSent      bool           `gorm:"not null;default:false" json:"-"`
	DeadlineExceededSent     bool           `gorm:"not null;default:false" json:"-"`
	CreatedAt                time.Time      `json:"created_at"`
	UpdatedAt                time.Time      `json:"updated_at"`
	DeletedAt                gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Project  Project        `gorm:"foreignKey:ProjectID" json:"-"`
	TimeLogs []TimeLogEntry `gorm:"foreignKey:TicketID" json:"-"`
	Comments []Comment      `gorm:"foreignKey:TicketID" json:"-"`
}

// HasWorkInterval reports whether both ends of the last worked interval are set.
func (t *Ticket) HasWorkInterval() bool {
	return t.StartTime != nil && t.EndTime != nil
}
