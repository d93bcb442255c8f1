package dto

import (
	"time"

	"github.com/yukikurage/ticket-tracker-api/internal/models"
)

// TicketDTO represents a ticket in API responses
type TicketDTO struct {
	ID                       uint64              `json:"id"`
	Title                    string              `json:"title"`
	Description              string              `json:"description"`
	Status                   models.TicketStatus `json:"status"`
	AssignedEmployeeUsername *string             `json:"assigned_employee_username"`
	ProjectID                uint64              `json:"project_id"`
	EstimatedTime            float64             `json:"estimated_time"`
	StartTime                *time.Time          `json:"start_time"`
	EndTime                  *time.Time          `json:"end_time"`
	WorkedTimeHours          float64             `json:"worked_time_hours"`
	ValidatedByAdmin         bool                `json:"validated_by_admin"`
	DueDate                  *time.Time          `json:"due_date"`
	CreatedAt                time.Time           `json:"created_at"`
	UpdatedAt                time.Time           `json:"updated_at"`
}

// TicketListResponse represents a paginated list of tickets
type TicketListResponse struct {
	Tickets    []TicketDTO `json:"tickets"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalCount int64       `json:"total_count"`
	TotalPages int         `json:"total_pages"`
}

// TimeLogDTO represents a time log entry in API responses
type TimeLogDTO struct {
	ID               uint64    `json:"id"`
	TicketID         uint64    `json:"ticket_id"`
	Date             time.Time `json:"date"`
	Duration         float64   `json:"duration"`
	EmployeeUsername string    `json:"employee_username"`
}

// CommentDTO represents a comment in API responses
type CommentDTO struct {
	ID             uint64    `json:"id"`
	TicketID       uint64    `json:"ticket_id"`
	Content        string    `json:"content"`
	SenderUsername string    `json:"sender_username"`
	CreatedAt      time.Time `json:"created_at"`
}

// StatusCountDTO maps each status to its ticket count
type StatusCountDTO map[models.TicketStatus]int64

// ToTicketDTO converts a Ticket model to TicketDTO. An unassigned ticket
// carries a null assignee.
func ToTicketDTO(ticket models.Ticket) TicketDTO {
	dto := TicketDTO{
		ID:               ticket.ID,
		Title:            ticket.Title,
		Description:      ticket.Description,
		Status:           ticket.Status,
		ProjectID:        ticket.ProjectID,
		EstimatedTime:    ticket.EstimatedTime,
		StartTime:        ticket.StartTime,
		EndTime:          ticket.EndTime,
		WorkedTimeHours:  ticket.WorkedTimeHours,
		ValidatedByAdmin: ticket.ValidatedByAdmin,
		DueDate:          ticket.DueDate,
		CreatedAt:        ticket.CreatedAt,
		UpdatedAt:        ticket.UpdatedAt,
	}
	if ticket.AssignedEmployeeUsername != "" {
		assignee := ticket.AssignedEmployeeUsername
		dto.AssignedEmployeeUsername = &assignee
	}
	return dto
}

// ToTicketListResponse converts a slice of tickets to TicketListResponse
func ToTicketListResponse(tickets []models.Ticket, page, pageSize int, totalCount int64) TicketListResponse {
	items := make([]TicketDTO, len(tickets))
	for i, ticket := range tickets {
		items[i] = ToTicketDTO(ticket)
	}

	return TicketListResponse{
		Tickets:    items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages(totalCount, pageSize),
	}
}

// ToTimeLogDTOs converts time log entries to DTOs
func ToTimeLogDTOs(entries []models.TimeLogEntry) []TimeLogDTO {
	out := make([]TimeLogDTO, len(entries))
	for i, e := range entries {
		out[i] = ToTimeLogDTO(e)
	}
	return out
}

// ToTimeLogDTO converts a time log entry to TimeLogDTO
func ToTimeLogDTO(entry models.TimeLogEntry) TimeLogDTO {
	return TimeLogDTO{
		ID:               entry.ID,
		TicketID:         entry.TicketID,
		Date:             entry.Date,
		Duration:         entry.DurationHours,
		EmployeeUsername: entry.EmployeeUsername,
	}
}

// ToCommentDTO converts a comment to CommentDTO
func ToCommentDTO(comment models.Comment) CommentDTO {
	return CommentDTO{
		ID:             comment.ID,
		TicketID:       comment.TicketID,
		Content:        comment.Content,
		SenderUsername: comment.SenderUsername,
		CreatedAt:      comment.CreatedAt,
	}
}

// ToCommentDTOs converts comments to DTOs
func ToCommentDTOs(comments []models.Comment) []CommentDTO {
	out := make([]CommentDTO, len(comments))
	for i, c := range comments {
		out[i] = ToCommentDTO(c)
	}
	return out
}

func totalPages(totalCount int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := int(totalCount) / pageSize
	if int(totalCount)%pageSize > 0 {
		pages++
	}
	return pages
}
