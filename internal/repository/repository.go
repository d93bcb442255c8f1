package repository

import (
	"context"

	"github.com/yukikurage/ticket-tracker-api/internal/models"
)

// TicketRepository defines the interface for ticket data access
type TicketRepository interface {
	// Create creates a new ticket
	Create(ctx context.Context, ticket *models.Ticket) error

	// FindByID finds a ticket by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Ticket, error)

	// Update saves every column of a ticket, leaving associations untouched
	Update(ctx context.Context, ticket *models.Ticket) error

	// UpdateFields updates the given columns only
	UpdateFields(ctx context.Context, id uint64, fields map[string]interface{}) error

	// List retrieves tickets with filtering and pagination
	List(ctx context.Context, filter TicketFilter) ([]models.Ticket, int64, error)

	// CountByStatus groups tickets by status, optionally within one project name
	CountByStatus(ctx context.Context, projectName string) (map[models.TicketStatus]int64, error)

	// ListWithWorkInterval returns tickets whose start and end time are both set,
	// with their project preloaded
	ListWithWorkInterval(ctx context.Context) ([]models.Ticket, error)

	// ListDeadlineCandidates returns open, assigned tickets with a due date that
	// still have a deadline notice pending
	ListDeadlineCandidates(ctx context.Context) ([]models.Ticket, error)
}

// TicketFilter holds filtering options for listing tickets
type TicketFilter struct {
	AssigneeUsername string
	ProjectName      string
	Status           *models.TicketStatus
	Page             int
	PageSize         int
}

// TimeLogRepository defines the interface for time log data access
type TimeLogRepository interface {
	// Append stores entry and refreshes the owning ticket's worked hours in the
	// same transaction. It returns the new total.
	Append(ctx context.Context, entry *models.TimeLogEntry) (float64, error)

	// ListByTicketID lists entries of a ticket, oldest first
	ListByTicketID(ctx context.Context, ticketID uint64) ([]models.TimeLogEntry, error)

	// SumByTicketID recomputes the worked hours of a ticket from its entries
	SumByTicketID(ctx context.Context, ticketID uint64) (float64, error)
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a new project
	Create(ctx context.Context, project *models.Project) error

	// FindByID finds a project by ID
	FindByID(ctx context.Context, id uint64) (*models.Project, error)

	// List retrieves projects, newest first
	List(ctx context.Context, page, pageSize int) ([]models.Project, int64, error)

	// Delete soft deletes a project together with its tickets and their comments
	Delete(ctx context.Context, id uint64) error
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	// Create creates a new comment
	Create(ctx context.Context, comment *models.Comment) error

	// ListByTicketID lists comments of a ticket, oldest first
	ListByTicketID(ctx context.Context, ticketID uint64) ([]models.Comment, error)
}
