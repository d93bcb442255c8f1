package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yukikurage/ticket-tracker-api/internal/auth"
	"github.com/yukikurage/ticket-tracker-api/internal/constants"
	"github.com/yukikurage/ticket-tracker-api/internal/models"
	"github.com/yukikurage/ticket-tracker-api/internal/repository"
	"gorm.io/gorm"
)

// TicketService owns the ticket lifecycle and time accounting
type TicketService struct {
	ticketRepo  repository.TicketRepository
	timeLogRepo repository.TimeLogRepository
	projectRepo repository.ProjectRepository
	notifier    Notifier
	drafter     TicketDrafter
	log         zerolog.Logger
	now         func() time.Time
}

// NewTicketService creates a new TicketService. notifier and drafter may be nil.
func NewTicketService(
	ticketRepo repository.TicketRepository,
	timeLogRepo repository.TimeLogRepository,
	projectRepo repository.ProjectRepository,
	notifier Notifier,
	drafter TicketDrafter,
	log zerolog.Logger,
) *TicketService {
	return &TicketService{
		ticketRepo:  ticketRepo,
		timeLogRepo: timeLogRepo,
		projectRepo: projectRepo,
		notifier:    orNop(notifier),
		drafter:     drafter,
		log:         log.With().Str("component", "ticket_service").Logger(),
		now:         time.Now,
	}
}

// CreateTicketInput represents input for creating a ticket
type CreateTicketInput struct {
	Title                    string
	Description              string
	AssignedEmployeeUsername string
	EstimatedTime            float64
	DueDate                  *time.Time
}

// ListTicketsInput represents filters for listing a user's tickets
type ListTicketsInput struct {
	Username    string
	ProjectName string
	Page        int
	PageSize    int
}

// WorkTimeSummary is the worked time of one employee on one project
type WorkTimeSummary struct {
	ProjectName      string `json:"project_name"`
	EmployeeUsername string `json:"employee_username"`
	Minutes          int64  `json:"minutes"`
}

// CanModifyTicket reports whether actor may change the ticket's status:
// the current assignee or any admin.
func CanModifyTicket(ticket *models.Ticket, actor auth.Principal) bool {
	if actor.IsAdmin() {
		return true
	}
	return ticket.AssignedEmployeeUsername != "" && ticket.AssignedEmployeeUsername == actor.Username
}

func (s *TicketService) findTicket(ctx context.Context, id uint64, preload ...string) (*models.Ticket, error) {
	ticket, err := s.ticketRepo.FindByID(ctx, id, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to find ticket: %w", err)
	}
	return ticket, nil
}

func (s *TicketService) findProject(ctx context.Context, id uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

// CreateTicket creates a TODO ticket in a project and notifies the initial assignee
func (s *TicketService) CreateTicket(ctx context.Context, projectID uint64, input CreateTicketInput, actingManager string) (*models.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if input.EstimatedTime < 0 {
		return nil, ErrInvalidEstimate
	}

	if _, err := s.findProject(ctx, projectID); err != nil {
		return nil, err
	}

	now := s.now()
	ticket := &models.Ticket{
		Title:                    title,
		Description:              input.Description,
		Status:                   models.TicketStatusTodo,
		AssignedEmployeeUsername: strings.TrimSpace(input.AssignedEmployeeUsername),
		ProjectID:                projectID,
		EstimatedTime:            input.EstimatedTime,
		DueDate:                  input.DueDate,
		CreatedAt:                now,
		UpdatedAt:                now,
	}

	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	s.log.Info().Uint64("ticket_id", ticket.ID).Uint64("project_id", projectID).Str("manager", actingManager).Msg("ticket created")

	if ticket.AssignedEmployeeUsername != "" {
		notify(s.log, "ticket_assignment", func() bool {
			return s.notifier.NotifyTicketAssignment(ticket.AssignedEmployeeUsername, actingManager, ticket.Title)
		})
	}

	return ticket, nil
}

// AssignTicket replaces the assignee. Re-assigning the same employee emits nothing.
func (s *TicketService) AssignTicket(ctx context.Context, ticketID uint64, employee, actingManager string) (*models.Ticket, error) {
	employee = strings.TrimSpace(employee)
	if employee == "" {
		return nil, ErrAssigneeRequired
	}

	ticket, err := s.findTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.Terminal() {
		return nil, ErrTicketValidated
	}

	previous := ticket.AssignedEmployeeUsername
	ticket.AssignedEmployeeUsername = employee
	ticket.UpdatedAt = s.now()

	if err := s.ticketRepo.Update(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to assign ticket: %w", err)
	}

	if previous != employee {
		s.log.Info().Uint64("ticket_id", ticket.ID).Str("from", previous).Str("to", employee).Msg("ticket reassigned")
		notify(s.log, "ticket_assignment", func() bool {
			return s.notifier.NotifyTicketAssignment(employee, actingManager, ticket.Title)
		})
	}

	return ticket, nil
}

// UpdateStatus applies a new status on behalf of the assignee or an admin.
// Moving to VALIDATED goes through the same rules as ValidateTicket.
func (s *TicketService) UpdateStatus(ctx context.Context, ticketID uint64, newStatus models.TicketStatus, actor auth.Principal) (*models.Ticket, error) {
	if !newStatus.Valid() {
		return nil, ErrInvalidStatus
	}

	ticket, err := s.findTicket(ctx, ticketID, "Project")
	if err != nil {
		return nil, err
	}

	if !CanModifyTicket(ticket, actor) {
		return nil, ErrNotAssigneeOrAdmin
	}
	if ticket.Status.Terminal() {
		return nil, ErrTicketValidated
	}
	if newStatus == models.TicketStatusValidated {
		return s.validate(ctx, ticket, actor)
	}

	oldStatus := ticket.Status
	ticket.Status = newStatus
	ticket.UpdatedAt = s.now()

	if err := s.ticketRepo.Update(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to update ticket status: %w", err)
	}

	s.log.Info().Uint64("ticket_id", ticket.ID).Str("from", string(oldStatus)).Str("to", string(newStatus)).Str("actor", actor.Username).Msg("ticket status changed")

	for _, recipient := range statusRecipients(ticket, actor.Username) {
		notify(s.log, "ticket_status", func() bool {
			return s.notifier.NotifyTicketStatusChange(recipient, ticket.Title, string(oldStatus), string(newStatus))
		})
	}

	return ticket, nil
}

// statusRecipients lists who hears about a status change: the assignee and
// the project manager, never the actor and never twice.
func statusRecipients(ticket *models.Ticket, actor string) []string {
	var out []string
	for _, u := range []string{ticket.AssignedEmployeeUsername, ticket.Project.ManagerUsername} {
		if u == "" || u == actor {
			continue
		}
		if len(out) == 1 && out[0] == u {
			continue
		}
		out = append(out, u)
	}
	return out
}

// ValidateTicket moves a DONE ticket to VALIDATED. Admin only.
func (s *TicketService) ValidateTicket(ctx context.Context, ticketID uint64, actor auth.Principal) (*models.Ticket, error) {
	ticket, err := s.findTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return s.validate(ctx, ticket, actor)
}

func (s *TicketService) validate(ctx context.Context, ticket *models.Ticket, actor auth.Principal) (*models.Ticket, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminRequired
	}
	switch ticket.Status {
	case models.TicketStatusDone:
	case models.TicketStatusValidated:
		return nil, ErrTicketValidated
	default:
		return nil, ErrTicketNotDone
	}

	ticket.Status = models.TicketStatusValidated
	ticket.ValidatedByAdmin = true
	ticket.UpdatedAt = s.now()

	if err := s.ticketRepo.Update(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to validate ticket: %w", err)
	}

	s.log.Info().Uint64("ticket_id", ticket.ID).Str("admin", actor.Username).Msg("ticket validated")

	if ticket.AssignedEmployeeUsername != "" {
		notify(s.log, "ticket_status", func() bool {
			return s.notifier.NotifyTicketStatusChange(ticket.AssignedEmployeeUsername, ticket.Title,
				string(models.TicketStatusDone), string(models.TicketStatusValidated))
		})
	}

	return ticket, nil
}

// LogWorkTime records [start, end) as the ticket's worked interval, replacing
// the previous one. The estimate check adds the new interval to the previous
// interval only, not to the time log history.
func (s *TicketService) LogWorkTime(ctx context.Context, ticketID uint64, start, end time.Time, actingUsername string) (*models.Ticket, error) {
	ticket, err := s.findTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if ticket.AssignedEmployeeUsername == "" || ticket.AssignedEmployeeUsername != actingUsername {
		return nil, ErrNotAssignee
	}
	if ticket.Status.Terminal() {
		return nil, ErrTicketValidated
	}
	if !end.After(start) {
		return nil, ErrInvalidInterval
	}

	workedHours := end.Sub(start).Minutes() / 60
	var previousHours float64
	if ticket.HasWorkInterval() {
		previousHours = ticket.EndTime.Sub(*ticket.StartTime).Minutes() / 60
	}

	if previousHours+workedHours > ticket.EstimatedTime {
		s.log.Info().
			Uint64("ticket_id", ticket.ID).
			Float64("previous_hours", previousHours).
			Float64("worked_hours", workedHours).
			Float64("estimated_hours", ticket.EstimatedTime).
			Msg("work time rejected: estimate exceeded")
		return nil, ErrEstimateExceeded
	}

	ticket.StartTime = &start
	ticket.EndTime = &end
	ticket.UpdatedAt = s.now()

	if err := s.ticketRepo.Update(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to log work time: %w", err)
	}

	s.log.Info().Uint64("ticket_id", ticket.ID).Float64("hours", workedHours).Str("employee", actingUsername).Msg("work time logged")
	return ticket, nil
}

// SaveTimeLog appends a time log entry and refreshes the ticket's worked hours
func (s *TicketService) SaveTimeLog(ctx context.Context, ticketID uint64, date time.Time, durationHours float64, employeeUsername string) (*models.TimeLogEntry, error) {
	employeeUsername = strings.TrimSpace(employeeUsername)
	if employeeUsername == "" {
		return nil, ErrEmployeeRequired
	}
	if durationHours <= 0 {
		return nil, ErrInvalidDuration
	}

	ticket, err := s.findTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.Terminal() {
		return nil, ErrTicketValidated
	}

	entry := &models.TimeLogEntry{
		TicketID:         ticket.ID,
		Date:             date,
		DurationHours:    durationHours,
		EmployeeUsername: employeeUsername,
	}

	total, err := s.timeLogRepo.Append(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("failed to save time log: %w", err)
	}

	s.log.Info().Uint64("ticket_id", ticket.ID).Float64("duration", durationHours).Float64("worked_total", total).Msg("time log saved")
	return entry, nil
}

// GetTicket returns a ticket by ID
func (s *TicketService) GetTicket(ctx context.Context, ticketID uint64) (*models.Ticket, error) {
	return s.findTicket(ctx, ticketID)
}

// ListMyTickets returns tickets assigned to a user, optionally within one project
func (s *TicketService) ListMyTickets(ctx context.Context, input ListTicketsInput) ([]models.Ticket, int64, error) {
	tickets, total, err := s.ticketRepo.List(ctx, repository.TicketFilter{
		AssigneeUsername: input.Username,
		ProjectName:      strings.TrimSpace(input.ProjectName),
		Page:             input.Page,
		PageSize:         input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, total, nil
}

// ListValidatedTickets returns every validated ticket
func (s *TicketService) ListValidatedTickets(ctx context.Context, page, pageSize int) ([]models.Ticket, int64, error) {
	validated := models.TicketStatusValidated
	tickets, total, err := s.ticketRepo.List(ctx, repository.TicketFilter{
		Status:   &validated,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list validated tickets: %w", err)
	}
	return tickets, total, nil
}

// ListTimeLogs returns the time log entries of a ticket
func (s *TicketService) ListTimeLogs(ctx context.Context, ticketID uint64) ([]models.TimeLogEntry, error) {
	if _, err := s.findTicket(ctx, ticketID); err != nil {
		return nil, err
	}

	entries, err := s.timeLogRepo.ListByTicketID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to list time logs: %w", err)
	}
	return entries, nil
}

// CountTicketsByStatus counts tickets per status. Every status is present in
// the result, with zero when no ticket has it.
func (s *TicketService) CountTicketsByStatus(ctx context.Context, projectName string) (map[models.TicketStatus]int64, error) {
	counts, err := s.ticketRepo.CountByStatus(ctx, strings.TrimSpace(projectName))
	if err != nil {
		return nil, fmt.Errorf("failed to count tickets: %w", err)
	}

	result := map[models.TicketStatus]int64{
		models.TicketStatusTodo:       0,
		models.TicketStatusInProgress: 0,
		models.TicketStatusDone:       0,
		models.TicketStatusValidated:  0,
	}
	for status, n := range counts {
		result[status] = n
	}
	return result, nil
}

// WorkTimePerProjectAndEmployee sums, per project and assignee, the minutes
// between start and end of every ticket that has both set.
func (s *TicketService) WorkTimePerProjectAndEmployee(ctx context.Context) ([]WorkTimeSummary, error) {
	tickets, err := s.ticketRepo.ListWithWorkInterval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load work intervals: %w", err)
	}

	type key struct{ project, employee string }
	totals := make(map[key]int64)
	for _, t := range tickets {
		if !t.HasWorkInterval() {
			continue
		}
		k := key{project: t.Project.Name, employee: t.AssignedEmployeeUsername}
		totals[k] += int64(t.EndTime.Sub(*t.StartTime) / time.Minute)
	}

	summaries := make([]WorkTimeSummary, 0, len(totals))
	for k, minutes := range totals {
		summaries = append(summaries, WorkTimeSummary{
			ProjectName:      k.project,
			EmployeeUsername: k.employee,
			Minutes:          minutes,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].ProjectName != summaries[j].ProjectName {
			return summaries[i].ProjectName < summaries[j].ProjectName
		}
		return summaries[i].EmployeeUsername < summaries[j].EmployeeUsername
	})

	return summaries, nil
}

// GenerateTickets drafts tickets for a project from free text. Nothing is persisted.
func (s *TicketService) GenerateTickets(ctx context.Context, projectID uint64, text string) ([]GeneratedTicket, error) {
	if s.drafter == nil {
		return nil, ErrAIServiceNotConfigured
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrContentRequired
	}

	project, err := s.findProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	drafts, err := s.drafter.DraftTickets(ctx, project.Name, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tickets: %w", err)
	}

	if len(drafts) == 0 {
		return nil, ErrAINoTicketsGenerated
	}
	if len(drafts) > constants.MaxAIGeneratedTickets {
		return nil, fmt.Errorf("%w: AI drafted too many tickets (max %d)", ErrValidation, constants.MaxAIGeneratedTickets)
	}

	valid := make([]GeneratedTicket, 0, len(drafts))
	cutoff := s.now().Add(-24 * time.Hour)
	for _, draft := range drafts {
		draft.Title = strings.TrimSpace(draft.Title)
		if draft.Title == "" {
			continue
		}
		if draft.EstimatedTime < 0 {
			draft.EstimatedTime = 0
		}
		if draft.DueDate != nil && draft.DueDate.Before(cutoff) {
			draft.DueDate = nil
		}
		valid = append(valid, draft)
	}

	if len(valid) == 0 {
		return nil, ErrAINoValidTickets
	}

	return valid, nil
}
