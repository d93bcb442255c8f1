package repository

import (
	"context"

	"github.com/yukikurage/ticket-tracker-api/internal/database"
	"github.com/yukikurage/ticket-tracker-api/internal/models"
	"github.com/yukikurage/ticket-tracker-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTicketRepository is a GORM implementation of TicketRepository
type GormTicketRepository struct {
	db *gorm.DB
}

// NewTicketRepository creates a new TicketRepository
func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &GormTicketRepository{db: db}
}

func (r *GormTicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(ticket).Error
}

// FindByID finds a ticket by ID with optional preloading
func (r *GormTicketRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Ticket, error) {
	var ticket models.Ticket
	query := r.db.WithContext(ctx)

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&ticket, id).Error; err != nil {
		return nil, err
	}

	return &ticket, nil
}

// derivedColumns are owned by TimeLogRepository.Append and the deadline
// monitor. Update never writes them, so a stale copy cannot roll them back.
var derivedColumns = []string{"worked_time_hours", "deadline_warning_sent", "deadline_exceeded_sent"}

// Update saves the ticket row except the derived columns
func (r *GormTicketRepository) Update(ctx context.Context, ticket *models.Ticket) error {
	omit := append([]string{clause.Associations}, derivedColumns...)
	return r.db.WithContext(ctx).Omit(omit...).Save(ticket).Error
}

func (r *GormTicketRepository) UpdateFields(ctx context.Context, id uint64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Ticket{}).Where("id = ?", id).UpdateColumns(fields).Error
}

func (r *GormTicketRepository) projectNameSubQuery(name string) *gorm.DB {
	return r.db.Model(&models.Project{}).Select("id").Where("name = ?", name)
}

// List retrieves tickets with filtering and pagination
func (r *GormTicketRepository) List(ctx context.Context, filter TicketFilter) ([]models.Ticket, int64, error) {
	var tickets []models.Ticket

	query := r.db.WithContext(ctx).Model(&models.Ticket{})

	if filter.AssigneeUsername != "" {
		query = query.Where("tickets.assigned_employee_username = ?", filter.AssigneeUsername)
	}
	if filter.ProjectName != "" {
		query = query.Where("tickets.project_id IN (?)", r.projectNameSubQuery(filter.ProjectName))
	}
	if filter.Status != nil {
		query = query.Where("tickets.status = ?", *filter.Status)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params := utils.NewPaginationParams(filter.Page, filter.PageSize)
	if err := query.
		Order("tickets.created_at DESC").Order("tickets.id DESC").
		Scopes(database.Paginate(params)).
		Find(&tickets).Error; err != nil {
		return nil, 0, err
	}

	return tickets, total, nil
}

type statusCount struct {
	Status models.TicketStatus
	Total  int64
}

func (r *GormTicketRepository) CountByStatus(ctx context.Context, projectName string) (map[models.TicketStatus]int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Ticket{}).
		Select("tickets.status AS status, COUNT(*) AS total")
	if projectName != "" {
		query = query.Where("tickets.project_id IN (?)", r.projectNameSubQuery(projectName))
	}

	var rows []statusCount
	if err := query.Group("tickets.status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[models.TicketStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

func (r *GormTicketRepository) ListWithWorkInterval(ctx context.Context) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := r.db.WithContext(ctx).
		Where("start_time IS NOT NULL AND end_time IS NOT NULL").
		Preload("Project").
		Order("id ASC").
		Find(&tickets).Error
	return tickets, err
}

func (r *GormTicketRepository) ListDeadlineCandidates(ctx context.Context) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := r.db.WithContext(ctx).
		Where("status IN ?", []models.TicketStatus{models.TicketStatusTodo, models.TicketStatusInProgress}).
		Where("assigned_employee_username <> ''").
		Where("due_date IS NOT NULL").
		Where("deadline_warning_sent = ? OR deadline_exceeded_sent = ?", false, false).
		Order("due_date ASC").
		Find(&tickets).Error
	return tickets, err
}
