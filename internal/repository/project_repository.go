package repository

import (
	"context"

	"github.com/yukikurage/ticket-tracker-api/internal/database"
	"github.com/yukikurage/ticket-tracker-api/internal/models"
	"github.com/yukikurage/ticket-tracker-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

func (r *GormProjectRepository) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(project).Error
}

func (r *GormProjectRepository) FindByID(ctx context.Context, id uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *GormProjectRepository) List(ctx context.Context, page, pageSize int) ([]models.Project, int64, error) {
	var projects []models.Project
	query := r.db.WithContext(ctx).Model(&models.Project{})

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params := utils.NewPaginationParams(page, pageSize)
	if err := query.
		Order("created_at DESC").Order("id DESC").
		Scopes(database.Paginate(params)).
		Find(&projects).Error; err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

// Delete deletes a project and its tickets in a transaction. Time log entries
// are kept as history.
func (r *GormProjectRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ticketIDs := tx.Model(&models.Ticket{}).Select("id").Where("project_id = ?", id)

		// Delete comments on the project's tickets
		if err := tx.Where("ticket_id IN (?)", ticketIDs).Delete(&models.Comment{}).Error; err != nil {
			return err
		}

		// Delete tickets
		if err := tx.Where("project_id = ?", id).Delete(&models.Ticket{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Project{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return nil
	})
}
