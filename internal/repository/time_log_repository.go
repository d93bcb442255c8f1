package repository

import (
	"context"

	"github.com/yukikurage/ticket-tracker-api/internal/models"
	"gorm.io/gorm"
)

// GormTimeLogRepository is a GORM implementation of TimeLogRepository
type GormTimeLogRepository struct {
	db *gorm.DB
}

// NewTimeLogRepository creates a new TimeLogRepository
func NewTimeLogRepository(db *gorm.DB) TimeLogRepository {
	return &GormTimeLogRepository{db: db}
}

func (r *GormTimeLogRepository) Append(ctx context.Context, entry *models.TimeLogEntry) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		sum, err := sumDurations(tx, entry.TicketID)
		if err != nil {
			return err
		}
		total = sum

		return tx.Model(&models.Ticket{}).
			Where("id = ?", entry.TicketID).
			Update("worked_time_hours", total).Error
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *GormTimeLogRepository) ListByTicketID(ctx context.Context, ticketID uint64) ([]models.TimeLogEntry, error) {
	var entries []models.TimeLogEntry
	err := r.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("date ASC").Order("id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *GormTimeLogRepository) SumByTicketID(ctx context.Context, ticketID uint64) (float64, error) {
	return sumDurations(r.db.WithContext(ctx), ticketID)
}

// sumDurations adds up in Go so the result does not depend on how each
// driver types SUM over a float column.
func sumDurations(db *gorm.DB, ticketID uint64) (float64, error) {
	var durations []float64
	if err := db.Model(&models.TimeLogEntry{}).
		Where("ticket_id = ?", ticketID).
		Pluck("duration_hours", &durations).Error; err != nil {
		return 0, err
	}

	var total float64
	for _, d := range durations {
		total += d
	}
	return total, nil
}
