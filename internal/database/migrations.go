package database

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// AddIndexes adds composite indexes used by the ticket queries. Single-column
// indexes come from the model tags.
func AddIndexes(db *gorm.DB, log zerolog.Logger) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Status counts per project and "my tickets" filtering
		{"tickets", "idx_tickets_project_status", "project_id, status"},
		{"tickets", "idx_tickets_assignee_project", "assigned_employee_username, project_id"},

		// Deadline scans
		{"tickets", "idx_tickets_status_due_date", "status, due_date"},

		// Worked-hours recomputation
		{"time_log_entries", "idx_time_log_entries_ticket_date", "ticket_id, date"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.table, idx.name) {
			log.Debug().Str("index", idx.name).Msg("index already exists, skipping")
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info().Str("index", idx.name).Str("table", idx.table).Msg("created index")
	}

	return nil
}
