package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/yukikurage/ticket-tracker-api/internal/repository"
)

// DeadlineMonitor pushes deadline warnings and overdue notices for open tickets.
// A notice is marked as sent only once it reached the assignee, so an offline
// assignee gets it on a later scan.
type DeadlineMonitor struct {
	ticketRepo    repository.TicketRepository
	notifier      Notifier
	warningWindow time.Duration
	log           zerolog.Logger
}

// DeadlineScanResult counts the notices delivered by one scan
type DeadlineScanResult struct {
	Checked  int
	Warnings int
	Exceeded int
}

func NewDeadlineMonitor(ticketRepo repository.TicketRepository, notifier Notifier, warningDays int, log zerolog.Logger) *DeadlineMonitor {
	return &DeadlineMonitor{
		ticketRepo:    ticketRepo,
		notifier:      orNop(notifier),
		warningWindow: time.Duration(warningDays) * 24 * time.Hour,
		log:           log.With().Str("component", "deadline_monitor").Logger(),
	}
}

// Scan checks every candidate ticket against now once.
func (m *DeadlineMonitor) Scan(ctx context.Context, now time.Time) (DeadlineScanResult, error) {
	var result DeadlineScanResult

	tickets, err := m.ticketRepo.ListDeadlineCandidates(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load deadline candidates: %w", err)
	}

	for _, t := range tickets {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if t.DueDate == nil || t.AssignedEmployeeUsername == "" {
			continue
		}
		result.Checked++

		remaining := t.DueDate.Sub(now)
		switch {
		case remaining < 0 && !t.DeadlineExceededSent:
			delivered := notify(m.log, "deadline_exceeded", func() bool {
				return m.notifier.NotifyDeadlineExceeded(t.AssignedEmployeeUsername, t.Title)
			})
			if !delivered {
				continue
			}
			// An overdue ticket never gets a late "approaching" warning.
			if err := m.ticketRepo.UpdateFields(ctx, t.ID, map[string]interface{}{
				"deadline_exceeded_sent": true,
				"deadline_warning_sent":  true,
			}); err != nil {
				return result, fmt.Errorf("failed to mark deadline notice: %w", err)
			}
			result.Exceeded++

		case remaining >= 0 && remaining <= m.warningWindow && !t.DeadlineWarningSent:
			days := int(math.Ceil(remaining.Hours() / 24))
			delivered := notify(m.log, "deadline_warning", func() bool {
				return m.notifier.NotifyDeadlineApproaching(t.AssignedEmployeeUsername, t.Title, days)
			})
			if !delivered {
				continue
			}
			if err := m.ticketRepo.UpdateFields(ctx, t.ID, map[string]interface{}{
				"deadline_warning_sent": true,
			}); err != nil {
				return result, fmt.Errorf("failed to mark deadline notice: %w", err)
			}
			result.Warnings++
		}
	}

	if result.Warnings > 0 || result.Exceeded > 0 {
		m.log.Info().Int("checked", result.Checked).Int("warnings", result.Warnings).Int("exceeded", result.Exceeded).Msg("deadline scan finished")
	}
	return result, nil
}

// Run scans immediately and then every interval until ctx is cancelled.
// A non-positive interval disables the monitor.
func (m *DeadlineMonitor) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		m.log.Info().Msg("deadline monitor disabled")
		return
	}

	m.log.Info().Dur("interval", interval).Msg("deadline monitor started")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := m.Scan(ctx, time.Now()); err != nil && ctx.Err() == nil {
			m.log.Error().Err(err).Msg("deadline scan failed")
		}

		select {
		case <-ctx.Done():
			m.log.Info().Msg("deadline monitor stopped")
			return
		case <-ticker.C:
		}
	}
}
