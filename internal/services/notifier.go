package services

import "github.com/rs/zerolog"

// Notifier receives lifecycle events. Implementations report whether a push
// was delivered; an undelivered push is never an error for the caller.
type Notifier interface {
	NotifyTicketAssignment(employee, manager, ticketTitle string) bool
	NotifyTicketStatusChange(employee, ticketTitle, oldStatus, newStatus string) bool
	NotifyTicketComment(employee, commenter, ticketTitle string) bool
	NotifyProjectCreation(members []string, projectName, manager string) int
	NotifyDeadlineApproaching(employee, ticketTitle string, daysRemaining int) bool
	NotifyDeadlineExceeded(employee, ticketTitle string) bool
	NotifyAdmins(event, details string) int
}

type nopNotifier struct{}

func (nopNotifier) NotifyTicketAssignment(string, string, string) bool           { return false }
func (nopNotifier) NotifyTicketStatusChange(string, string, string, string) bool { return false }
func (nopNotifier) NotifyTicketComment(string, string, string) bool              { return false }
func (nopNotifier) NotifyProjectCreation([]string, string, string) int           { return 0 }
func (nopNotifier) NotifyDeadlineApproaching(string, string, int) bool           { return false }
func (nopNotifier) NotifyDeadlineExceeded(string, string) bool                   { return false }
func (nopNotifier) NotifyAdmins(string, string) int                              { return 0 }

func orNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

// notify runs a notification and swallows any panic from it, so a broken
// sink cannot fail the operation that triggered it.
func notify(log zerolog.Logger, event string, fn func() bool) (delivered bool) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("event", event).Msg("notifier panicked")
			delivered = false
		}
	}()
	delivered = fn()
	log.Debug().Str("event", event).Bool("delivered", delivered).Msg("notification emitted")
	return delivered
}
