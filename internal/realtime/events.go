package realtime

import (
	"fmt"
	"time"
)

// Event types pushed to clients.
const (
	KindConnection       = "connection"
	KindInfo             = "info"
	KindTicketAssignment = "ticket_assignment"
	KindTicketStatus     = "ticket_status"
	KindTicketComment    = "ticket_comment"
	KindDeadlineWarning  = "deadline_warning"
	KindDeadlineExceeded = "deadline_exceeded"
	KindProjectCreation  = "project_creation"
	KindWelcome          = "welcome"
	KindBroadcast        = "broadcast"
	KindAnnouncement     = "announcement"
	KindSystemAdmin      = "system_admin"
)

// Event is the JSON frame written to a push connection.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Sender    string    `json:"sender"`
}

func ticketAssignmentMessage(manager, title string) string {
	return fmt.Sprintf("New ticket assigned by %s: %q", manager, title)
}

func ticketStatusMessage(title, from, to string) string {
	return fmt.Sprintf("Ticket %q status changed: %s → %s", title, from, to)
}

func ticketCommentMessage(commenter, title string) string {
	return fmt.Sprintf("New comment from %s on ticket %q", commenter, title)
}

func projectCreationMessage(manager, project string) string {
	return fmt.Sprintf("New project created by %s: %q", manager, project)
}

func deadlineWarningMessage(title string, daysRemaining int) string {
	return fmt.Sprintf("Deadline approaching for %q: %d day(s) remaining", title, daysRemaining)
}

func deadlineExceededMessage(title string) string {
	return fmt.Sprintf("Deadline exceeded for ticket %q", title)
}

func welcomeMessage(username, role string) string {
	return fmt.Sprintf("Welcome %s! You are connected as %s", username, role)
}

func announcementMessage(sender, text string) string {
	return fmt.Sprintf("Announcement from %s: %s", sender, text)
}

func systemEventMessage(event, details string) string {
	return fmt.Sprintf("System event: %s - %s", event, details)
}
