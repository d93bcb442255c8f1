package realtime

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yukikurage/ticket-tracker-api/internal/constants"
)

// Dispatcher formats notification events and routes them through the
// Registry. Delivery failures never escape: they are logged, the broken
// connection is evicted and the send reports false.
type Dispatcher struct {
	registry *Registry
	log      zerolog.Logger
	now      func() time.Time
	newID    func() string
}

func NewDispatcher(registry *Registry, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		log:      log.With().Str("component", "dispatcher").Logger(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (d *Dispatcher) newEvent(kind, message, sender string) Event {
	return Event{
		ID:        d.newID(),
		Type:      kind,
		Message:   message,
		Timestamp: d.now().UTC(),
		Sender:    sender,
	}
}

// SendToUser pushes message to username's live connection. An offline user
// is a normal outcome and yields false without an error.
func (d *Dispatcher) SendToUser(username, message, kind string) bool {
	if strings.TrimSpace(username) == "" {
		d.log.Warn().Msg("notification without recipient dropped")
		return false
	}
	if strings.TrimSpace(message) == "" {
		d.log.Warn().Str("username", username).Msg("empty notification dropped")
		return false
	}
	if kind == "" {
		kind = KindInfo
	}

	session, ok := d.registry.Lookup(username)
	if !ok || !session.Conn.Alive() {
		d.log.Debug().Str("username", username).Str("type", kind).Msg("user offline, notification not delivered")
		return false
	}

	ev := d.newEvent(kind, message, username)
	if !d.deliver(session, ev) {
		return false
	}

	d.log.Info().Str("username", username).Str("type", kind).Msg("notification delivered")
	return true
}

// Broadcast pushes message to every registered connection and returns how
// many deliveries succeeded. Failing connections are evicted individually.
func (d *Dispatcher) Broadcast(message, kind string) int {
	return d.broadcastWhere(message, kind, nil)
}

// broadcastWhere sends to every live session accepted by match, or to all
// live sessions when match is nil.
func (d *Dispatcher) broadcastWhere(message, kind string, match func(*Session) bool) int {
	if strings.TrimSpace(message) == "" {
		d.log.Warn().Str("type", kind).Msg("empty broadcast dropped")
		return 0
	}
	if kind == "" {
		kind = KindBroadcast
	}
	ev := d.newEvent(kind, message, constants.SystemSender)

	delivered := 0
	for _, session := range d.registry.Snapshot() {
		if !session.Conn.Alive() {
			continue
		}
		if match != nil && !match(session) {
			continue
		}
		if d.deliver(session, ev) {
			delivered++
		}
	}

	d.log.Info().Str("type", kind).Int("delivered", delivered).Msg("broadcast sent")
	return delivered
}

// SendConnected writes the connection acknowledgement to a freshly admitted session.
func (d *Dispatcher) SendConnected(session *Session) bool {
	ev := d.newEvent(KindConnection, "Connection established", constants.SystemSender)
	return d.deliver(session, ev)
}

func (d *Dispatcher) deliver(session *Session, ev Event) bool {
	payload, err := json.Marshal(ev)
	if err != nil {
		d.log.Error().Err(err).Str("type", ev.Type).Msg("failed to encode notification")
		return false
	}

	if err := session.Conn.Send(payload); err != nil {
		d.log.Warn().Err(err).Str("username", session.Username).Str("type", ev.Type).Msg("push failed, evicting connection")
		d.registry.UnregisterConn(session.Username, session.Conn)
		if cerr := session.Conn.Close(); cerr != nil {
			d.log.Debug().Err(cerr).Str("username", session.Username).Msg("error closing failed connection")
		}
		return false
	}
	return true
}

func (d *Dispatcher) IsUserOnline(username string) bool {
	return d.registry.IsOnline(username)
}

func (d *Dispatcher) OnlineUsers() []string {
	return d.registry.ListOnline()
}

func (d *Dispatcher) OnlineUsersCount() int {
	return d.registry.Count()
}

// Semantic notifications

func (d *Dispatcher) NotifyTicketAssignment(employee, manager, ticketTitle string) bool {
	if employee == "" || manager == "" || ticketTitle == "" {
		d.log.Error().Msg("invalid ticket assignment notification parameters")
		return false
	}
	return d.SendToUser(employee, ticketAssignmentMessage(manager, ticketTitle), KindTicketAssignment)
}

func (d *Dispatcher) NotifyTicketStatusChange(employee, ticketTitle, oldStatus, newStatus string) bool {
	return d.SendToUser(employee, ticketStatusMessage(ticketTitle, oldStatus, newStatus), KindTicketStatus)
}

func (d *Dispatcher) NotifyTicketComment(employee, commenter, ticketTitle string) bool {
	return d.SendToUser(employee, ticketCommentMessage(commenter, ticketTitle), KindTicketComment)
}

// NotifyProjectCreation notifies each team member and returns how many were reached.
func (d *Dispatcher) NotifyProjectCreation(members []string, projectName, manager string) int {
	message := projectCreationMessage(manager, projectName)
	reached := 0
	for _, member := range members {
		if d.SendToUser(member, message, KindProjectCreation) {
			reached++
		}
	}
	d.log.Info().Str("project", projectName).Int("reached", reached).Int("members", len(members)).Msg("project creation notified")
	return reached
}

func (d *Dispatcher) NotifyDeadlineApproaching(employee, ticketTitle string, daysRemaining int) bool {
	return d.SendToUser(employee, deadlineWarningMessage(ticketTitle, daysRemaining), KindDeadlineWarning)
}

func (d *Dispatcher) NotifyDeadlineExceeded(employee, ticketTitle string) bool {
	return d.SendToUser(employee, deadlineExceededMessage(ticketTitle), KindDeadlineExceeded)
}

func (d *Dispatcher) NotifyWelcome(username, role string) bool {
	return d.SendToUser(username, welcomeMessage(username, role), KindWelcome)
}

// BroadcastAnnouncement sends an announcement from sender to everyone online.
func (d *Dispatcher) BroadcastAnnouncement(announcement, sender string) int {
	if strings.TrimSpace(announcement) == "" {
		d.log.Warn().Str("sender", sender).Msg("empty announcement dropped")
		return 0
	}
	return d.Broadcast(announcementMessage(sender, announcement), KindAnnouncement)
}

// NotifyAdmins reports a system event to connected admins only.
func (d *Dispatcher) NotifyAdmins(event, details string) int {
	return d.broadcastWhere(systemEventMessage(event, details), KindSystemAdmin, func(s *Session) bool {
		return s.Principal.IsAdmin()
	})
}
