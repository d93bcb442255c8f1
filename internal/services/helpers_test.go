package services

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/ticket-tracker-api/internal/database"
	"github.com/yukikurage/ticket-tracker-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testLogger = zerolog.New(io.Discard)

func openTestDB(t require.TestingT) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db, testLogger))
	return db
}

func closeTestDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

type notice struct {
	Kind      string
	Recipient string
	Subject   string
	Detail    string
	Days      int
}

// recordingNotifier records every notice and delivers only to online users.
type recordingNotifier struct {
	mu      sync.Mutex
	online  map[string]bool
	notices []notice
}

func newRecordingNotifier(online ...string) *recordingNotifier {
	n := &recordingNotifier{online: make(map[string]bool)}
	for _, u := range online {
		n.online[u] = true
	}
	return n
}

func (n *recordingNotifier) record(nt notice) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, nt)
	return n.online[nt.Recipient]
}

func (n *recordingNotifier) setOnline(username string, online bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.online[username] = online
}

func (n *recordingNotifier) Notices() []notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notice(nil), n.notices...)
}

func (n *recordingNotifier) ofKind(kind string) []notice {
	var out []notice
	for _, nt := range n.Notices() {
		if nt.Kind == kind {
			out = append(out, nt)
		}
	}
	return out
}

func (n *recordingNotifier) ofKindTo(kind, recipient string) []notice {
	var out []notice
	for _, nt := range n.ofKind(kind) {
		if nt.Recipient == recipient {
			out = append(out, nt)
		}
	}
	return out
}

func (n *recordingNotifier) NotifyTicketAssignment(employee, manager, title string) bool {
	return n.record(notice{Kind: "ticket_assignment", Recipient: employee, Subject: title, Detail: manager})
}

func (n *recordingNotifier) NotifyTicketStatusChange(employee, title, oldStatus, newStatus string) bool {
	return n.record(notice{Kind: "ticket_status", Recipient: employee, Subject: title, Detail: oldStatus + "->" + newStatus})
}

func (n *recordingNotifier) NotifyTicketComment(employee, commenter, title string) bool {
	return n.record(notice{Kind: "ticket_comment", Recipient: employee, Subject: title, Detail: commenter})
}

func (n *recordingNotifier) NotifyProjectCreation(members []string, project, manager string) int {
	reached := 0
	for _, m := range members {
		if n.record(notice{Kind: "project_creation", Recipient: m, Subject: project, Detail: manager}) {
			reached++
		}
	}
	return reached
}

func (n *recordingNotifier) NotifyDeadlineApproaching(employee, title string, days int) bool {
	return n.record(notice{Kind: "deadline_warning", Recipient: employee, Subject: title, Days: days})
}

func (n *recordingNotifier) NotifyDeadlineExceeded(employee, title string) bool {
	return n.record(notice{Kind: "deadline_exceeded", Recipient: employee, Subject: title})
}

// NotifyAdmins records one notice addressed to the admins.
func (n *recordingNotifier) NotifyAdmins(event, details string) int {
	if n.record(notice{Kind: "system_admin", Recipient: "admins", Subject: event, Detail: details}) {
		return 1
	}
	return 0
}

// panickingNotifier simulates a broken event sink.
type panickingNotifier struct{ nopNotifier }

func (panickingNotifier) NotifyTicketAssignment(string, string, string) bool {
	panic("sink exploded")
}

func (panickingNotifier) NotifyTicketComment(string, string, string) bool {
	panic("sink exploded")
}

func (panickingNotifier) NotifyProjectCreation([]string, string, string) int {
	panic("sink exploded")
}

func (panickingNotifier) NotifyAdmins(string, string) int {
	panic("sink exploded")
}

type stubDrafter struct {
	drafts     []GeneratedTicket
	err        error
	gotProject string
}

func (d *stubDrafter) DraftTickets(_ context.Context, projectName, _ string) ([]GeneratedTicket, error) {
	d.gotProject = projectName
	return d.drafts, d.err
}

func createProject(t require.TestingT, db *gorm.DB, name string) *models.Project {
	p := &models.Project{Name: name, ManagerUsername: "manny"}
	require.NoError(t, db.Create(p).Error)
	return p
}
