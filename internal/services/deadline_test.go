package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/ticket-tracker-api/internal/models"
	"github.com/yukikurage/ticket-tracker-api/internal/repository"
	"gorm.io/gorm"
)

// DeadlineMonitorTestSuite defines the test suite for DeadlineMonitor
type DeadlineMonitorTestSuite struct {
	suite.Suite
	db       *gorm.DB
	ctx      context.Context
	notifier *recordingNotifier
	monitor  *DeadlineMonitor
	project  *models.Project
	now      time.Time
}

func (suite *DeadlineMonitorTestSuite) SetupTest() {
	suite.db = openTestDB(suite.T())
	suite.ctx = context.Background()
	suite.notifier = newRecordingNotifier("bob", "carol")
	suite.monitor = NewDeadlineMonitor(repository.NewTicketRepository(suite.db), suite.notifier, 2, testLogger)
	suite.project = createProject(suite.T(), suite.db, "Apollo")
	suite.now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
}

func (suite *DeadlineMonitorTestSuite) TearDownTest() {
	closeTestDB(suite.db)
}

func (suite *DeadlineMonitorTestSuite) createTicket(title, assignee string, status models.TicketStatus, due time.Time) *models.Ticket {
	ticket := &models.Ticket{
		Title:                    title,
		ProjectID:                suite.project.ID,
		Status:                   status,
		AssignedEmployeeUsername: assignee,
		DueDate:                  &due,
	}
	suite.Require().NoError(suite.db.Create(ticket).Error)
	return ticket
}

func (suite *DeadlineMonitorTestSuite) reload(id uint64) *models.Ticket {
	var ticket models.Ticket
	suite.Require().NoError(suite.db.First(&ticket, id).Error)
	return &ticket
}

func (suite *DeadlineMonitorTestSuite) TestScan_SendsEachNoticeOnce() {
	soon := suite.createTicket("soon", "bob", models.TicketStatusInProgress, suite.now.Add(30*time.Hour))
	late := suite.createTicket("late", "carol", models.TicketStatusTodo, suite.now.Add(-time.Hour))
	suite.createTicket("far", "bob", models.TicketStatusTodo, suite.now.Add(5*24*time.Hour))
	suite.createTicket("finished", "bob", models.TicketStatusDone, suite.now.Add(-time.Hour))

	result, err := suite.monitor.Scan(suite.ctx, suite.now)
	suite.Require().NoError(err)
	suite.Equal(1, result.Warnings)
	suite.Equal(1, result.Exceeded)
	suite.Equal(3, result.Checked)

	warnings := suite.notifier.ofKind("deadline_warning")
	suite.Require().Len(warnings, 1)
	suite.Equal("bob", warnings[0].Recipient)
	suite.Equal("soon", warnings[0].Subject)
	suite.Equal(2, warnings[0].Days)

	exceeded := suite.notifier.ofKind("deadline_exceeded")
	suite.Require().Len(exceeded, 1)
	suite.Equal("carol", exceeded[0].Recipient)

	suite.True(suite.reload(soon.ID).DeadlineWarningSent)
	suite.False(suite.reload(soon.ID).DeadlineExceededSent)
	suite.True(suite.reload(late.ID).DeadlineExceededSent)
	suite.True(suite.reload(late.ID).DeadlineWarningSent)

	result, err = suite.monitor.Scan(suite.ctx, suite.now.Add(time.Minute))
	suite.Require().NoError(err)
	suite.Zero(result.Warnings)
	suite.Zero(result.Exceeded)
	suite.Len(suite.notifier.Notices(), 2)
}

func (suite *DeadlineMonitorTestSuite) TestScan_WarnedTicketLaterExceeds() {
	ticket := suite.createTicket("soon", "bob", models.TicketStatusTodo, suite.now.Add(time.Hour))

	_, err := suite.monitor.Scan(suite.ctx, suite.now)
	suite.Require().NoError(err)
	suite.Len(suite.notifier.ofKind("deadline_warning"), 1)

	_, err = suite.monitor.Scan(suite.ctx, suite.now.Add(2*time.Hour))
	suite.Require().NoError(err)
	suite.Len(suite.notifier.ofKind("deadline_exceeded"), 1)
	suite.True(suite.reload(ticket.ID).DeadlineExceededSent)
}

func (suite *DeadlineMonitorTestSuite) TestScan_OfflineAssigneeRetried() {
	ticket := suite.createTicket("late", "dave", models.TicketStatusTodo, suite.now.Add(-time.Hour))

	result, err := suite.monitor.Scan(suite.ctx, suite.now)
	suite.Require().NoError(err)
	suite.Zero(result.Exceeded)
	suite.False(suite.reload(ticket.ID).DeadlineExceededSent)

	suite.notifier.setOnline("dave", true)
	result, err = suite.monitor.Scan(suite.ctx, suite.now)
	suite.Require().NoError(err)
	suite.Equal(1, result.Exceeded)
	suite.True(suite.reload(ticket.ID).DeadlineExceededSent)
}

func (suite *DeadlineMonitorTestSuite) TestRun_StopsOnCancel() {
	suite.createTicket("late", "bob", models.TicketStatusTodo, time.Now().Add(-time.Hour))

	ctx, cancel := context.WithCancel(suite.ctx)
	done := make(chan struct{})
	go func() {
		suite.monitor.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	suite.Eventually(func() bool {
		return len(suite.notifier.ofKind("deadline_exceeded")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		suite.Fail("monitor did not stop")
	}
}

func (suite *DeadlineMonitorTestSuite) TestRun_DisabledWithoutInterval() {
	done := make(chan struct{})
	go func() {
		suite.monitor.Run(suite.ctx, 0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		suite.Fail("disabled monitor should return immediately")
	}
	suite.Empty(suite.notifier.Notices())
}

func TestDeadlineMonitorTestSuite(t *testing.T) {
	suite.Run(t, new(DeadlineMonitorTestSuite))
}
