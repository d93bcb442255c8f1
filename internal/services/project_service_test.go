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

// ProjectServiceTestSuite defines the test suite for ProjectService and CommentService
type ProjectServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	ctx      context.Context
	notifier *recordingNotifier
	projects *ProjectService
	comments *CommentService
}

func (suite *ProjectServiceTestSuite) SetupTest() {
	suite.db = openTestDB(suite.T())
	suite.ctx = context.Background()
	suite.notifier = newRecordingNotifier("bob", "carol")

	ticketRepo := repository.NewTicketRepository(suite.db)
	suite.projects = NewProjectService(repository.NewProjectRepository(suite.db), suite.notifier, testLogger)
	suite.comments = NewCommentService(repository.NewCommentRepository(suite.db), ticketRepo, suite.notifier, testLogger)
}

func (suite *ProjectServiceTestSuite) TearDownTest() {
	closeTestDB(suite.db)
}

func (suite *ProjectServiceTestSuite) createTicket(projectID uint64, assignee string) *models.Ticket {
	ticket := &models.Ticket{Title: "Fix login", ProjectID: projectID, Status: models.TicketStatusTodo, AssignedEmployeeUsername: assignee}
	suite.Require().NoError(suite.db.Create(ticket).Error)
	return ticket
}

func (suite *ProjectServiceTestSuite) TestCreateProject_NotifiesTeam() {
	result, err := suite.projects.CreateProject(suite.ctx, CreateProjectInput{
		Name:        " Apollo ",
		TeamMembers: []string{"bob", "carol", "bob", "dave", "manny", ""},
	}, "manny")
	suite.Require().NoError(err)
	suite.Equal("Apollo", result.Project.Name)
	suite.Equal("manny", result.Project.ManagerUsername)
	suite.Equal(2, result.Notified)

	notices := suite.notifier.ofKind("project_creation")
	suite.Require().Len(notices, 3)
	recipients := []string{notices[0].Recipient, notices[1].Recipient, notices[2].Recipient}
	suite.Equal([]string{"bob", "carol", "dave"}, recipients)
	suite.Equal("Apollo", notices[0].Subject)
}

func (suite *ProjectServiceTestSuite) TestCreateProject_Validation() {
	_, err := suite.projects.CreateProject(suite.ctx, CreateProjectInput{Name: ""}, "manny")
	suite.ErrorIs(err, ErrNameRequired)

	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)
	_, err = suite.projects.CreateProject(suite.ctx, CreateProjectInput{Name: "x", StartDate: &start, EndDate: &end}, "manny")
	suite.ErrorIs(err, ErrInvalidDateRange)
}

func (suite *ProjectServiceTestSuite) TestCreateProject_PanickingNotifier() {
	suite.projects.notifier = panickingNotifier{}

	result, err := suite.projects.CreateProject(suite.ctx, CreateProjectInput{Name: "Apollo", TeamMembers: []string{"bob"}}, "manny")
	suite.Require().NoError(err)
	suite.NotZero(result.Project.ID)
	suite.Zero(result.Notified)
}

func (suite *ProjectServiceTestSuite) TestGetListDeleteProject() {
	result, err := suite.projects.CreateProject(suite.ctx, CreateProjectInput{Name: "Apollo"}, "manny")
	suite.Require().NoError(err)
	ticket := suite.createTicket(result.Project.ID, "bob")

	got, err := suite.projects.GetProject(suite.ctx, result.Project.ID)
	suite.Require().NoError(err)
	suite.Equal("Apollo", got.Name)

	projects, total, err := suite.projects.ListProjects(suite.ctx, 1, 10)
	suite.Require().NoError(err)
	suite.Equal(int64(1), total)
	suite.Len(projects, 1)

	suite.Require().NoError(suite.projects.DeleteProject(suite.ctx, result.Project.ID, "root"))

	_, err = suite.projects.GetProject(suite.ctx, result.Project.ID)
	suite.ErrorIs(err, ErrProjectNotFound)
	_, err = suite.comments.ListComments(suite.ctx, ticket.ID)
	suite.ErrorIs(err, ErrTicketNotFound, "tickets go with their project")

	suite.ErrorIs(suite.projects.DeleteProject(suite.ctx, result.Project.ID, "root"), ErrNotFound)
}

func (suite *ProjectServiceTestSuite) TestDeleteProject_NotifiesAdmins() {
	result, err := suite.projects.CreateProject(suite.ctx, CreateProjectInput{Name: "Apollo"}, "manny")
	suite.Require().NoError(err)

	suite.Require().NoError(suite.projects.DeleteProject(suite.ctx, result.Project.ID, "root"))

	notices := suite.notifier.ofKind("system_admin")
	suite.Require().Len(notices, 1)
	suite.Equal("project_deleted", notices[0].Subject)
	suite.Contains(notices[0].Detail, `"Apollo"`)
	suite.Contains(notices[0].Detail, "root")

	suite.ErrorIs(suite.projects.DeleteProject(suite.ctx, 999, "root"), ErrProjectNotFound)
	suite.Len(suite.notifier.ofKind("system_admin"), 1)
}

func (suite *ProjectServiceTestSuite) TestDeleteProject_PanickingNotifier() {
	result, err := suite.projects.CreateProject(suite.ctx, CreateProjectInput{Name: "Apollo"}, "manny")
	suite.Require().NoError(err)
	suite.projects.notifier = panickingNotifier{}

	suite.Require().NoError(suite.projects.DeleteProject(suite.ctx, result.Project.ID, "root"))
	_, err = suite.projects.GetProject(suite.ctx, result.Project.ID)
	suite.ErrorIs(err, ErrProjectNotFound)
}

func (suite *ProjectServiceTestSuite) TestAddComment_NotifiesAssignee() {
	project := createProject(suite.T(), suite.db, "Apollo")
	ticket := suite.createTicket(project.ID, "bob")

	comment, err := suite.comments.AddComment(suite.ctx, ticket.ID, " Looks good ", "carol")
	suite.Require().NoError(err)
	suite.Equal("Looks good", comment.Content)

	notices := suite.notifier.ofKind("ticket_comment")
	suite.Require().Len(notices, 1)
	suite.Equal("bob", notices[0].Recipient)
	suite.Equal("carol", notices[0].Detail)

	// The assignee commenting on their own ticket is not notified.
	_, err = suite.comments.AddComment(suite.ctx, ticket.ID, "thanks", "bob")
	suite.Require().NoError(err)
	suite.Len(suite.notifier.ofKind("ticket_comment"), 1)

	comments, err := suite.comments.ListComments(suite.ctx, ticket.ID)
	suite.Require().NoError(err)
	suite.Require().Len(comments, 2)
	suite.Equal("carol", comments[0].SenderUsername)
	suite.Equal("bob", comments[1].SenderUsername)
}

func (suite *ProjectServiceTestSuite) TestAddComment_Failures() {
	project := createProject(suite.T(), suite.db, "Apollo")
	ticket := suite.createTicket(project.ID, "")

	_, err := suite.comments.AddComment(suite.ctx, ticket.ID, "  ", "carol")
	suite.ErrorIs(err, ErrContentRequired)

	_, err = suite.comments.AddComment(suite.ctx, 999, "hi", "carol")
	suite.ErrorIs(err, ErrTicketNotFound)

	suite.comments.notifier = panickingNotifier{}
	assigned := suite.createTicket(project.ID, "bob")
	_, err = suite.comments.AddComment(suite.ctx, assigned.ID, "hi", "carol")
	suite.NoError(err)
}

func TestProjectServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ProjectServiceTestSuite))
}
