package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yukikurage/ticket-tracker-api/internal/models"
	"github.com/yukikurage/ticket-tracker-api/internal/repository"
	"gorm.io/gorm"
)

// ProjectService handles project business logic
type ProjectService struct {
	projectRepo repository.ProjectRepository
	notifier    Notifier
	log         zerolog.Logger
}

// NewProjectService creates a new ProjectService
func NewProjectService(projectRepo repository.ProjectRepository, notifier Notifier, log zerolog.Logger) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		notifier:    orNop(notifier),
		log:         log.With().Str("component", "project_service").Logger(),
	}
}

// CreateProjectInput represents input for creating a project
type CreateProjectInput struct {
	Name        string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
	TeamMembers []string
}

// CreateProjectResult carries the new project and how many team members were reached
type CreateProjectResult struct {
	Project  *models.Project
	Notified int
}

// CreateProject creates a project managed by manager and notifies the team
func (s *ProjectService) CreateProject(ctx context.Context, input CreateProjectInput, manager string) (*CreateProjectResult, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return nil, ErrInvalidDateRange
	}

	project := &models.Project{
		Name:            name,
		Description:     input.Description,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		ManagerUsername: manager,
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.log.Info().Uint64("project_id", project.ID).Str("manager", manager).Msg("project created")

	members := teamRecipients(input.TeamMembers, manager)
	notified := 0
	if len(members) > 0 {
		notify(s.log, "project_creation", func() bool {
			notified = s.notifier.NotifyProjectCreation(members, project.Name, manager)
			return notified > 0
		})
	}

	return &CreateProjectResult{Project: project, Notified: notified}, nil
}

// teamRecipients trims and de-duplicates members and drops the manager
func teamRecipients(members []string, manager string) []string {
	seen := make(map[string]struct{}, len(members))
	out := make([]string, 0, len(members))
	for _, m := range members {
		m = strings.TrimSpace(m)
		if m == "" || m == manager {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// GetProject returns a project by ID
func (s *ProjectService) GetProject(ctx context.Context, id uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

// ListProjects returns projects, newest first
func (s *ProjectService) ListProjects(ctx context.Context, page, pageSize int) ([]models.Project, int64, error) {
	projects, total, err := s.projectRepo.List(ctx, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, total, nil
}

// DeleteProject deletes a project together with its tickets and tells the
// connected admins who removed it
func (s *ProjectService) DeleteProject(ctx context.Context, id uint64, actor string) error {
	project, err := s.GetProject(ctx, id)
	if err != nil {
		return err
	}

	if err := s.projectRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.log.Info().Uint64("project_id", id).Str("actor", actor).Msg("project deleted")

	details := fmt.Sprintf("project %q (#%d) deleted by %s", project.Name, project.ID, actor)
	notify(s.log, "project_deleted", func() bool {
		return s.notifier.NotifyAdmins("project_deleted", details) > 0
	})
	return nil
}
