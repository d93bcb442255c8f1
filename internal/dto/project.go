package dto

import (
	"time"

	"github.com/yukikurage/ticket-tracker-api/internal/auth"
	"github.com/yukikurage/ticket-tracker-api/internal/models"
)

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID              uint64     `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	ManagerUsername string     `json:"manager_username"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ProjectListResponse represents a paginated list of projects
type ProjectListResponse struct {
	Projects   []ProjectDTO `json:"projects"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalCount int64        `json:"total_count"`
	TotalPages int          `json:"total_pages"`
}

// PrincipalDTO describes the authenticated caller
type PrincipalDTO struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	Role     string   `json:"role"`
}

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	return ProjectDTO{
		ID:              project.ID,
		Name:            project.Name,
		Description:     project.Description,
		StartDate:       project.StartDate,
		EndDate:         project.EndDate,
		ManagerUsername: project.ManagerUsername,
		CreatedAt:       project.CreatedAt,
	}
}

// ToProjectListResponse converts a slice of projects to ProjectListResponse
func ToProjectListResponse(projects []models.Project, page, pageSize int, totalCount int64) ProjectListResponse {
	items := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		items[i] = ToProjectDTO(p)
	}
	return ProjectListResponse{
		Projects:   items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages(totalCount, pageSize),
	}
}

// ToPrincipalDTO converts a principal to PrincipalDTO
func ToPrincipalDTO(p auth.Principal) PrincipalDTO {
	roles := p.Roles
	if roles == nil {
		roles = []string{}
	}
	return PrincipalDTO{
		Username: p.Username,
		Roles:    roles,
		Role:     p.PrimaryRole(),
	}
}
