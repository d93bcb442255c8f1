package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/ticket-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/ticket-tracker-api/internal/errors"
	"github.com/yukikurage/ticket-tracker-api/internal/services"
	"github.com/yukikurage/ticket-tracker-api/internal/utils"
)

type ProjectHandler struct {
	projectService *services.ProjectService
	ticketService  *services.TicketService
}

func NewProjectHandler(projectService *services.ProjectService, ticketService *services.TicketService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		ticketService:  ticketService,
	}
}

// CreateProject creates a project managed by the caller and notifies its team
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	type CreateProjectRequest struct {
		Name        string     `json:"name" binding:"required"`
		Description string     `json:"description"`
		StartDate   *time.Time `json:"start_date"`
		EndDate     *time.Time `json:"end_date"`
		TeamMembers []string   `json:"team_members"`
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.projectService.CreateProject(c.Request.Context(), services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		TeamMembers: req.TeamMembers,
	}, principal.Username)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"project":          dto.ToProjectDTO(*result.Project),
		"members_notified": result.Notified,
	})
}

// ListProjects returns projects, newest first
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	projects, total, err := h.projectService.ListProjects(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectListResponse(projects, params.Page, params.Limit, total))
}

// GetProject returns a specific project by ID
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// DeleteProject deletes a project and its tickets
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.projectService.DeleteProject(c.Request.Context(), id, principal.Username); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CreateTicket creates a ticket in the project
func (h *ProjectHandler) CreateTicket(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	type CreateTicketRequest struct {
		Title                    string     `json:"title" binding:"required"`
		Description              string     `json:"description"`
		AssignedEmployeeUsername string     `json:"assigned_employee_username"`
		EstimatedTime            float64    `json:"estimated_time"`
		DueDate                  *time.Time `json:"due_date"`
	}

	var req CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	ticket, err := h.ticketService.CreateTicket(c.Request.Context(), projectID, services.CreateTicketInput{
		Title:                    req.Title,
		Description:              req.Description,
		AssignedEmployeeUsername: req.AssignedEmployeeUsername,
		EstimatedTime:            req.EstimatedTime,
		DueDate:                  req.DueDate,
	}, principal.Username)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Location", "/api/tickets/"+formatID(ticket.ID))
	c.JSON(http.StatusCreated, dto.ToTicketDTO(*ticket))
}

// GenerateTickets drafts tickets for the project from free text using AI
func (h *ProjectHandler) GenerateTickets(c *gin.Context) {
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	type GenerateTicketsRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req GenerateTicketsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	drafts, err := h.ticketService.GenerateTickets(c.Request.Context(), projectID, req.Text)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tickets": drafts,
	})
}
