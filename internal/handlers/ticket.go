package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/ticket-tracker-api/internal/auth"
	"github.com/yukikurage/ticket-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/ticket-tracker-api/internal/errors"
	"github.com/yukikurage/ticket-tracker-api/internal/models"
	"github.com/yukikurage/ticket-tracker-api/internal/services"
	"github.com/yukikurage/ticket-tracker-api/internal/utils"
)

type TicketHandler struct {
	ticketService *services.TicketService
}

func NewTicketHandler(ticketService *services.TicketService) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
	}
}

// ListMyTickets returns tickets assigned to the caller
// Can filter by project name
func (h *TicketHandler) ListMyTickets(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	tickets, total, err := h.ticketService.ListMyTickets(c.Request.Context(), services.ListTicketsInput{
		Username:    principal.Username,
		ProjectName: c.Query("project"),
		Page:        params.Page,
		PageSize:    params.Limit,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTicketListResponse(tickets, params.Page, params.Limit, total))
}

// ListValidatedTickets returns validated tickets
func (h *TicketHandler) ListValidatedTickets(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	tickets, total, err := h.ticketService.ListValidatedTickets(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTicketListResponse(tickets, params.Page, params.Limit, total))
}

// GetTicket returns a specific ticket by ID
func (h *TicketHandler) GetTicket(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	ticket, err := h.ticketService.GetTicket(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTicketDTO(*ticket))
}

// AssignTicket assigns the ticket to an employee
func (h *TicketHandler) AssignTicket(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	type AssignTicketRequest struct {
		EmployeeUsername string `json:"employee_username" binding:"required"`
	}

	var req AssignTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	ticket, err := h.ticketService.AssignTicket(c.Request.Context(), id, req.EmployeeUsername, principal.Username)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTicketDTO(*ticket))
}

// UpdateStatus changes the status of a ticket
func (h *TicketHandler) UpdateStatus(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	type UpdateStatusRequest struct {
		Status string `json:"status" binding:"required"`
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	status := models.TicketStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	ticket, err := h.ticketService.UpdateStatus(c.Request.Context(), id, status, principal)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTicketDTO(*ticket))
}

// ValidateTicket validates a DONE ticket
func (h *TicketHandler) ValidateTicket(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	ticket, err := h.ticketService.ValidateTicket(c.Request.Context(), id, principal)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTicketDTO(*ticket))
}

// LogWorkTime records the caller's worked interval on a ticket
func (h *TicketHandler) LogWorkTime(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	type LogWorkTimeRequest struct {
		StartTime time.Time `json:"start_time" binding:"required"`
		EndTime   time.Time `json:"end_time" binding:"required"`
	}

	var req LogWorkTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	ticket, err := h.ticketService.LogWorkTime(c.Request.Context(), id, req.StartTime, req.EndTime, principal.Username)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTicketDTO(*ticket))
}

// CountByStatus returns the number of tickets per status
func (h *TicketHandler) CountByStatus(c *gin.Context) {
	counts, err := h.ticketService.CountTicketsByStatus(c.Request.Context(), c.Query("project"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.StatusCountDTO(counts))
}

// WorkTimeByProject returns worked minutes per project and employee
func (h *TicketHandler) WorkTimeByProject(c *gin.Context) {
	summaries, err := h.ticketService.WorkTimePerProjectAndEmployee(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"work_time": summaries,
	})
}

// SaveTimeLog appends a time log entry. Only admins and managers may log
// time for someone else.
func (h *TicketHandler) SaveTimeLog(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	type SaveTimeLogRequest struct {
		TicketID         uint64    `json:"ticket_id" binding:"required"`
		Date             time.Time `json:"date" binding:"required"`
		Duration         float64   `json:"duration" binding:"required"`
		EmployeeUsername string    `json:"employee_username"`
	}

	var req SaveTimeLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	employee := strings.TrimSpace(req.EmployeeUsername)
	if employee == "" {
		employee = principal.Username
	}
	if employee != principal.Username && !principal.HasAnyRole(auth.RoleAdmin, auth.RoleManager) {
		apierrors.Forbidden(c, "Cannot log time for another employee")
		return
	}

	entry, err := h.ticketService.SaveTimeLog(c.Request.Context(), req.TicketID, req.Date, req.Duration, employee)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTimeLogDTO(*entry))
}

// ListTimeLogs returns the time log entries of a ticket
func (h *TicketHandler) ListTimeLogs(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	entries, err := h.ticketService.ListTimeLogs(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"time_logs": dto.ToTimeLogDTOs(entries),
	})
}
