package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/ticket-tracker-api/internal/auth"
	"github.com/yukikurage/ticket-tracker-api/internal/handlers"
	"github.com/yukikurage/ticket-tracker-api/internal/middleware"
	"github.com/yukikurage/ticket-tracker-api/internal/realtime"
)

type routeHandlers struct {
	auth         *handlers.AuthHandler
	project      *handlers.ProjectHandler
	ticket       *handlers.TicketHandler
	comment      *handlers.CommentHandler
	notification *handlers.NotificationHandler
	socket       *realtime.SocketHandler
}

func registerRoutes(r *gin.Engine, h routeHandlers, verifier auth.TokenVerifier, notificationsPath string) {
	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Ticket Tracker API is running",
		})
	})

	// Websocket endpoint authenticates from the token query parameter
	r.GET(notificationsPath, h.socket.Serve)

	requireAuth := middleware.RequireAuth(verifier)
	requireID := middleware.RequireIDParam("id")
	managers := middleware.RequireRole(auth.RoleManager)
	admins := middleware.RequireRole(auth.RoleAdmin)

	api := r.Group("/api")
	{
		// Auth routes
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/session", h.auth.CreateSession)
			authGroup.DELETE("/session", h.auth.DeleteSession)
			authGroup.GET("/me", requireAuth, h.auth.Me)
		}

		projects := api.Group("/projects")
		projects.Use(requireAuth)
		{
			projects.POST("", managers, h.project.CreateProject)
			projects.GET("", h.project.ListProjects)
			projects.GET("/:id", requireID, h.project.GetProject)
			projects.DELETE("/:id", requireID, middleware.RequireRole(auth.RoleManager, auth.RoleAdmin), h.project.DeleteProject)
			projects.POST("/:id/tickets", requireID, managers, h.project.CreateTicket)
			projects.POST("/:id/tickets/generate", requireID, managers, h.project.GenerateTickets)
		}

		tickets := api.Group("/tickets")
		tickets.Use(requireAuth)
		{
			tickets.GET("/mine", h.ticket.ListMyTickets)
			tickets.GET("/validated", h.ticket.ListValidatedTickets)
			tickets.GET("/stats/status-count", middleware.RequireRole(auth.RoleAdmin, auth.RoleManager), h.ticket.CountByStatus)
			tickets.GET("/work-time/by-project", h.ticket.WorkTimeByProject)
			tickets.GET("/:id", requireID, h.ticket.GetTicket)
			tickets.PUT("/:id/assign", requireID, managers, h.ticket.AssignTicket)
			tickets.PUT("/:id/status", requireID, middleware.RequireRole(auth.RoleEmployee, auth.RoleAdmin), h.ticket.UpdateStatus)
			tickets.PUT("/:id/validate", requireID, admins, h.ticket.ValidateTicket)
			tickets.PUT("/:id/log-time", requireID, h.ticket.LogWorkTime)
		}

		timelogs := api.Group("/timelogs")
		timelogs.Use(requireAuth)
		{
			timelogs.POST("", h.ticket.SaveTimeLog)
			timelogs.GET("/ticket/:id", requireID, h.ticket.ListTimeLogs)
		}

		comments := api.Group("/comments")
		comments.Use(requireAuth, middleware.RequireRole(auth.RoleEmployee, auth.RoleAdmin))
		{
			comments.GET("/ticket/:id", requireID, h.comment.ListComments)
			comments.POST("/ticket/:id", requireID, h.comment.AddComment)
		}

		notifications := api.Group("/notifications")
		notifications.Use(requireAuth)
		{
			notifications.GET("/online", h.notification.ListOnline)
			notifications.GET("/online/:username", h.notification.IsOnline)
			notifications.POST("/broadcast", admins, h.notification.Broadcast)
		}
	}
}
