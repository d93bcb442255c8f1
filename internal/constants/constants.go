package constants

// Context and session keys
const (
	ContextKeyPrincipal = "principal"
	ContextKeyUsername  = "username"

	SessionCookieName  = "ticket_session"
	SessionKeyUsername = "username"
	SessionKeyRoles    = "roles"
	SessionKeySubject  = "subject"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Realtime
const (
	DefaultNotificationsPath = "/api/v1/notifications"
	TokenQueryParam          = "token"
	SystemSender             = "system"
)

// AI ticket drafting
const (
	MaxAIGeneratedTickets = 20
)
