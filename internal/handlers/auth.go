package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yukikurage/ticket-tracker-api/internal/auth"
	"github.com/yukikurage/ticket-tracker-api/internal/constants"
	"github.com/yukikurage/ticket-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/ticket-tracker-api/internal/errors"
)

// Welcomer greets a user who just signed in.
type Welcomer interface {
	NotifyWelcome(username, role string) bool
}

// AuthHandler exchanges identity provider tokens for cookie sessions.
type AuthHandler struct {
	verifier auth.TokenVerifier
	welcomer Welcomer
	log      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler. welcomer may be nil.
func NewAuthHandler(verifier auth.TokenVerifier, welcomer Welcomer, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		verifier: verifier,
		welcomer: welcomer,
		log:      log.With().Str("component", "auth_handler").Logger(),
	}
}

// CreateSession verifies a bearer token and stores the principal in the session.
// The token comes from the JSON body or the Authorization header.
func (h *AuthHandler) CreateSession(c *gin.Context) {
	type CreateSessionRequest struct {
		Token string `json:"token"`
	}

	var req CreateSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.BadRequest(c, "Invalid request body")
			return
		}
	}

	token := strings.TrimSpace(req.Token)
	if token == "" {
		if scheme, rest, ok := strings.Cut(c.GetHeader("Authorization"), " "); ok && strings.EqualFold(scheme, "Bearer") {
			token = strings.TrimSpace(rest)
		}
	}
	if token == "" {
		apierrors.BadRequest(c, "Token is required")
		return
	}

	principal, err := h.verifier.Verify(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			apierrors.Unauthorized(c, "Invalid or expired token")
			return
		}
		h.log.Error().Err(err).Msg("token verification failed")
		apierrors.InternalError(c, "Failed to verify token")
		return
	}
	if principal == nil || principal.Username == "" {
		apierrors.Unauthorized(c, "Token has no username")
		return
	}

	session := sessions.Default(c)
	session.Set(constants.SessionKeyUsername, principal.Username)
	session.Set(constants.SessionKeyRoles, strings.Join(principal.Roles, ","))
	session.Set(constants.SessionKeySubject, principal.Subject)
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	h.log.Info().Str("username", principal.Username).Strs("roles", principal.Roles).Msg("session created")
	if h.welcomer != nil {
		h.welcomer.NotifyWelcome(principal.Username, principal.PrimaryRole())
	}

	c.JSON(http.StatusOK, dto.ToPrincipalDTO(*principal))
}

// DeleteSession removes the cookie session.
func (h *AuthHandler) DeleteSession(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// Me returns the authenticated caller.
func (h *AuthHandler) Me(c *gin.Context) {
	principal, ok := currentPrincipal(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, dto.ToPrincipalDTO(principal))
}
