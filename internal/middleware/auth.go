package middleware

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/ticket-tracker-api/internal/auth"
	"github.com/yukikurage/ticket-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/ticket-tracker-api/internal/errors"
)

// RequireAuth resolves the caller from a bearer token, falling back to the
// cookie session created by POST /api/auth/session.
func RequireAuth(verifier auth.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			principal, err := verifier.Verify(c.Request.Context(), token)
			if err != nil || principal == nil || principal.Username == "" {
				apierrors.Unauthorized(c, "Invalid or expired token")
				return
			}
			SetPrincipal(c, *principal)
			c.Next()
			return
		}

		principal, ok := sessionPrincipal(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}

		SetPrincipal(c, principal)
		c.Next()
	}
}

// RequireRole allows the request through when the principal holds any of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}
		if !principal.HasAnyRole(roles...) {
			apierrors.Forbidden(c, "Requires role: "+strings.Join(roles, " or "))
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func sessionPrincipal(c *gin.Context) (auth.Principal, bool) {
	// sessions.Default panics when no session middleware is mounted
	if _, exists := c.Get(sessions.DefaultKey); !exists {
		return auth.Principal{}, false
	}

	session := sessions.Default(c)
	username, _ := session.Get(constants.SessionKeyUsername).(string)
	if username == "" {
		return auth.Principal{}, false
	}
	roles, _ := session.Get(constants.SessionKeyRoles).(string)
	subject, _ := session.Get(constants.SessionKeySubject).(string)

	principal := auth.NewPrincipal(username, strings.Split(roles, ",")...)
	principal.Subject = subject
	return principal, true
}

// SetPrincipal stores the caller for the rest of the handler chain
func SetPrincipal(c *gin.Context, principal auth.Principal) {
	c.Set(constants.ContextKeyPrincipal, principal)
	c.Set(constants.ContextKeyUsername, principal.Username)
}

// GetPrincipal retrieves the current caller from context
func GetPrincipal(c *gin.Context) (auth.Principal, bool) {
	value, exists := c.Get(constants.ContextKeyPrincipal)
	if !exists {
		return auth.Principal{}, false
	}

	switch v := value.(type) {
	case auth.Principal:
		return v, v.Username != ""
	case *auth.Principal:
		if v == nil {
			return auth.Principal{}, false
		}
		return *v, v.Username != ""
	default:
		return auth.Principal{}, false
	}
}
