package auth

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Role names carried in token claims, compared case-insensitively.
const (
	RoleAdmin    = "ADMIN"
	RoleManager  = "MANAGER"
	RoleEmployee = "EMPLOYEE"
)

// ErrInvalidToken is returned for any token that fails verification:
// malformed, bad signature, expired or missing required claims.
var ErrInvalidToken = errors.New("invalid token")

// Principal is the verified identity of a caller.
type Principal struct {
	Subject   string    `json:"subject,omitempty"`
	Username  string    `json:"username"`
	Roles     []string  `json:"roles"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// NewPrincipal normalizes roles to upper case and drops duplicates.
func NewPrincipal(username string, roles ...string) Principal {
	return Principal{
		Username: strings.TrimSpace(username),
		Roles:    NormalizeRoles(roles),
	}
}

func (p Principal) HasRole(role string) bool {
	role = strings.ToUpper(strings.TrimSpace(role))
	for _, r := range p.Roles {
		if strings.ToUpper(r) == role {
			return true
		}
	}
	return false
}

func (p Principal) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if p.HasRole(r) {
			return true
		}
	}
	return false
}

func (p Principal) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}

// PrimaryRole picks the most privileged known role, for display.
func (p Principal) PrimaryRole() string {
	for _, r := range []string{RoleAdmin, RoleManager, RoleEmployee} {
		if p.HasRole(r) {
			return r
		}
	}
	if len(p.Roles) > 0 {
		return p.Roles[0]
	}
	return ""
}

func NormalizeRoles(roles []string) []string {
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.ToUpper(strings.TrimSpace(r))
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// TokenVerifier validates an opaque bearer token and resolves its identity.
// Implementations return an error wrapping ErrInvalidToken for tokens that
// are simply bad; any other error is treated as a verifier failure.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}
