package realtime

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yukikurage/ticket-tracker-api/internal/auth"
	"github.com/yukikurage/ticket-tracker-api/internal/constants"
)

var (
	// ErrUnauthorized groups every handshake rejection caused by the token.
	ErrUnauthorized    = errors.New("unauthorized")
	ErrMissingToken    = fmt.Errorf("%w: token missing", ErrUnauthorized)
	ErrMissingUsername = fmt.Errorf("%w: token has no username", ErrUnauthorized)
	// ErrHandshakeInternal means the verifier itself failed.
	ErrHandshakeInternal = errors.New("handshake failed")
)

// Handshake gatekeeps new push connections with a TokenVerifier.
type Handshake struct {
	verifier auth.TokenVerifier
	log      zerolog.Logger
}

func NewHandshake(verifier auth.TokenVerifier, log zerolog.Logger) *Handshake {
	return &Handshake{
		verifier: verifier,
		log:      log.With().Str("component", "handshake").Logger(),
	}
}

// Authenticate validates the token query parameter of r. Errors wrap either
// ErrUnauthorized or ErrHandshakeInternal.
func (h *Handshake) Authenticate(r *http.Request) (principal *auth.Principal, err error) {
	token := strings.TrimSpace(r.URL.Query().Get(constants.TokenQueryParam))
	if token == "" {
		h.log.Warn().Str("remote", r.RemoteAddr).Msg("handshake rejected: token missing")
		return nil, ErrMissingToken
	}

	defer func() {
		if rec := recover(); rec != nil {
			h.log.Error().Interface("panic", rec).Msg("token verifier panicked")
			principal, err = nil, fmt.Errorf("%w: verifier panic: %v", ErrHandshakeInternal, rec)
		}
	}()

	p, verr := h.verifier.Verify(r.Context(), token)
	if verr != nil {
		if errors.Is(verr, auth.ErrInvalidToken) {
			h.log.Warn().Err(verr).Str("remote", r.RemoteAddr).Msg("handshake rejected: invalid token")
			return nil, fmt.Errorf("%w: %v", ErrUnauthorized, verr)
		}
		h.log.Error().Err(verr).Msg("handshake failed: verifier error")
		return nil, fmt.Errorf("%w: %v", ErrHandshakeInternal, verr)
	}
	if p == nil || strings.TrimSpace(p.Username) == "" {
		h.log.Warn().Str("remote", r.RemoteAddr).Msg("handshake rejected: no username claim")
		return nil, ErrMissingUsername
	}

	p.Username = strings.TrimSpace(p.Username)
	h.log.Debug().Str("username", p.Username).Msg("handshake accepted")
	return p, nil
}

// HandshakeStatus maps an Authenticate error to the HTTP status of the rejection.
func HandshakeStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
