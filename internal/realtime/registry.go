package realtime

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yukikurage/ticket-tracker-api/internal/auth"
)

// Conn is a live push connection. Send must be safe for concurrent use.
type Conn interface {
	Send(payload []byte) error
	Close() error
	Alive() bool
}

// Session binds a username to its single current connection.
type Session struct {
	Username    string
	Principal   auth.Principal
	Conn        Conn
	ConnectedAt time.Time
}

// Registry holds at most one live session per username. The lock is never
// held across connection I/O.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	log      zerolog.Logger
	now      func() time.Time
}

func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		log:      log.With().Str("component", "session_registry").Logger(),
		now:      time.Now,
	}
}

// Register admits conn for username, closing any session it replaces.
func (r *Registry) Register(username string, principal auth.Principal, conn Conn) *Session {
	session := &Session{
		Username:    username,
		Principal:   principal,
		Conn:        conn,
		ConnectedAt: r.now(),
	}

	r.mu.Lock()
	previous := r.sessions[username]
	r.sessions[username] = session
	total := len(r.sessions)
	r.mu.Unlock()

	if previous != nil && previous.Conn != conn {
		if err := previous.Conn.Close(); err != nil {
			r.log.Debug().Err(err).Str("username", username).Msg("error closing replaced session")
		}
		r.log.Info().Str("username", username).Msg("replaced stale session")
	}

	r.log.Info().Str("username", username).Int("online", total).Msg("user connected")
	return session
}

// Unregister removes whatever session is registered for username.
func (r *Registry) Unregister(username string) {
	r.mu.Lock()
	_, ok := r.sessions[username]
	delete(r.sessions, username)
	r.mu.Unlock()

	if ok {
		r.log.Info().Str("username", username).Msg("user disconnected")
	}
}

// UnregisterConn removes the session for username only if conn is still the
// registered connection. It reports whether a session was removed.
func (r *Registry) UnregisterConn(username string, conn Conn) bool {
	r.mu.Lock()
	current, ok := r.sessions[username]
	removed := ok && current.Conn == conn
	if removed {
		delete(r.sessions, username)
	}
	r.mu.Unlock()

	if removed {
		r.log.Info().Str("username", username).Msg("user disconnected")
	}
	return removed
}

// Lookup returns the current session for username.
func (r *Registry) Lookup(username string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[username]
	return s, ok
}

// IsOnline reports whether username has a registered, live connection.
func (r *Registry) IsOnline(username string) bool {
	s, ok := r.Lookup(username)
	return ok && s.Conn.Alive()
}

// ListOnline returns the usernames with a live connection, sorted. A closed
// connection still awaiting unregister is left out, matching IsOnline.
func (r *Registry) ListOnline() []string {
	names := make([]string, 0)
	for _, s := range r.Snapshot() {
		if s.Conn.Alive() {
			names = append(names, s.Username)
		}
	}

	sort.Strings(names)
	return names
}

// Count returns how many users ListOnline would report.
func (r *Registry) Count() int {
	n := 0
	for _, s := range r.Snapshot() {
		if s.Conn.Alive() {
			n++
		}
	}
	return n
}

// Snapshot copies the current sessions.
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.RUnlock()
	return out
}

// CloseAll closes and removes every session. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for name, s := range sessions {
		if err := s.Conn.Close(); err != nil {
			r.log.Debug().Err(err).Str("username", name).Msg("error closing session")
		}
	}
}
