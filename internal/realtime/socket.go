package realtime

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/yukikurage/ticket-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/ticket-tracker-api/internal/errors"
)

const closeGracePeriod = time.Second

var errConnClosed = errors.New("connection closed")

// socketConn serializes writes to a websocket; gorilla connections allow a
// single concurrent writer.
type socketConn struct {
	ws        *websocket.Conn
	writeMu   sync.Mutex
	closed    atomic.Bool
	closeOnce sync.Once
}

func newSocketConn(ws *websocket.Conn) *socketConn {
	return &socketConn{ws: ws}
}

func (c *socketConn) Send(payload []byte) error {
	if c.closed.Load() {
		return errConnClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

func (c *socketConn) Alive() bool {
	return !c.closed.Load()
}

func (c *socketConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
		err = c.ws.Close()
	})
	return err
}

// SocketHandler serves the push-connection endpoint: handshake, admission to
// the registry, then a read loop answering "ping" with "pong".
type SocketHandler struct {
	handshake  *Handshake
	registry   *Registry
	dispatcher *Dispatcher
	upgrader   websocket.Upgrader
	log        zerolog.Logger
}

func NewSocketHandler(handshake *Handshake, registry *Registry, dispatcher *Dispatcher, allowedOrigins []string, log zerolog.Logger) *SocketHandler {
	return &SocketHandler{
		handshake:  handshake,
		registry:   registry,
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log.With().Str("component", "socket").Logger(),
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Serve handles GET <notifications path>?token=...
func (h *SocketHandler) Serve(c *gin.Context) {
	principal, err := h.handshake.Authenticate(c.Request)
	if err != nil {
		if HandshakeStatus(err) == http.StatusUnauthorized {
			apierrors.Unauthorized(c, "Invalid or missing token")
		} else {
			apierrors.InternalError(c, "Handshake failed")
		}
		return
	}
	c.Set(constants.ContextKeyPrincipal, *principal)
	c.Set(constants.ContextKeyUsername, principal.Username)

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader already wrote the HTTP error.
		h.log.Warn().Err(err).Str("username", principal.Username).Msg("websocket upgrade failed")
		return
	}

	conn := newSocketConn(ws)
	session := h.registry.Register(principal.Username, *principal, conn)
	h.dispatcher.SendConnected(session)

	h.readLoop(session)
}

func (h *SocketHandler) readLoop(session *Session) {
	conn := session.Conn.(*socketConn)
	defer func() {
		h.registry.UnregisterConn(session.Username, conn)
		_ = conn.Close()
	}()

	for {
		messageType, data, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && conn.Alive() {
				h.log.Warn().Err(err).Str("username", session.Username).Msg("transport error")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		h.log.Debug().Str("username", session.Username).Int("bytes", len(data)).Msg("message received")
		if string(data) == "ping" {
			if err := conn.Send([]byte("pong")); err != nil {
				h.log.Warn().Err(err).Str("username", session.Username).Msg("failed to answer ping")
				return
			}
		}
	}
}
