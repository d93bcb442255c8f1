package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type SocketTestSuite struct {
	suite.Suite
	registry   *Registry
	dispatcher *Dispatcher
	server     *httptest.Server
}

func (s *SocketTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	s.registry = NewRegistry(testLogger)
	s.dispatcher = NewDispatcher(s.registry, testLogger)
	handshake := NewHandshake(stubVerifier{}, testLogger)
	handler := NewSocketHandler(handshake, s.registry, s.dispatcher, []string{"*"}, testLogger)

	router := gin.New()
	router.GET("/api/v1/notifications", handler.Serve)
	s.server = httptest.NewServer(router)
}

func (s *SocketTestSuite) TearDownTest() {
	s.registry.CloseAll()
	s.server.Close()
}

func (s *SocketTestSuite) dial(token string) (*websocket.Conn, *http.Response, error) {
	url := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/api/v1/notifications?token=" + token
	return websocket.DefaultDialer.Dial(url, nil)
}

func (s *SocketTestSuite) readEvent(ws *websocket.Conn) Event {
	var ev Event
	require.NoError(s.T(), ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(s.T(), ws.ReadJSON(&ev))
	return ev
}

func (s *SocketTestSuite) TestConnectReceivesAcknowledgement() {
	ws, _, err := s.dial("alice-token")
	s.Require().NoError(err)
	defer ws.Close()

	ev := s.readEvent(ws)
	s.Equal(KindConnection, ev.Type)
	s.Equal("Connection established", ev.Message)
	s.NotEmpty(ev.ID)

	s.Eventually(func() bool { return s.registry.IsOnline("alice") }, time.Second, 10*time.Millisecond)
}

func (s *SocketTestSuite) TestPingPong() {
	ws, _, err := s.dial("alice-token")
	s.Require().NoError(err)
	defer ws.Close()
	s.readEvent(ws)

	s.Require().NoError(ws.WriteMessage(websocket.TextMessage, []byte("ping")))
	s.Require().NoError(ws.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, data, err := ws.ReadMessage()
	s.Require().NoError(err)
	s.Equal("pong", string(data))
}

func (s *SocketTestSuite) TestRejectsBadTokens() {
	cases := map[string]int{
		"":             http.StatusUnauthorized,
		"forged":       http.StatusUnauthorized,
		"nouser-token": http.StatusUnauthorized,
		"broken-token": http.StatusInternalServerError,
	}
	for token, status := range cases {
		_, resp, err := s.dial(token)
		s.Require().ErrorIs(err, websocket.ErrBadHandshake, "token %q", token)
		s.Require().NotNil(resp)
		s.Equal(status, resp.StatusCode, "token %q", token)
		resp.Body.Close()
	}
	s.Equal(0, s.registry.Count())
}

func (s *SocketTestSuite) TestReconnectReplacesPreviousConnection() {
	first, _, err := s.dial("alice-token")
	s.Require().NoError(err)
	defer first.Close()
	s.readEvent(first)

	second, _, err := s.dial("alice-token")
	s.Require().NoError(err)
	defer second.Close()
	s.readEvent(second)

	// The replaced socket is closed by the server.
	s.Require().NoError(first.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, _, err = first.ReadMessage()
	s.Error(err)

	s.Eventually(func() bool { return s.registry.Count() == 1 }, time.Second, 10*time.Millisecond)
	s.True(s.registry.IsOnline("alice"))

	s.True(s.dispatcher.SendToUser("alice", "still here", KindInfo))
	ev := s.readEvent(second)
	s.Equal("still here", ev.Message)
	s.Equal("alice", ev.Sender)
}

func (s *SocketTestSuite) TestDisconnectUnregisters() {
	ws, _, err := s.dial("bob-token")
	s.Require().NoError(err)
	s.readEvent(ws)
	s.Require().True(s.registry.IsOnline("bob"))

	s.Require().NoError(ws.Close())

	s.Eventually(func() bool { return !s.registry.IsOnline("bob") }, 2*time.Second, 10*time.Millisecond)
	s.False(s.dispatcher.SendToUser("bob", "gone", KindInfo))
}

func TestSocketTestSuite(t *testing.T) {
	suite.Run(t, new(SocketTestSuite))
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.example"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.True(t, check(req), "requests without Origin are allowed")

	req.Header.Set("Origin", "https://app.example")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))
}
