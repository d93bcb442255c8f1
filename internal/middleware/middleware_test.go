package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/ticket-tracker-api/internal/auth"
	"github.com/yukikurage/ticket-tracker-api/internal/constants"
)

type tokenMap map[string]auth.Principal

func (m tokenMap) Verify(_ context.Context, token string) (*auth.Principal, error) {
	p, ok := m[token]
	if !ok {
		return nil, fmt.Errorf("%w: unknown", auth.ErrInvalidToken)
	}
	return &p, nil
}

var verifier = tokenMap{
	"admin-token": auth.NewPrincipal("root", auth.RoleAdmin),
	"bob-token":   auth.NewPrincipal("bob", auth.RoleEmployee),
}

func init() {
	gin.SetMode(gin.TestMode)
}

func whoAmI(c *gin.Context) {
	p, ok := GetPrincipal(c)
	if !ok {
		c.Status(http.StatusTeapot)
		return
	}
	c.JSON(http.StatusOK, p)
}

func newRouter() *gin.Engine {
	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("test-secret"))))

	// Test-only login that writes the same keys as the session handler.
	r.POST("/login/:username", func(c *gin.Context) {
		s := sessions.Default(c)
		s.Set(constants.SessionKeyUsername, c.Param("username"))
		s.Set(constants.SessionKeyRoles, "MANAGER,EMPLOYEE")
		if err := s.Save(); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})

	api := r.Group("/api", RequireAuth(verifier))
	api.GET("/me", whoAmI)
	api.GET("/admin", RequireRole(auth.RoleAdmin), whoAmI)
	return r
}

func TestRequireAuth_Bearer(t *testing.T) {
	r := newRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer bob-token")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var p auth.Principal
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "bob", p.Username)
}

func TestRequireAuth_Rejections(t *testing.T) {
	r := newRouter()

	for _, header := range []string{"", "Bearer nope", "Basic Ym9iOnB3", "Bearer "} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
		assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
	}
}

func TestRequireAuth_Session(t *testing.T) {
	r := newRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login/manny", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var p auth.Principal
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "manny", p.Username)
	assert.Equal(t, []string{"MANAGER", "EMPLOYEE"}, p.Roles)
}

func TestRequireAuth_WithoutSessionMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/me", RequireAuth(verifier), whoAmI)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	r := newRouter()

	cases := map[string]int{
		"admin-token": http.StatusOK,
		"bob-token":   http.StatusForbidden,
	}
	for token, want := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, token)
	}
}

func TestRequireIDParam(t *testing.T) {
	r := gin.New()
	r.GET("/tickets/:id", RequireIDParam("id"), func(c *gin.Context) {
		id, ok := GetIDParam(c, "id")
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": id})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tickets/42", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":42}`, w.Body.String())

	for _, bad := range []string{"abc", "0", "-1"} {
		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tickets/"+bad, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
}

func TestRecoveryAndRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	r := gin.New()
	r.Use(RequestLogger(log), Recovery(log))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	assert.Contains(t, buf.String(), "handler panicked")
	assert.Contains(t, buf.String(), `"status":500`)
	assert.Contains(t, buf.String(), `"path":"/boom"`)
}
