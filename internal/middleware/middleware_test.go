package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func guarded(a *ConfirmAuth) *gin.Engine {
	r := gin.New()
	r.DELETE("/danger", a.RequireConfirmation(ScopeRestore), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func call(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodDelete, "/danger", nil)
	if token != "" {
		req.Header.Set(ConfirmationHeader, token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestConfirmAuth_RoundTrip(t *testing.T) {
	a := NewConfirmAuth("secret", time.Minute)
	token, expires, err := a.GenerateToken(ScopeRestore)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), expires, 2*time.Second)

	claims, err := a.ValidateToken(token, ScopeRestore)
	require.NoError(t, err)
	assert.Equal(t, ScopeRestore, claims.Scope)
}

func TestConfirmAuth_Rejects(t *testing.T) {
	a := NewConfirmAuth("secret", time.Minute)

	t.Run("wrong secret", func(t *testing.T) {
		token, _, err := NewConfirmAuth("other", time.Minute).GenerateToken(ScopeRestore)
		require.NoError(t, err)
		_, err = a.ValidateToken(token, ScopeRestore)
		assert.Error(t, err)
	})

	t.Run("wrong scope", func(t *testing.T) {
		token, _, err := a.GenerateToken("export")
		require.NoError(t, err)
		_, err = a.ValidateToken(token, ScopeRestore)
		assert.ErrorIs(t, err, ErrWrongScope)
	})

	t.Run("expired", func(t *testing.T) {
		old := NewConfirmAuth("secret", time.Minute)
		old.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, _, err := old.GenerateToken(ScopeRestore)
		require.NoError(t, err)
		_, err = a.ValidateToken(token, ScopeRestore)
		assert.Error(t, err)
	})
}

func TestRequireConfirmation(t *testing.T) {
	a := NewConfirmAuth("secret", time.Minute)
	r := guarded(a)

	assert.Equal(t, http.StatusUnauthorized, call(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, "not-a-jwt").Code)

	wrong, _, err := a.GenerateToken("export")
	require.NoError(t, err)
	w := call(r, wrong)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "FORBIDDEN")

	ok, _, err := a.GenerateToken(ScopeRestore)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, call(r, ok).Code)
}

func TestRateLimiter_PerClient(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour, 2)
	r := gin.New()
	r.POST("/import", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusAccepted) })

	post := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/import", nil)
		req.RemoteAddr = ip + ":40000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusAccepted, post("10.0.0.1"))
	assert.Equal(t, http.StatusAccepted, post("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, post("10.0.0.1"))

	// Another client has its own bucket.
	assert.Equal(t, http.StatusAccepted, post("10.0.0.2"))
}
