package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"givemepillow/internal/security"
)

// newScopedRouter повторяет форму боевой таблицы маршрутов: /signup
// принимает только signup-токен, /users/me — только полную сессию.
func newScopedRouter(m *security.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	authorized := r.Group("", Auth(m))
	authorized.POST("/signup", RequireScope(security.ScopeSignup), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"scope": Claims(c).Scope})
	})

	session := authorized.Group("", RequireScope(security.ScopePrimaryUser))
	session.GET("/users/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": Claims(c).UserID})
	})
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: security.CookieName, Value: token})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func signupToken(t *testing.T, m *security.Manager) string {
	t.Helper()
	token, err := m.Issue(security.TokenParams{
		Scopes: []security.Scope{security.ScopeSignup},
		MaxAge: time.Hour,
		Email:  "new@example.com",
	})
	require.NoError(t, err)
	return token
}

func sessionToken(t *testing.T, m *security.Manager) string {
	t.Helper()
	token, err := m.Issue(security.TokenParams{
		Scopes: []security.Scope{security.ScopePrimaryUser},
		MaxAge: time.Hour,
		UserID: 7,
	})
	require.NoError(t, err)
	return token
}

func TestSignupTokenRejectedOnSessionRoutes(t *testing.T) {
	m := security.NewManager("test-secret")
	r := newScopedRouter(m)

	w := doRequest(t, r, http.MethodGet, "/users/me", signupToken(t, m))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "forbidden scope")
}

func TestSignupTokenAcceptedOnSignup(t *testing.T) {
	m := security.NewManager("test-secret")
	r := newScopedRouter(m)

	w := doRequest(t, r, http.MethodPost, "/signup", signupToken(t, m))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionTokenScopes(t *testing.T) {
	m := security.NewManager("test-secret")
	r := newScopedRouter(m)
	token := sessionToken(t, m)

	w := doRequest(t, r, http.MethodGet, "/users/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userId":7`)

	// и наоборот: полная сессия не проходит на завершение регистрации
	w = doRequest(t, r, http.MethodPost, "/signup", token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthRejectsMissingCookie(t *testing.T) {
	m := security.NewManager("test-secret")
	r := newScopedRouter(m)

	w := doRequest(t, r, http.MethodGet, "/users/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "not authenticated")
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	m := security.NewManager("test-secret")
	r := newScopedRouter(m)

	token, err := m.Issue(security.TokenParams{
		Scopes: []security.Scope{security.ScopePrimaryUser},
		MaxAge: -time.Minute,
		UserID: 7,
	})
	require.NoError(t, err)

	w := doRequest(t, r, http.MethodGet, "/users/me", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token is expired")
}

func TestAuthRejectsForeignToken(t *testing.T) {
	m := security.NewManager("test-secret")
	r := newScopedRouter(m)

	w := doRequest(t, r, http.MethodGet, "/users/me", sessionToken(t, security.NewManager("other-secret")))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid token")
}
