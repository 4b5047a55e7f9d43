package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	demoEmail    = "demo@partner.com"
	demoPassword = "partner2026"
	demoToken    = "mock-partner-token-2026"
)

func newTestAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	a, err := NewAuthenticator(demoEmail, demoPassword, demoToken, DemoUser(demoEmail))
	require.NoError(t, err)
	return a
}

func TestLoginSucceedsWithDemoCredentials(t *testing.T) {
	a := newTestAuthenticator(t)

	token, err := a.Login(demoEmail, demoPassword)

	require.NoError(t, err)
	assert.Equal(t, demoToken, token)
	assert.True(t, a.IsAuthorized(token))
}

func TestLoginFailuresAreGeneric(t *testing.T) {
	a := newTestAuthenticator(t)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", demoEmail, "wrong"},
		{"unknown email", "other@partner.com", demoPassword},
		{"empty", "", ""},
		{"case differs", "Demo@partner.com", demoPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := a.Login(tt.email, tt.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			assert.Empty(t, token)
		})
	}
}

func TestIsAuthorizedIsExactMatch(t *testing.T) {
	a := newTestAuthenticator(t)

	assert.False(t, a.IsAuthorized(""))
	assert.False(t, a.IsAuthorized(demoToken+" "))
	assert.False(t, a.IsAuthorized("mock-partner-token"))

	user, ok := a.CurrentUser(demoToken)
	require.True(t, ok)
	assert.Equal(t, "partner-001", user.PartnerID)
	assert.Equal(t, "Sophie Vandenberghe", user.Name)
}

func TestNewAuthenticatorRequiresSettings(t *testing.T) {
	_, err := NewAuthenticator(demoEmail, "", demoToken, DemoUser(demoEmail))
	assert.Error(t, err)
}

func TestIsProtected(t *testing.T) {
	assert.True(t, IsProtected("/portal"))
	assert.True(t, IsProtected("/portal/"))
	assert.True(t, IsProtected("/portal/fundings"))
	assert.False(t, IsProtected("/portal/login"))
	assert.False(t, IsProtected("/api/portal/me"))
	assert.False(t, IsProtected("/shop"))
}

func gatedRouter(a *Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(a.Gate())
	r.GET("/portal/dashboard", func(c *gin.Context) {
		user, _ := UserFromContext(c)
		c.JSON(http.StatusOK, gin.H{"partner": user.PartnerID})
	})
	r.GET("/portal/login", func(c *gin.Context) { c.String(http.StatusOK, "login") })
	return r
}

func TestGateRedirectsWithoutCookie(t *testing.T) {
	r := gatedRouter(newTestAuthenticator(t))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/portal/dashboard", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, LoginPath, w.Header().Get("Location"))
}

func TestGateRedirectsWithWrongCookie(t *testing.T) {
	r := gatedRouter(newTestAuthenticator(t))

	req := httptest.NewRequest(http.MethodGet, "/portal/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "forged"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
}

func TestGatePassesWithToken(t *testing.T) {
	r := gatedRouter(newTestAuthenticator(t))

	req := httptest.NewRequest(http.MethodGet, "/portal/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: demoToken})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"partner": "partner-001"}`, w.Body.String())
}

func TestGateLeavesLoginOpen(t *testing.T) {
	r := gatedRouter(newTestAuthenticator(t))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/portal/login", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionCookieAttributes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	SetSessionCookie(c, demoToken, false)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, demoToken, cookies[0].Value)
	assert.Equal(t, CookieMaxAge, cookies[0].MaxAge)
	assert.Equal(t, "/", cookies[0].Path)
	assert.True(t, cookies[0].HttpOnly)
}
