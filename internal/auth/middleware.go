package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"semisto-service/internal/models"
)

const (
	LoginPath = "/portal/login"
	HomePath  = "/portal/"

	userKey = "portal_user"
)

// IsProtected reports whether path sits behind the session gate: everything
// under /portal except the login page. /api/portal stays open.
func IsProtected(path string) bool {
	return strings.HasPrefix(path, "/portal") && !strings.HasPrefix(path, LoginPath)
}

// Gate redirects requests for protected paths to the login page unless they
// carry the session cookie.
func (a *Authenticator) Gate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsProtected(c.Request.URL.Path) {
			c.Next()
			return
		}

		token, _ := c.Cookie(CookieName)
		user, ok := a.CurrentUser(token)
		if !ok {
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// SetSessionCookie stores the token with a 7 day max age
func SetSessionCookie(c *gin.Context, token string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, token, CookieMaxAge, CookiePath, "", secure, true)
}

// ClearSessionCookie expires the cookie whether or not one was sent
func ClearSessionCookie(c *gin.Context, secure bool) {
	c.SetCookie(CookieName, "", -1, CookiePath, "", secure, true)
}

// UserFromContext returns the identity the gate attached to the request
func UserFromContext(c *gin.Context) (models.AuthUser, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return models.AuthUser{}, false
	}
	user, ok := v.(models.AuthUser)
	return user, ok
}
