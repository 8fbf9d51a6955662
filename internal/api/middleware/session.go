package middleware

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// SessionCookie carries the signed admin session token.
	SessionCookie = "sijill_session"

	// ContextAdminKey holds the authenticated admin username in the gin context.
	ContextAdminKey = "admin_user"
)

type sessionClaims struct {
	jwt.RegisteredClaims
}

// IssueSession signs a session token for the admin user.
func IssueSession(secret, username string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// SessionAuth validates the session cookie and stores the admin username in
// the context. Browser requests without a valid session are redirected to
// the login page with the original path preserved.
func SessionAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(SessionCookie)
		if err != nil || raw == "" {
			redirectToLogin(c)
			return
		}

		claims := &sessionClaims{}
		tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

		if err != nil || tok == nil || !tok.Valid || claims.Subject == "" {
			redirectToLogin(c)
			return
		}

		c.Set(ContextAdminKey, claims.Subject)
		c.Next()
	}
}

func redirectToLogin(c *gin.Context) {
	c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request.URL.Path))
	c.Abort()
}

// ClearSession expires the session cookie.
func ClearSession(c *gin.Context) {
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
}

// SetSession installs the session cookie.
func SetSession(c *gin.Context, token string, ttl time.Duration) {
	c.SetCookie(SessionCookie, token, int(ttl.Seconds()), "/", "", false, true)
}
