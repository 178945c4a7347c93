package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CookieName carries the session token for the web screen.
const CookieName = "cart_token"

// RequireBearer rejects requests without a valid bearer token.
func RequireBearer(iss *Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"statusCode": http.StatusUnauthorized, "message": "missing bearer token"})
			return
		}
		user, err := iss.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"statusCode": http.StatusUnauthorized, "message": "invalid token"})
			return
		}
		c.Request = c.Request.WithContext(WithUser(c.Request.Context(), user, token))
		c.Next()
	}
}

// FromCookie resolves the user from the session cookie when present. Anonymous
// requests pass through untouched.
func FromCookie(iss *Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(CookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}
		user, err := iss.Verify(token)
		if err != nil {
			c.Next()
			return
		}
		c.Request = c.Request.WithContext(WithUser(c.Request.Context(), user, token))
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
