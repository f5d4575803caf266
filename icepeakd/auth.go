package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/silky/icepeak/icepeak"
)

// authMiddleware validates the bearer token on every request and
// stashes the decoded claims in the gin context: a missing or invalid
// token is 401. The claims' granted path prefixes are not checked
// here; each handler checks them against the requested path.
func authMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		claims, err := icepeak.ParseClaimsVerified(token, secret)
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set("claims", claims)
		c.Next()
	}
}

// bearerToken extracts the token from the Authorization header
// ("Bearer <jwt>") or, for WebSocket handshakes that cannot set
// arbitrary headers from a browser, the ?token= query parameter.
func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(header, prefix) {
			return strings.TrimPrefix(header, prefix)
		}
	}
	return c.Query("token")
}

func claimsFromContext(c *gin.Context) *icepeak.Claims {
	claims, _ := c.MustGet("claims").(*icepeak.Claims)
	return claims
}

func requirePath(c *gin.Context, path icepeak.Path) bool {
	claims := claimsFromContext(c)
	if claims == nil || !claims.Grants(path) {
		c.AbortWithStatus(http.StatusUnauthorized)
		return false
	}
	return true
}
