package ginserver

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"
)

const principalContextKey = "skillconnect.principal"

// principal is the already-authenticated identity. Session issuance and
// credential checks live with the auth collaborator; this layer only
// trusts the id it forwards.
type principal struct {
	ID string
}

// IdentityMiddleware resolves the authenticated user id forwarded by
// the auth edge in the X-User-ID header.
type IdentityMiddleware struct{}

func (m IdentityMiddleware) Handle(c *gin.Context) {
	id := strings.TrimSpace(c.GetHeader("X-User-ID"))
	if id != "" {
		c.Set(principalContextKey, principal{ID: id})
	}
	c.Next()
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	v, ok := c.Get(principalContextKey)
	if !ok {
		return principal{}, false
	}
	p, ok := v.(principal)
	return p, ok
}

func requireUser(c *gin.Context) (principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok || p.ID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return principal{}, false
	}
	return p, true
}
