package auth

import "github.com/gin-gonic/gin"

// identityKey is the gin context key the auth middleware stores the
// verified identity under.
const identityKey = "auth.identity"

// SetIdentity stores the verified identity in the request context.
func SetIdentity(c *gin.Context, id *Identity) {
	c.Set(identityKey, id)
}

// CurrentIdentity retrieves the verified identity placed by the auth
// middleware. The second return is false on unguarded routes.
func CurrentIdentity(c *gin.Context) (*Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*Identity)
	return id, ok
}
