package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

// Identity is established by the external API layer; this core only threads
// the opaque tenant and actor values through for audit attribution.
const (
	tenantIDKey = contextKey("tenantID")
	actorIDKey  = contextKey("actorID")

	tenantHeader = "X-Tenant-ID"
	actorHeader  = "X-Actor-ID"
)

// IdentityMiddleware copies the tenant and actor headers set by the upstream
// gateway into the request context. It rejects nothing; authorization is the
// excluded collaborator's job.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if tenant := c.GetHeader(tenantHeader); tenant != "" {
			ctx = context.WithValue(ctx, tenantIDKey, tenant)
		}
		if actor := c.GetHeader(actorHeader); actor != "" {
			ctx = context.WithValue(ctx, actorIDKey, actor)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetTenantIDFromContext retrieves the tenant ID from the request context.
func GetTenantIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Request.Context().Value(tenantIDKey).(string)
	return v, ok && v != ""
}

// GetActorIDFromContext retrieves the acting user ID from the request context.
func GetActorIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Request.Context().Value(actorIDKey).(string)
	return v, ok && v != ""
}
