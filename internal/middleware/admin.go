package middleware

import (
	"net/http"                // HTTP status codes
	"shopstore/internal/authz" // Administrative capability check

	"github.com/gin-gonic/gin" // Gin web framework
)

// AdminOnlyMiddleware asks the authorizer once whether the caller may
// perform administrative operations; handlers never re-check roles inline
func AdminOnlyMiddleware(a *authz.Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		allowed, err := a.CanAdminister(c.Request.Context(), userID.(uint)) // Single capability decision
		if err != nil {
			// Infrastructure failure while deciding
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Authorization check failed"})
			return
		}
		if !allowed {
			// If not admin, abort with forbidden status
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		// If admin, proceed to the next handler
		c.Next()
	}
}
