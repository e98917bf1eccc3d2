package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chamados-io/chamados-ce/internal/auth"
	"github.com/chamados-io/chamados-ce/internal/cache"
	"github.com/chamados-io/chamados-ce/internal/models"
)

// Context keys set by RequireAuth.
const (
	ContextUserID      = "user_id"
	ContextAssignments = "assignments"
	ContextPermissions = "permissions"
)

// AuthMiddleware authenticates requests via bearer token and resolves the
// caller's permissions for the handlers downstream. The permission cache is
// optional; when absent every request resolves from the matrix directly.
type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	matrix     *auth.Matrix
	perms      *cache.PermissionCache
}

func NewAuthMiddleware(jwtManager *auth.JWTManager, matrix *auth.Matrix, perms *cache.PermissionCache) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager, matrix: matrix, perms: perms}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			unauthorized(c, "missing authorization token")
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}

		perms, ok := m.perms.Get(c.Request.Context(), claims.UserID)
		if !ok {
			perms = m.matrix.Resolve(claims.Assignments)
			// Best effort; authorization never depends on the cache.
			_ = m.perms.Set(c.Request.Context(), claims.UserID, perms)
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextAssignments, claims.Assignments)
		c.Set(ContextPermissions, perms)
		c.Next()
	}
}

// RequirePermission gates a route on one permission. The admin override
// passes implicitly through PermissionSet.Has.
func (m *AuthMiddleware) RequirePermission(p auth.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !PermissionsFrom(c).Has(p) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "permission denied",
			})
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   message,
	})
}

// PermissionsFrom returns the resolved permission set RequireAuth stored on
// the context; empty set when unauthenticated.
func PermissionsFrom(c *gin.Context) auth.PermissionSet {
	if v, ok := c.Get(ContextPermissions); ok {
		if perms, ok := v.(auth.PermissionSet); ok {
			return perms
		}
	}
	return auth.PermissionSet{}
}

// AssignmentsFrom returns the caller's role assignments from the context.
func AssignmentsFrom(c *gin.Context) []models.RoleAssignment {
	if v, ok := c.Get(ContextAssignments); ok {
		if assignments, ok := v.([]models.RoleAssignment); ok {
			return assignments
		}
	}
	return nil
}

// UserIDFrom returns the authenticated user id from the context.
func UserIDFrom(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
