// Package middleware provides request identity and authorization middleware for the Gin web framework.
package middleware

import (
	"net/http"
	"strings"

	"feedbackboard/internal/config"
	contextutils "feedbackboard/internal/utils"

	"github.com/gin-gonic/gin"
)

// Gin context keys for the caller's identity
const (
	// UserIDKey is the key used to store the pseudonymous user ID
	UserIDKey = "userID"
	// UserRoleKey is the key used to store the caller's role
	UserRoleKey = "userRole"
)

const maxUserIDLength = 100

// Identity reads the caller's user ID and role from the request headers and
// stores them in both the Gin context and the request context. Unknown roles
// are treated as student.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(config.HeaderUserID))
		if len(userID) > maxUserIDLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "用户标识无效",
				"code":  string(contextutils.ErrorCodeInvalidInput),
			})
			return
		}

		role := strings.ToLower(strings.TrimSpace(c.GetHeader(config.HeaderUserRole)))
		if !config.IsStaffRole(role) {
			role = config.RoleStudent
		}

		c.Set(UserIDKey, userID)
		c.Set(UserRoleKey, role)

		ctx := contextutils.WithUserRole(contextutils.WithUserID(c.Request.Context(), userID), role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireUser rejects requests that carry no user ID
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserID(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "缺少用户标识",
				"code":  string(contextutils.ErrorCodeUnauthorized),
			})
			return
		}
		c.Next()
	}
}

// RequireStaff rejects requests from callers that are not teachers or admins
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsStaff(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "仅教师或管理员可执行此操作",
				"code":  string(contextutils.ErrorCodeForbidden),
			})
			return
		}
		c.Next()
	}
}

// GetUserID returns the user ID stored by Identity
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// GetUserRole returns the role stored by Identity
func GetUserRole(c *gin.Context) string {
	return c.GetString(UserRoleKey)
}

// IsStaff reports whether the caller is a teacher or an admin
func IsStaff(c *gin.Context) bool {
	return config.IsStaffRole(GetUserRole(c))
}
