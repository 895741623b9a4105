package middleware

import (
	"strings"

	"contentpay_backend/internal/auth"
	"contentpay_backend/internal/logger"
	"contentpay_backend/pkg/apperrors"
	"contentpay_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
)

const guestTokenHeader = "X-Guest-Token"

// IdentityMiddleware resolves the caller from a member bearer token or a guest
// token. Requests without either pass through anonymous; a malformed token is
// rejected.
func IdentityMiddleware(tokens *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		guestToken := c.GetHeader(guestTokenHeader)

		switch {
		case authHeader != "":
			if !strings.HasPrefix(authHeader, "Bearer ") {
				abortInvalidToken(c)
				return
			}
			claims, err := tokens.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil || claims.IsGuest() {
				abortInvalidToken(c)
				return
			}
			c.Set(contextkeys.MemberIDKey, claims.UserID)
			c.Set(contextkeys.RoleKey, claims.Role)
			c.Request = c.Request.WithContext(logger.WithMemberID(c.Request.Context(), claims.UserID))

		case guestToken != "":
			claims, err := tokens.ParseToken(guestToken)
			if err != nil || !claims.IsGuest() {
				abortInvalidToken(c)
				return
			}
			c.Set(contextkeys.GuestIDKey, claims.UserID)
			c.Set(contextkeys.RoleKey, claims.Role)
			c.Request = c.Request.WithContext(logger.WithGuestID(c.Request.Context(), claims.UserID))
		}

		c.Next()
	}
}

// RequireMember rejects anonymous and guest callers.
func RequireMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(contextkeys.MemberIDKey) == "" {
			apperrors.HandleError(c, apperrors.ErrAuthenticationRequired)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRoles allows only callers whose token carries one of roles.
func RequireRoles(roles ...string) gin.HandlerFunc {
	roleSet := make(map[string]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		role := c.GetString(contextkeys.RoleKey)
		if role == "" {
			apperrors.HandleError(c, apperrors.ErrAuthenticationRequired)
			c.Abort()
			return
		}
		if !roleSet[role] {
			apperrors.HandleError(c, apperrors.NewForbiddenError("insufficient role"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func abortInvalidToken(c *gin.Context) {
	apperrors.HandleError(c, apperrors.NewInvalidTokenError("invalid or expired token"))
	c.Abort()
}
