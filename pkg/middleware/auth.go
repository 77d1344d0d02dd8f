package middleware

import (
	"strings"

	"feedback-insights-demo/backend/pkg/errors"
	"feedback-insights-demo/backend/pkg/jwt"
	"feedback-insights-demo/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserIDContextKey is where the authenticated owner id is stored on the
// gin context.
const UserIDContextKey = "userID"

// JWTAuthMiddleware validates the bearer token and stores the
// authenticated owner id on the context. Every core operation downstream
// reads the owner id through UserID, never from ambient state.
func JWTAuthMiddleware(jwtService *jwt.Service, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Error(errors.NewUnauthorizedError(errors.CodeUnauthorized, "Authorization header is required."))
			c.Abort()
			return
		}

		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			c.Error(errors.NewUnauthorizedError(errors.CodeUnauthorized, "Authorization header must be a bearer token."))
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			log.Warn("token validation failed", "error", err.Error())
			c.Error(errors.NewUnauthorizedError(errors.CodeUnauthorized, "Invalid or expired token."))
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.Error(errors.NewUnauthorizedError(errors.CodeUnauthorized, "Invalid token subject."))
			c.Abort()
			return
		}

		c.Set(UserIDContextKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated owner id set by JWTAuthMiddleware.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(UserIDContextKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
