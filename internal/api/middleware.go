package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const operatorContextKey = "operator"

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid authorization format"})
			c.Abort()
			return
		}

		claims, err := ParseToken(s.config.JWT.Secret, parts[1])
		if err != nil {
			s.logger.Debug().Err(err).Msg("Rejected operator token")
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid token"})
			c.Abort()
			return
		}

		c.Set(operatorContextKey, claims.Subject)
		c.Next()
	}
}

func getOperatorFromContext(c *gin.Context) (string, bool) {
	v, exists := c.Get(operatorContextKey)
	if !exists {
		return "", false
	}
	op, ok := v.(string)
	return op, ok
}
