package auth

import (
	"net/http"
	"strings"

	"queuelist/internal/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Middleware проверяет Bearer-токен через Verifier и кладет userID в контекст.
func Middleware(verifier Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, response.ErrorResponse{
				Code:    "NO_AUTH_HEADER",
				Message: "Требуется авторизация",
			})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		userID, err := verifier.Verify(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, response.ErrorResponse{
				Code:    "INVALID_TOKEN",
				Message: "Неверный или просроченный токен",
			})
			c.Abort()
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}

// UserID достает идентификатор пользователя, положенный Middleware.
func UserID(c *gin.Context) uuid.UUID {
	v, ok := c.Get("userID")
	if !ok {
		return uuid.Nil
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}
