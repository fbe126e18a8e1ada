package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/scms/clinic-api/internal/handler"
	"github.com/scms/clinic-api/internal/service/access"
	apperrors "github.com/scms/clinic-api/pkg/errors"
)

type AuthMiddleware struct {
	guard *access.Service
}

func NewAuthMiddleware(guard *access.Service) *AuthMiddleware {
	return &AuthMiddleware{guard: guard}
}

// Authenticate resolves the bearer token into an actor and stores it in the
// request context. Every downstream operation receives the actor explicitly;
// nothing reads session state ambiently.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}

		actor, err := m.guard.ResolveActor(c.Request.Context(), parts[1])
		if err != nil {
			status := http.StatusUnauthorized
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				status = appErr.StatusCode()
			}
			c.JSON(status, handler.NewErrorResponse("not authenticated"))
			c.Abort()
			return
		}

		c.Set(handler.ContextActor, actor)
		c.Next()
	}
}
