package delivery

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"kanban-mail-backend/internal/auth/usecase"

	"github.com/gin-gonic/gin"
)

// userKey is where RequireUser stores the authenticated *domain.User.
const userKey = "user"

var (
	errNoCredentials = errors.New("sign in to access your board")
	errBadScheme     = errors.New("authorization header must be \"Bearer <token>\"")
	errBadSession    = errors.New("session is invalid or has expired, sign in again")
)

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
// The scheme is matched case-insensitively.
func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errNoCredentials
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" || strings.ContainsRune(token, ' ') {
		return "", errBadScheme
	}
	return token, nil
}

func unauthorized(c *gin.Context, err error) {
	c.Header("WWW-Authenticate", `Bearer realm="kanban-mail"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
}

// AuthMiddleware resolves the bearer JWT to a user and rejects the request
// with 401 otherwise.
func AuthMiddleware(authUsecase usecase.AuthUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			unauthorized(c, err)
			return
		}

		user, err := authUsecase.ValidateToken(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, usecase.ErrInvalidToken) && !errors.Is(err, usecase.ErrUserNotFound) {
				log.Printf("[Auth] Token validation failed on %s: %v", c.FullPath(), err)
			}
			unauthorized(c, errBadSession)
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}
