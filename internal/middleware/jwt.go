package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rotation-portal-api/internal/models"
	appErrors "github.com/noah-isme/rotation-portal-api/pkg/errors"
	"github.com/noah-isme/rotation-portal-api/pkg/logger"
	"github.com/noah-isme/rotation-portal-api/pkg/response"
)

// ContextUserKey is the gin context key storing the operator's JWT claims.
const ContextUserKey = "currentUser"

// TokenValidator turns a bearer token into operator claims.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// JWT requires a valid bearer token and records the operator on the context for handlers and the
// access log.
func JWT(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err == nil {
			var claims *models.JWTClaims
			if claims, err = validator.ValidateToken(token); err == nil {
				c.Set(ContextUserKey, claims)
				c.Set(logger.OperatorKey, claims.UserID)
				c.Next()
				return
			}
		}
		response.Error(c, err)
		c.Abort()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", appErrors.ErrUnauthorized
	}
	scheme, token, found := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
	}
	return token, nil
}
