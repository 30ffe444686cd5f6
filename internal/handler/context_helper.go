package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rotation-portal-api/internal/middleware"
	"github.com/noah-isme/rotation-portal-api/internal/models"
	appErrors "github.com/noah-isme/rotation-portal-api/pkg/errors"
	"github.com/noah-isme/rotation-portal-api/pkg/response"
)

// requireOperator returns the authenticated operator id. It writes a 401 and returns false when
// the route was reached without claims.
func requireOperator(c *gin.Context) (string, bool) {
	value, _ := c.Get(middleware.ContextUserKey)
	claims, ok := value.(*models.JWTClaims)
	if !ok || claims == nil || claims.UserID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "operator identity required"))
		return "", false
	}
	return claims.UserID, true
}
