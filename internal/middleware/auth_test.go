package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rotation-portal-api/internal/models"
	appErrors "github.com/noah-isme/rotation-portal-api/pkg/errors"
	"github.com/noah-isme/rotation-portal-api/pkg/logger"
)

type validatorStub struct {
	claims *models.JWTClaims
}

func (v validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" || v.claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return v.claims, nil
}

func newAuthRouter(claims *models.JWTClaims, roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(JWT(validatorStub{claims: claims}))
	router.POST("/decide", RequireRoles(roles...), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(logger.OperatorKey))
	})
	return router
}

func TestJWTAndRBAC(t *testing.T) {
	coordinator := &models.JWTClaims{UserID: "op-1", Role: models.RoleCoordinator}
	viewer := &models.JWTClaims{UserID: "op-2", Role: models.RoleViewer}

	cases := []struct {
		name   string
		claims *models.JWTClaims
		header string
		status int
		body   string
	}{
		{name: "missing header", claims: coordinator, status: http.StatusUnauthorized},
		{name: "wrong scheme", claims: coordinator, header: "Basic good", status: http.StatusUnauthorized},
		{name: "empty token", claims: coordinator, header: "Bearer   ", status: http.StatusUnauthorized},
		{name: "invalid token", claims: coordinator, header: "Bearer bad", status: http.StatusUnauthorized},
		{name: "role not allowed", claims: viewer, header: "Bearer good", status: http.StatusForbidden},
		{name: "allowed", claims: coordinator, header: "Bearer good", status: http.StatusOK, body: "op-1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newAuthRouter(tc.claims, models.DecisionRoles...)
			req := httptest.NewRequest(http.MethodPost, "/decide", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tc.status, rec.Code)
			if tc.body != "" {
				require.Equal(t, tc.body, rec.Body.String())
			}
		})
	}
}

func TestRBACWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
