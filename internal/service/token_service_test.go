package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rotation-portal-api/internal/models"
	appErrors "github.com/noah-isme/rotation-portal-api/pkg/errors"
)

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims models.JWTClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func operatorClaims(issuer string, expiresIn time.Duration) models.JWTClaims {
	return models.JWTClaims{
		UserID: "op-1",
		Role:   models.RoleCoordinator,
		Email:  "coordinacion@hospital.cl",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   "op-1",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
}

func TestTokenServiceValidateToken(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "hospital-idp"})

	claims, err := svc.ValidateToken(signToken(t, jwt.SigningMethodHS256, []byte("secret"), operatorClaims("hospital-idp", time.Hour)))
	require.NoError(t, err)
	require.Equal(t, "op-1", claims.UserID)
	require.Equal(t, models.RoleCoordinator, claims.Role)
}

func TestTokenServiceRejectsInvalidTokens(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "hospital-idp"})
	noSubject := operatorClaims("hospital-idp", time.Hour)
	noSubject.UserID = ""
	unknownRole := operatorClaims("hospital-idp", time.Hour)
	unknownRole.Role = "STUDENT"

	cases := map[string]string{
		"wrong secret":   signToken(t, jwt.SigningMethodHS256, []byte("other"), operatorClaims("hospital-idp", time.Hour)),
		"expired":        signToken(t, jwt.SigningMethodHS256, []byte("secret"), operatorClaims("hospital-idp", -time.Minute)),
		"foreign issuer": signToken(t, jwt.SigningMethodHS256, []byte("secret"), operatorClaims("elsewhere", time.Hour)),
		"other method":   signToken(t, jwt.SigningMethodHS512, []byte("secret"), operatorClaims("hospital-idp", time.Hour)),
		"no subject":     signToken(t, jwt.SigningMethodHS256, []byte("secret"), noSubject),
		"unknown role":   signToken(t, jwt.SigningMethodHS256, []byte("secret"), unknownRole),
		"garbage":        "not-a-token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			requireAppError(t, err, appErrors.ErrUnauthorized)
		})
	}
}
