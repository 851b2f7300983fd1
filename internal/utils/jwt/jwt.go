package jwt

import (
	"errors"
	"time"

	"github.com/cloudvid/transcriber-service/internal/types"
	jwtlib "github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 24 * time.Hour

// Claims carries the identity embedded in a session token: user id (sub),
// role and plan tier.
type Claims struct {
	Role types.Role `json:"role"`
	Plan types.Plan `json:"plan"`
	jwtlib.RegisteredClaims
}

// CreateToken issues a signed, time-bound session token for a user.
func CreateToken(userID string, role types.Role, plan types.Plan, secret string) (string, error) {
	claims := Claims{
		Role: role,
		Plan: plan,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwtlib.NewNumericDate(time.Now()),
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(tokenTTL)),
		},
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates a token and returns its claims.
func ParseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenString, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
