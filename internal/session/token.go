package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vitalcare/clinic-portal/internal/scheduling"
)

// sessionClaims embeds the authenticated user in a signed token so a
// tampered persisted session is rejected on restore instead of trusted.
type sessionClaims struct {
	User scheduling.User `json:"user"`
	jwt.RegisteredClaims
}

func signUser(secret []byte, user scheduling.User, now time.Time) (string, error) {
	claims := sessionClaims{
		User: user,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   "clinic-portal",
			Subject:  user.ID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("session: sign token: %w", err)
	}
	return signed, nil
}

func parseUser(secret []byte, raw string) (*scheduling.User, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("session: parse token: %w", err)
	}
	if err := claims.User.Validate(); err != nil {
		return nil, fmt.Errorf("session: token user: %w", err)
	}
	user := claims.User
	return &user, nil
}
