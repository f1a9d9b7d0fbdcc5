package token

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Skotchmaster/bloglist/internal/models"
)

var (
	// ErrInvalidToken covers an absent, malformed or badly signed token.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingIdentity means the signature checked out but the payload
	// carries no user id.
	ErrMissingIdentity = errors.New("invalid token")
)

// Payload is what a bearer token proves: the user authenticated as
// ID under Username when the token was issued.
type Payload struct {
	Username string
	ID       uint
}

type Service struct {
	Secret []byte
}

// Issue signs a {username, id} payload with the server secret.
// Tokens carry no expiry claim.
func (s *Service) Issue(user models.User) (string, error) {
	claims := jwt.MapClaims{
		"username": user.Username,
		"id":       user.ID,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.Secret)
}

func (s *Service) Verify(raw string) (Payload, error) {
	if raw == "" {
		return Payload{}, ErrInvalidToken
	}

	t, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.Secret, nil
	})
	if err != nil || !t.Valid {
		return Payload{}, ErrInvalidToken
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return Payload{}, ErrInvalidToken
	}

	id, ok := claims["id"].(float64)
	if !ok || id == 0 {
		return Payload{}, ErrMissingIdentity
	}
	username, _ := claims["username"].(string)

	return Payload{Username: username, ID: uint(id)}, nil
}
