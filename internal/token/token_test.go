package token

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/bloglist/internal/models"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	svc := &Service{Secret: []byte("test_secret")}

	user := models.User{ID: 42, Username: "test_user"}
	signed, err := svc.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	payload, err := svc.Verify(signed)
	require.NoError(t, err)
	require.Equal(t, uint(42), payload.ID)
	require.Equal(t, "test_user", payload.Username)
}

func TestVerifyRejectsEmptyToken(t *testing.T) {
	svc := &Service{Secret: []byte("test_secret")}

	_, err := svc.Verify("")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := &Service{Secret: []byte("test_secret")}

	_, err := svc.Verify("not.a.token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := &Service{Secret: []byte("one_secret")}
	verifier := &Service{Secret: []byte("another_secret")}

	signed, err := issuer.Issue(models.User{ID: 1, Username: "test_user"})
	require.NoError(t, err)

	_, err = verifier.Verify(signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsPayloadWithoutID(t *testing.T) {
	secret := []byte("test_secret")
	svc := &Service{Secret: secret}

	claims := jwt.MapClaims{"username": "test_user"}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)

	_, err = svc.Verify(signed)
	require.ErrorIs(t, err, ErrMissingIdentity)
}
