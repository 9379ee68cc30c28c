package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"task-manager/models"
)

func TestJWTRoundTrip(t *testing.T) {
	s := &JWTService{secret: []byte("test-secret")}
	userID := primitive.NewObjectID().Hex()

	token, err := s.GenerateAuthToken(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	issuer := &JWTService{secret: []byte("issuer-secret")}
	verifier := &JWTService{secret: []byte("other-secret")}

	token, err := issuer.GenerateAuthToken(primitive.NewObjectID().Hex())
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}

func TestJWTRejectsUnexpectedSigningMethod(t *testing.T) {
	s := &JWTService{secret: []byte("test-secret")}

	claims := &Claims{
		UserID: primitive.NewObjectID().Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = s.ValidateToken(unsigned)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}

func TestJWTRejectsGarbage(t *testing.T) {
	s := &JWTService{secret: []byte("test-secret")}

	_, err := s.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}
