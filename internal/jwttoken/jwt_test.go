package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "collabgate/pkg/domain-errors"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-signing-key", "collabgate", "collabgate-api")

	token, err := svc.GenerateAccessToken("alice", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
}

func TestJWTService_RejectsExpiredToken(t *testing.T) {
	svc := NewJWTService("test-signing-key", "collabgate", "collabgate-api")

	token, err := svc.GenerateAccessToken("alice", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestJWTService_RejectsWrongKey(t *testing.T) {
	issuer := NewJWTService("key-one", "collabgate", "collabgate-api")
	verifier := NewJWTService("key-two", "collabgate", "collabgate-api")

	token, err := issuer.GenerateAccessToken("alice", time.Hour)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestJWTService_RejectsGarbage(t *testing.T) {
	svc := NewJWTService("test-signing-key", "collabgate", "collabgate-api")
	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
}
