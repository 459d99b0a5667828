package service

import (
	"testing"
	"time"

	"github.com/proovit/proovit/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthServiceRoundTrip(t *testing.T) {
	svc := NewAuthService("test-secret", time.Hour)

	token, err := svc.GenerateJWT(&model.Profile{ID: "profile-1"})
	require.NoError(t, err)

	userID, err := svc.VerifyJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "profile-1", userID)

	_, err = NewAuthService("other-secret", time.Hour).VerifyJWT(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewAuthService("test-secret", -time.Minute).GenerateJWT(&model.Profile{ID: "profile-1"})
	require.NoError(t, err)
	_, err = svc.VerifyJWT(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
