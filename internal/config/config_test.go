package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("S3_REGION", "us-east-1")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg := Load()

	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "gpt-4o", cfg.OpenAIModel)
	assert.Equal(t, 5*time.Minute, cfg.VerifierSignedURLTTL)
	assert.Equal(t, int64(10<<20), cfg.ProofMaxImageBytes)
	assert.Equal(t, "proof-images", cfg.S3Bucket)
	assert.False(t, cfg.ProofAuditRejected)
	assert.Equal(t, 50, cfg.FeedLimit)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PROOF_AUDIT_REJECTED", "true")
	t.Setenv("VERIFIER_TIMEOUT", "5s")
	t.Setenv("FEED_LIMIT", "10")
	t.Setenv("APP_TIMEZONE", "Asia/Tokyo")

	cfg := Load()

	assert.True(t, cfg.ProofAuditRejected)
	assert.Equal(t, 5*time.Second, cfg.VerifierTimeout)
	assert.Equal(t, 10, cfg.FeedLimit)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", loc.String())
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	setRequired(t)
	t.Setenv("PROOF_AUDIT_REJECTED", "maybe")
	t.Setenv("VERIFIER_TIMEOUT", "soon")
	t.Setenv("FEED_LIMIT", "-3")

	cfg := Load()

	assert.False(t, cfg.ProofAuditRejected)
	assert.Equal(t, 30*time.Second, cfg.VerifierTimeout)
	assert.Equal(t, 50, cfg.FeedLimit)
}

func TestLocationLocal(t *testing.T) {
	cfg := &Config{Timezone: "Local"}

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	cfg.Timezone = "Not/AZone"
	_, err = cfg.Location()
	assert.Error(t, err)
}
