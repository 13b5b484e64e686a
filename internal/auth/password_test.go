package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasinhessnawi1/Natours_Backend/internal/auth"
	"github.com/yasinhessnawi1/Natours_Backend/internal/config"
)

func fastPasswordConfig() *auth.PasswordConfig {
	return &auth.PasswordConfig{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func TestHashAndVerifyPassword(t *testing.T) {
	cfg := fastPasswordConfig()

	hash, salt, err := auth.HashPassword("pass1234", cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEmpty(t, salt)

	ok, err := auth.VerifyPassword("pass1234", hash, salt, cfg)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = auth.VerifyPassword("wrong-password", hash, salt, cfg)
	require.NoError(t, err)
	assert.False(t, ok)

	hash2, salt2, err := auth.HashPassword("pass1234", cfg)
	require.NoError(t, err)
	assert.NotEqual(t, salt, salt2, "salts must be random")
	assert.NotEqual(t, hash, hash2)
}

func TestVerifyPassword_BadEncoding(t *testing.T) {
	_, err := auth.VerifyPassword("x", "%%%", "c2FsdA==", fastPasswordConfig())
	assert.Error(t, err)

	_, err = auth.VerifyPassword("x", "aGFzaA==", "%%%", fastPasswordConfig())
	assert.Error(t, err)
}

func TestArgon2Hasher(t *testing.T) {
	hasher := auth.NewArgon2Hasher(fastPasswordConfig())
	hash, salt, err := hasher.Hash("secret-pass")
	require.NoError(t, err)

	ok, err := hasher.Verify("secret-pass", hash, salt)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.NotNil(t, auth.NewArgon2Hasher(nil))
}

func TestConfigFromAppConfig(t *testing.T) {
	cfg := &config.AppConfig{}
	cfg.PasswordHash.Memory = 2048
	cfg.PasswordHash.Iterations = 2
	cfg.PasswordHash.Parallelism = 1
	cfg.PasswordHash.SaltLength = 8
	cfg.PasswordHash.KeyLength = 16

	pc := auth.ConfigFromAppConfig(cfg)
	assert.Equal(t, uint32(2048), pc.Memory)
	assert.Equal(t, uint32(2), pc.Iterations)
	assert.Equal(t, uint8(1), pc.Parallelism)
	assert.Equal(t, uint32(16), pc.KeyLength)
}

func TestCreateResetToken(t *testing.T) {
	now := time.Now()
	tok, err := auth.CreateResetToken(now)
	require.NoError(t, err)

	assert.Len(t, tok.Plain, 64)
	assert.Equal(t, auth.HashResetToken(tok.Plain), tok.Hash)
	assert.NotEqual(t, tok.Plain, tok.Hash)
	assert.Equal(t, now.Add(10*time.Minute), tok.ExpiresAt)
}
