package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEnv(t *testing.T) {
	t.Helper()
	t.Setenv("AES_KEY", strings.Repeat("42", 32))
	t.Setenv("TOKEN_SECRET", "test_secret")
}

func TestLoadHappyPath(t *testing.T) {
	validEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Len(t, cfg.AESKey, 32)
	assert.Equal(t, "test_secret", cfg.TokenSecret)
}

func TestLoadRequiresAESKey(t *testing.T) {
	t.Setenv("AES_KEY", "")
	t.Setenv("TOKEN_SECRET", "test_secret")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsShortAESKey(t *testing.T) {
	t.Setenv("AES_KEY", "abcd")
	t.Setenv("TOKEN_SECRET", "test_secret")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRequiresTokenSecret(t *testing.T) {
	t.Setenv("AES_KEY", strings.Repeat("42", 32))
	t.Setenv("TOKEN_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TOKEN_SECRET")
}
