package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewAccessCode(t *testing.T) {
	code, err := NewAccessCode()
	require.NoError(t, err)
	assert.Len(t, code, 12)
	for _, r := range code {
		assert.Contains(t, "0123456789ABCDEF", string(r))
	}

	other, err := NewAccessCode()
	require.NoError(t, err)
	assert.NotEqual(t, code, other)
}

func TestAccessCodeRoundTrip(t *testing.T) {
	hash, err := HashAccessCode("a1b2c3d4e5f6", bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, VerifyAccessCode(hash, "A1B2C3D4E5F6"))
	assert.True(t, VerifyAccessCode(hash, "a1b2c3d4e5f6"), "codes are case-insensitive")
	assert.True(t, VerifyAccessCode(hash, "  a1b2c3d4e5f6  "), "whitespace is trimmed")
	assert.False(t, VerifyAccessCode(hash, "ffffffffffff"))
	assert.False(t, VerifyAccessCode("", "a1b2c3d4e5f6"))
}
