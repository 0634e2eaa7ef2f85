package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateKey(t *testing.T) {
	realKey, keyHash, err := GenerateAPIKey()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(realKey, "bk_live_"))
	assert.Len(t, keyHash, 64)

	assert.True(t, ValidateKey(realKey, keyHash))
	assert.False(t, ValidateKey(realKey+"x", keyHash))
	assert.False(t, ValidateKey("", keyHash))
}

func TestGeneratedKeysAreUnique(t *testing.T) {
	a, _, err := GenerateAPIKey()
	require.NoError(t, err)
	b, _, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
