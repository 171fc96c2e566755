package security

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadKeyFromBase64(t *testing.T) {
	_, err := LoadKeyFromBase64(base64.StdEncoding.EncodeToString(make([]byte, KeySize)))
	assert.NoError(t, err)

	_, err = LoadKeyFromBase64(base64.StdEncoding.EncodeToString(make([]byte, 16)))
	assert.Error(t, err)

	_, err = LoadKeyFromBase64("%%%")
	assert.Error(t, err)
}

func TestTokenSealer(t *testing.T) {
	key := bytes.Repeat([]byte{7}, KeySize)
	s, err := NewTokenSealer(key)
	require.NoError(t, err)

	sealed, err := s.Seal("shpat_123")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "shpat_123")

	again, err := s.Seal("shpat_123")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per seal")

	plain, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "shpat_123", plain)

	other, err := NewTokenSealer(bytes.Repeat([]byte{8}, KeySize))
	require.NoError(t, err)
	_, err = other.Open(sealed)
	assert.Error(t, err)

	_, err = s.Open("AA")
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}
