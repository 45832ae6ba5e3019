package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripWithHexKey(t *testing.T) {
	svc, err := New(strings.Repeat("ab", 32))
	require.NoError(t, err)
	require.True(t, svc.Configured())

	sealed, err := svc.EncryptString("JBSWY3DPEHPK3PXP")
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "JBSWY3DPEHPK3PXP")

	plain, err := svc.DecryptString(sealed)
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", plain)
}

func TestUnconfiguredPassThrough(t *testing.T) {
	svc, err := New("")
	require.NoError(t, err)
	assert.False(t, svc.Configured())

	sealed, err := svc.EncryptString("secret")
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), sealed)
}

func TestRejectsShortKey(t *testing.T) {
	_, err := New("too-short")
	assert.Error(t, err)
}

func TestDecryptTruncated(t *testing.T) {
	svc, err := New(strings.Repeat("x", 32))
	require.NoError(t, err)
	_, err = svc.Decrypt([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}
