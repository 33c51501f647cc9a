package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestEncryptDecrypt(t *testing.T) {
	for _, plain := range []string{"a", "ivan@example.com", "+7 (999) 123-45-67", "exactly16bytes!!"} {
		enc, err := Encrypt(plain, testKey)
		require.NoError(t, err)
		assert.NotContains(t, enc, plain)

		dec, err := Decrypt(enc, testKey)
		require.NoError(t, err)
		assert.Equal(t, plain, dec)
	}
}

func TestEncrypt_RandomIV(t *testing.T) {
	a, err := Encrypt("same", testKey)
	require.NoError(t, err)
	b, err := Encrypt("same", testKey)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestEncryptDecrypt_Errors(t *testing.T) {
	_, err := Encrypt("", testKey)
	assert.Error(t, err)
	_, err = Encrypt("x", []byte("short"))
	assert.Error(t, err)

	_, err = Decrypt("", testKey)
	assert.Error(t, err)
	_, err = Decrypt("not-hex", testKey)
	assert.Error(t, err)
	_, err = Decrypt("00ff", testKey)
	assert.Error(t, err)
}

func TestHMAC(t *testing.T) {
	sig := GenerateHMAC("secret", "ab", "c")
	assert.True(t, VerifyHMAC(sig, "secret", "ab", "c"))
	assert.False(t, VerifyHMAC(sig, "secret", "a", "bc"))
	assert.False(t, VerifyHMAC(sig, "other", "ab", "c"))
}
