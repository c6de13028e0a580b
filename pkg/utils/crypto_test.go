package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef") // 32 bytes, AES-256

func TestEncryptDecrypt_Roundtrip(t *testing.T) {
	ciphertext, err := Encrypt([]byte("ya29.access-token-value"), testKey)
	require.NoError(t, err)
	assert.NotContains(t, ciphertext, "access-token")

	plaintext, err := Decrypt(ciphertext, testKey)
	require.NoError(t, err)
	assert.Equal(t, "ya29.access-token-value", plaintext)
}

func TestEncrypt_NonDeterministic(t *testing.T) {
	a, err := Encrypt([]byte("same input"), testKey)
	require.NoError(t, err)
	b, err := Encrypt([]byte("same input"), testKey)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecrypt_WrongKeyFails(t *testing.T) {
	ciphertext, err := Encrypt([]byte("secret"), testKey)
	require.NoError(t, err)

	otherKey := []byte("ffffffffffffffffffffffffffffffff")
	_, err = Decrypt(ciphertext, otherKey)
	assert.Error(t, err)
}

func TestDecrypt_GarbageFails(t *testing.T) {
	_, err := Decrypt("not-base64!!", testKey)
	assert.Error(t, err)

	_, err = Decrypt("c2hvcnQ=", testKey) // valid base64, too short for a nonce
	assert.Error(t, err)
}
