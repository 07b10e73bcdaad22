package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretStore_RoundTrip(t *testing.T) {
	store := NewSecretStore("test-encryption-key")

	ciphertext, err := store.Encrypt("refresh-token-value")
	require.NoError(t, err)
	assert.NotEqual(t, "refresh-token-value", ciphertext)

	plaintext, err := store.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "refresh-token-value", plaintext)
}

func TestSecretStore_NonceVariesPerEncryption(t *testing.T) {
	store := NewSecretStore("test-encryption-key")

	first, err := store.Encrypt("same input")
	require.NoError(t, err)
	second, err := store.Encrypt("same input")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestSecretStore_WrongKeyFails(t *testing.T) {
	ciphertext, err := NewSecretStore("key-one").Encrypt("secret")
	require.NoError(t, err)

	_, err = NewSecretStore("key-two").Decrypt(ciphertext)
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestSecretStore_MalformedCiphertext(t *testing.T) {
	store := NewSecretStore("test-encryption-key")

	_, err := store.Decrypt("not base64 at all!!!")
	assert.ErrorIs(t, err, ErrDecryptFailed)

	// Valid base64 but too short to carry a nonce.
	_, err = store.Decrypt("YWJj")
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestSecretStore_EmptyPlaintext(t *testing.T) {
	store := NewSecretStore("test-encryption-key")
	_, err := store.Encrypt("")
	assert.Error(t, err)
}
