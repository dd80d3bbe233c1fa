package ncmdump

import (
	"crypto/aes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encryptAESECB is the inverse of decryptAESECB, used to fabricate
// containers in tests: PKCS7 pad, then encrypt block by block.
func encryptAESECB(t *testing.T, key, plaintext []byte) []byte {
	t.Helper()

	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	size := block.BlockSize()

	pad := size - len(plaintext)%size
	padded := append([]byte(nil), plaintext...)
	for i := 0; i < pad; i++ {
		padded = append(padded, byte(pad))
	}

	ciphertext := make([]byte, len(padded))
	for start := 0; start < len(padded); start += size {
		block.Encrypt(ciphertext[start:start+size], padded[start:start+size])
	}
	return ciphertext
}

func TestDecryptAESECBRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 15, 16, 17, 31, 32, 100} {
		plain := make([]byte, n)
		for i := range plain {
			plain[i] = byte(i + 1)
		}

		decrypted, err := decryptAESECB(headerKey, encryptAESECB(t, headerKey, plain))
		require.NoError(t, err, "length %d", n)
		assert.Equal(t, plain, decrypted, "length %d", n)
	}
}

func TestDecryptAESECBRejects(t *testing.T) {
	_, err := decryptAESECB(headerKey, nil)
	assert.ErrorIs(t, err, ErrAESDecrypt, "empty ciphertext")

	_, err = decryptAESECB(headerKey, make([]byte, 17))
	assert.ErrorIs(t, err, ErrAESDecrypt, "unaligned ciphertext")

	_, err = decryptAESECB([]byte("short"), make([]byte, 16))
	assert.ErrorIs(t, err, ErrAESDecrypt, "bad key size")
}

func TestDecryptAESECBBadPadding(t *testing.T) {
	// Encrypt a raw block ending in 0x00 without padding: the decrypted
	// padding byte is out of range and must be rejected.
	block, err := aes.NewCipher(headerKey)
	require.NoError(t, err)
	raw := make([]byte, 16)
	ciphertext := make([]byte, 16)
	block.Encrypt(ciphertext, raw)

	_, err = decryptAESECB(headerKey, ciphertext)
	assert.ErrorIs(t, err, ErrAESDecrypt)
}
