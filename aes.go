package ncmdump

import (
	"crypto/aes"
	"fmt"
)

// decryptAESECB decrypts ciphertext block by block with the given key
// and strips the PKCS7 padding. Ciphertext that is empty, not block
// aligned, or carries an impossible padding byte is rejected with
// ErrAESDecrypt.
func decryptAESECB(key, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrAESDecrypt, err)
	}
	blockSize := block.BlockSize()
	if len(ciphertext) == 0 || len(ciphertext)%blockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext is not block aligned", ErrAESDecrypt)
	}

	plaintext := make([]byte, len(ciphertext))
	for start := 0; start < len(ciphertext); start += blockSize {
		end := start + blockSize
		block.Decrypt(plaintext[start:end], ciphertext[start:end])
	}

	pad := int(plaintext[len(plaintext)-1])
	if pad == 0 || pad > blockSize {
		return nil, fmt.Errorf("%w: bad padding", ErrAESDecrypt)
	}
	return plaintext[:len(plaintext)-pad], nil
}
