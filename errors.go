package ncmdump

import "errors"

var (
	// ErrInvalidFileType reports a short header read or a magic mismatch.
	ErrInvalidFileType = errors.New("invalid file type")
	// ErrInvalidKeyLength reports a short read of the key length field.
	ErrInvalidKeyLength = errors.New("invalid key length")
	// ErrInvalidInfoLength reports a short read of the info length field.
	ErrInvalidInfoLength = errors.New("invalid info length")
	// ErrInvalidImageLength reports a short read of the image length field.
	ErrInvalidImageLength = errors.New("invalid image length")
	// ErrAESDecrypt reports a rejected ciphertext in either unwrap stage.
	ErrAESDecrypt = errors.New("aes decrypt ecb failed")
	// ErrInfoDecode reports any failure in the metadata chain: malformed
	// base64, decrypt failure, invalid utf-8, or missing/mistyped fields.
	ErrInfoDecode = errors.New("info decode failed")
)
