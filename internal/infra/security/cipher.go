package security

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"

	"rental-billing/internal/domain"
)

// The identity provider encrypts personal-data fields with a 128-bit block
// cipher in CBC mode. Keys and IVs shorter than the required length are
// zero-padded to the right; longer ones are truncated. This is a wire
// compatibility shim mandated by the provider and must not change.

const cbcKeyLen = 16

// padOrTrim right-pads b with zero bytes to n, or truncates it to n.
func padOrTrim(b []byte, n int) []byte {
	out := make([]byte, n)
	copy(out, b)
	return out
}

// DecryptCBC decrypts base64 ciphertext with AES-128-CBC and strips PKCS#7
// padding. All failures wrap domain.ErrDecryption.
func DecryptCBC(cipherB64, key, iv string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(cipherB64)
	if err != nil {
		return "", fmt.Errorf("%w: base64 decode: %v", domain.ErrDecryption, err)
	}
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext length %d not a block multiple", domain.ErrDecryption, len(data))
	}

	block, err := aes.NewCipher(padOrTrim([]byte(key), cbcKeyLen))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrDecryption, err)
	}

	pt := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, padOrTrim([]byte(iv), aes.BlockSize)).CryptBlocks(pt, data)

	pt, err = stripPKCS7(pt)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}

// EncryptCBC is the inverse of DecryptCBC with the same key/iv handling. It
// exists for the sandbox simulator and for round-trip test vectors.
func EncryptCBC(plaintext, key, iv string) (string, error) {
	block, err := aes.NewCipher(padOrTrim([]byte(key), cbcKeyLen))
	if err != nil {
		return "", fmt.Errorf("new cipher: %w", err)
	}
	padded := padPKCS7([]byte(plaintext), aes.BlockSize)
	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, padOrTrim([]byte(iv), aes.BlockSize)).CryptBlocks(ct, padded)
	return base64.StdEncoding.EncodeToString(ct), nil
}

func padPKCS7(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	out := make([]byte, len(b)+n)
	copy(out, b)
	for i := len(b); i < len(out); i++ {
		out[i] = byte(n)
	}
	return out
}

func stripPKCS7(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty plaintext", domain.ErrDecryption)
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, fmt.Errorf("%w: invalid padding", domain.ErrDecryption)
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, fmt.Errorf("%w: invalid padding", domain.ErrDecryption)
		}
	}
	return b[:len(b)-n], nil
}
