package security

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
)

// The gateway signs over raw concatenated field strings: exact order, exact
// casing, ampersand separators, no URL-encoding. Callers build the string via
// the named per-channel functions in infra/payment and infra/identity; this
// package only digests.

// SHA256Hex returns the lowercase hex SHA-256 digest of data.
func SHA256Hex(data string) string {
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// SHA512Base64 returns the standard-base64 SHA-512 digest of data. Used by the
// mobile payment channel.
func SHA512Base64(data string) string {
	sum := sha512.Sum512([]byte(data))
	return base64.StdEncoding.EncodeToString(sum[:])
}
