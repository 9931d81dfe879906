package payment

import (
	"strconv"

	"rental-billing/internal/infra/security"
)

// Each function below encodes one provider/channel field order exactly as the
// gateway documents it: field name casing, ampersand separators, no
// URL-encoding inside the signed string. A drifting digest produces no local
// error signal and fails only at the remote gateway, so every function here is
// pinned by a fixed test vector.

// DesktopSignature signs the checkout request for the desktop channel.
// Signed string: oid=<oid>&price=<price>&timestamp=<ts>
func DesktopSignature(oid string, price int64, timestamp int64) string {
	return security.SHA256Hex("oid=" + oid + "&price=" + strconv.FormatInt(price, 10) + "&timestamp=" + strconv.FormatInt(timestamp, 10))
}

// DesktopVerification includes the merchant sign key.
// Signed string: oid=<oid>&price=<price>&signKey=<key>&timestamp=<ts>
func DesktopVerification(oid string, price int64, signKey string, timestamp int64) string {
	return security.SHA256Hex("oid=" + oid + "&price=" + strconv.FormatInt(price, 10) + "&signKey=" + signKey + "&timestamp=" + strconv.FormatInt(timestamp, 10))
}

// MKey is the merchant key hash sent alongside desktop checkout params.
func MKey(signKey string) string {
	return security.SHA256Hex(signKey)
}

// MobileHashData digests the mobile checkout request with SHA-512/base64.
// Signed string: mid=<mid>&oid=<oid>&price=<price>&timestamp=<ts>&hashKey=<key>
func MobileHashData(mid, oid string, price int64, timestamp int64, hashKey string) string {
	return security.SHA512Base64("mid=" + mid + "&oid=" + oid + "&price=" + strconv.FormatInt(price, 10) + "&timestamp=" + strconv.FormatInt(timestamp, 10) + "&hashKey=" + hashKey)
}

// ApprovalSignature signs the server-side approval (and net-cancel) call. The
// timestamp is fresh, not the one from the original checkout.
// Signed string: authToken=<token>&timestamp=<ts>
func ApprovalSignature(authToken string, timestamp int64) string {
	return security.SHA256Hex("authToken=" + authToken + "&timestamp=" + strconv.FormatInt(timestamp, 10))
}

// ApprovalVerification includes the merchant sign key.
// Signed string: authToken=<token>&signKey=<key>&timestamp=<ts>
func ApprovalVerification(authToken, signKey string, timestamp int64) string {
	return security.SHA256Hex("authToken=" + authToken + "&signKey=" + signKey + "&timestamp=" + strconv.FormatInt(timestamp, 10))
}
