package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureHeader carries the vendor's HMAC over the raw request body.
const SignatureHeader = "X-Signature"

const signaturePrefix = "sha256="

// VerifySignature recomputes HMAC-SHA256 over the raw body with the shared
// secret and compares in constant time against a "sha256=<hex>" header.
// The payload must not be trusted until this returns true.
func VerifySignature(secret string, body []byte, header string) bool {
	if secret == "" || !strings.HasPrefix(header, signaturePrefix) {
		return false
	}
	want, err := hex.DecodeString(strings.TrimPrefix(header, signaturePrefix))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(want, mac.Sum(nil))
}

// Sign produces the header value for a body; used by tests and by the
// vendor-simulator tooling.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}
