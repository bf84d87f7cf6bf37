package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifyWebhookSignature reports whether signature is a valid hex-encoded
// HMAC-SHA256 of body under the webhook secret.
//
// The digest must run over the exact raw bytes as received: re-encoding the
// JSON (key order, whitespace) changes the byte sequence and would break
// legitimate signatures. An absent secret fails verification rather than
// skipping it.
func VerifyWebhookSignature(body []byte, secret, signature string) bool {
	sig := strings.TrimSpace(signature)
	if sig == "" || secret == "" {
		return false
	}

	decoded, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), decoded)
}

// SignWebhookBody computes the hex HMAC-SHA256 digest Trelis puts in the
// Signature header.
func SignWebhookBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
