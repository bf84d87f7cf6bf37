package payment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyWebhookSignature(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"event":"charge.success","mechantProductKey":"pay_123"}`)

	t.Run("ValidSignature", func(t *testing.T) {
		sig := SignWebhookBody(body, secret)
		assert.True(t, VerifyWebhookSignature(body, secret, sig))
	})

	t.Run("UppercaseHexAccepted", func(t *testing.T) {
		sig := strings.ToUpper(SignWebhookBody(body, secret))
		assert.True(t, VerifyWebhookSignature(body, secret, sig))
	})

	t.Run("SurroundingWhitespaceAccepted", func(t *testing.T) {
		sig := "  " + SignWebhookBody(body, secret) + "\n"
		assert.True(t, VerifyWebhookSignature(body, secret, sig))
	})

	t.Run("MutatedBody", func(t *testing.T) {
		sig := SignWebhookBody(body, secret)

		// Any single-byte change must break the signature.
		for i := range body {
			mutated := append([]byte(nil), body...)
			mutated[i] ^= 0x01
			assert.False(t, VerifyWebhookSignature(mutated, secret, sig))
		}
	})

	t.Run("WrongSecret", func(t *testing.T) {
		sig := SignWebhookBody(body, secret)
		assert.False(t, VerifyWebhookSignature(body, "whsec_other", sig))
	})

	t.Run("BogusSignature", func(t *testing.T) {
		assert.False(t, VerifyWebhookSignature(body, secret, "deadbeef"))
	})

	t.Run("NonHexSignature", func(t *testing.T) {
		assert.False(t, VerifyWebhookSignature(body, secret, "not-hex-at-all"))
	})

	t.Run("EmptySignature", func(t *testing.T) {
		assert.False(t, VerifyWebhookSignature(body, secret, ""))
	})

	t.Run("EmptySecretRejects", func(t *testing.T) {
		// No configured secret means no webhook can be authenticated.
		sig := SignWebhookBody(body, "")
		assert.False(t, VerifyWebhookSignature(body, "", sig))
	})

	t.Run("ReencodedBodyBreaksSignature", func(t *testing.T) {
		// Same JSON, different bytes: signature must not survive.
		sig := SignWebhookBody(body, secret)
		reencoded := []byte(`{"mechantProductKey":"pay_123","event":"charge.success"}`)
		assert.False(t, VerifyWebhookSignature(reencoded, secret, sig))
	})
}
