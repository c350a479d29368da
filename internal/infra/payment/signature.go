package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"counseling-platform/internal/domain/ports/adapter"
)

// Sign computes the hex HMAC-SHA256 of message keyed by secret. Exported so
// tests and tooling can produce valid signatures.
func Sign(message, secret []byte) string {
	h := hmac.New(sha256.New, secret)
	h.Write(message)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifySignature checks signatureHex against HMAC-SHA256(message, secret)
// in constant time. A malformed hex signature verifies as false, never as
// an error: any mismatch is a hard rejection.
func VerifySignature(message []byte, signatureHex string, secret []byte) bool {
	provided, err := hex.DecodeString(signatureHex)
	if err != nil {
		return false
	}
	h := hmac.New(sha256.New, secret)
	h.Write(message)
	return hmac.Equal(h.Sum(nil), provided)
}

// Compile-time check
var _ adapter.SignatureVerifier = (*Verifier)(nil)

// Verifier holds the two gateway secrets: the account API secret signs the
// synchronous client callback, a separate webhook secret signs server-to-
// server deliveries. Both are fixed at construction.
type Verifier struct {
	apiSecret     []byte
	webhookSecret []byte
}

func NewVerifier(apiSecret, webhookSecret string) *Verifier {
	return &Verifier{apiSecret: []byte(apiSecret), webhookSecret: []byte(webhookSecret)}
}

// VerifyOrder checks the client callback signature over "orderID|paymentID".
func (v *Verifier) VerifyOrder(orderID, paymentID, signatureHex string) bool {
	return VerifySignature([]byte(orderID+"|"+paymentID), signatureHex, v.apiSecret)
}

// VerifyWebhook checks the webhook signature over the raw body exactly as
// received; re-serialized JSON is not guaranteed byte-identical.
func (v *Verifier) VerifyWebhook(rawBody []byte, signatureHex string) bool {
	return VerifySignature(rawBody, signatureHex, v.webhookSecret)
}
