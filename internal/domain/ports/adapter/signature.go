package adapter

// SignatureVerifier checks that a payment confirmation was produced by the
// gateway and not forged. Implementations must compare in constant time and
// must hash webhook bodies exactly as received, before any JSON parsing.
type SignatureVerifier interface {
	// VerifyOrder checks the synchronous client callback signature over
	// "orderID|paymentID" with the account API secret.
	VerifyOrder(orderID, paymentID, signatureHex string) bool
	// VerifyWebhook checks the webhook signature over the raw request body
	// with the webhook-specific secret.
	VerifyWebhook(rawBody []byte, signatureHex string) bool
}
