package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifyPaymentSignature checks the HMAC-SHA256 signature the gateway returns
// after checkout. The signed payload is "<order_id>|<payment_id>" keyed with
// the merchant secret. Comparison is constant time.
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return verifySignature(c.keySecret, orderID, paymentID, signature)
}

func verifySignature(secret, orderID, paymentID, signature string) bool {
	if secret == "" || orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
