// Package payment holds the pieces of QR payment that both the server and the
// ordering client need: the PromptPay image URL and the webhook signature.
package payment

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

const promptPayBaseURL = "https://promptpay.io"

// QRImageURL returns the PromptPay QR image for paying amount to payee.
func QRImageURL(payee string, amount decimal.Decimal) string {
	return fmt.Sprintf("%s/%s/%s.png", promptPayBaseURL, url.PathEscape(payee), amount.StringFixed(2))
}

// Confirmation is what the payment provider posts once a QR transfer settles.
type Confirmation struct {
	OrderID   uint            `json:"order_id" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference" binding:"required"`
	Signature string          `json:"signature" binding:"required"`
}

// Sign computes hex(SHA-512(order_id + amount + reference + secret)), with the
// amount fixed to two decimals.
func Sign(orderID uint, amount decimal.Decimal, reference, secret string) string {
	hash := sha512.New()
	hash.Write([]byte(strconv.FormatUint(uint64(orderID), 10) + amount.StringFixed(2) + reference + secret))
	return hex.EncodeToString(hash.Sum(nil))
}

// Verify reports whether the confirmation carries a valid signature.
func (c *Confirmation) Verify(secret string) bool {
	expected := Sign(c.OrderID, c.Amount, c.Reference, secret)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(c.Signature)) == 1
}
