// file: internals/features/finance/fees/service/signature.go
package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// MaterialDelimiter joins signed fields on the checkout confirmation (order_id|payment_id).
const MaterialDelimiter = "|"

// VerifySignature checks a hex HMAC-SHA256 over material joined with "|".
// Never panics; malformed input simply fails.
func VerifySignature(material []string, provided, secret string) bool {
	return VerifyPayload([]byte(strings.Join(material, MaterialDelimiter)), provided, secret)
}

// VerifyPayload checks a hex HMAC-SHA256 over raw bytes (webhook body).
func VerifyPayload(payload []byte, provided, secret string) bool {
	if secret == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(provided))
	if err != nil || len(got) != sha256.Size {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), got)
}

// SignPayload is the counterpart used by tests and by tooling that replays webhooks.
func SignPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyMidtransSignature: SHA512(order_id + status_code + gross_amount + ServerKey)
func VerifyMidtransSignature(orderID, statusCode, grossAmount, serverKey, provided string) bool {
	if serverKey == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(provided))
	if err != nil || len(got) != sha512.Size {
		return false
	}
	want := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hmac.Equal(want[:], got)
}

func MidtransSignature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}
