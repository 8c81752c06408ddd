package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"strings"
)

const (
	HeaderCallbackSignature = "X-Callback-Signature"
	HeaderIrisSignature     = "Iris-Signature"
)

func hmacHex(newHash func() hash.Hash, secret string, body []byte) string {
	m := hmac.New(newHash, []byte(secret))
	m.Write(body)
	return hex.EncodeToString(m.Sum(nil))
}

// SignBody = hex(HMAC-SHA256(body, secret)), dipakai gateway mock.
func SignBody(secret string, body []byte) string {
	return hmacHex(sha256.New, secret, body)
}

func VerifyBodySignature(secret string, body []byte, signature string) bool {
	if secret == "" || strings.TrimSpace(signature) == "" {
		return false
	}
	want := SignBody(secret, body)
	return hmac.Equal([]byte(want), []byte(strings.ToLower(strings.TrimSpace(signature))))
}

// Iris: hex(HMAC-SHA512(body, merchant key)) di header Iris-Signature.
func VerifyIrisSignature(merchantKey string, body []byte, signature string) bool {
	if merchantKey == "" || strings.TrimSpace(signature) == "" {
		return false
	}
	want := hmacHex(sha512.New, merchantKey, body)
	return hmac.Equal([]byte(want), []byte(strings.ToLower(strings.TrimSpace(signature))))
}

// Midtrans payment notification: SHA512(order_id + status_code + gross_amount + server_key).
func MidtransSignature(orderID, statusCode, grossAmount, serverKey string) string {
	h := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(h[:])
}

func VerifyMidtransSignature(orderID, statusCode, grossAmount, serverKey, signature string) bool {
	if serverKey == "" || signature == "" {
		return false
	}
	want := MidtransSignature(orderID, statusCode, grossAmount, serverKey)
	return hmac.Equal([]byte(want), []byte(strings.ToLower(signature)))
}
