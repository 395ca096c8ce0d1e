package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"time"
)

// HMACAuth holds the API key pair for HMAC-authenticated brokerage requests.
type HMACAuth struct {
	Key    string // API key identifier
	Secret string // API secret, raw bytes
}

// Headers returns the HTTP headers for a signed API request. The signature is
// HMAC-SHA256(secret, timestamp+method+path+body) encoded as base64.
//
// Returned header keys:
//   - TZ-API-KEY
//   - TZ-TIMESTAMP
//   - TZ-SIGNATURE
func (h *HMACAuth) Headers(method, path, body string) map[string]string {
	ts := currentTimestamp()

	message := ts + method + path + body
	sig := hmacSHA256Base64([]byte(h.Secret), message)

	return map[string]string{
		"TZ-API-KEY":   h.Key,
		"TZ-TIMESTAMP": ts,
		"TZ-SIGNATURE": sig,
	}
}

// hmacSHA256Base64 computes HMAC-SHA256 of message using key and returns the
// result as a base64 standard-encoded string.
func hmacSHA256Base64(key []byte, message string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// currentTimestamp returns the current Unix time in seconds as a string.
func currentTimestamp() string {
	return strconv.FormatInt(time.Now().Unix(), 10)
}
