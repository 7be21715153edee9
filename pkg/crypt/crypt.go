// Package crypt signs outbound payloads so receivers can check they came
// from this deployment. The key is derived from APP_KEY, falling back to
// JWT_SECRET.
//
//	sig := crypt.Sign(body)
//	req.Header("X-Markethub-Signature", sig)
package crypt

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/shashiranjanraj/markethub/config"
)

// SignatureHeader carries the signature on webhook requests.
const SignatureHeader = "X-Markethub-Signature"

const prefix = "sha256="

func key() []byte {
	secret := config.Get("APP_KEY", config.JWTSecret())
	h := sha256.Sum256([]byte(secret))
	return h[:]
}

// Sign returns "sha256=<hex hmac>" of payload.
func Sign(payload []byte) string {
	mac := hmac.New(sha256.New, key())
	mac.Write(payload)
	return prefix + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether sig is Sign(payload). The comparison is constant
// time.
func Verify(payload []byte, sig string) bool {
	if !strings.HasPrefix(sig, prefix) {
		return false
	}
	got, err := hex.DecodeString(strings.TrimPrefix(sig, prefix))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, key())
	mac.Write(payload)
	return hmac.Equal(got, mac.Sum(nil))
}
