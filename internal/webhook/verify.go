package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

const signaturePrefix = "sha256="

var (
	ErrMissingSignature  = errors.New("missing X-Hub-Signature-256 header")
	ErrSignatureFormat   = errors.New("invalid signature format, expected 'sha256=<hash>'")
	ErrSignatureMismatch = errors.New("signature does not match payload")
)

// Sign returns the X-Hub-Signature-256 value GitHub sends for payload.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks header against the HMAC SHA-256 of payload. The
// comparison is constant time.
func VerifySignature(payload []byte, header, secret string) error {
	if header == "" {
		return ErrMissingSignature
	}
	hexSum, ok := strings.CutPrefix(header, signaturePrefix)
	if !ok {
		return ErrSignatureFormat
	}
	got, err := hex.DecodeString(hexSum)
	if err != nil {
		return ErrSignatureFormat
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return ErrSignatureMismatch
	}
	return nil
}
