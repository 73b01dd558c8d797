package ai

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	stdErrors "errors"
	"strconv"
	"strings"
	"time"
)

// Signature verification errors
var (
	ErrMissingSignature = stdErrors.New("missing webhook signature")
	ErrMalformedHeader  = stdErrors.New("malformed webhook signature")
	ErrStaleSignature   = stdErrors.New("webhook signature outside tolerance")
	ErrBadSignature     = stdErrors.New("webhook signature mismatch")
)

// VerifyHMAC verifies a sha256 HMAC hex signature against payload and secret
func VerifyHMAC(secret string, payload []byte, signatureHex string) bool {
	if secret == "" || signatureHex == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signatureHex))
}

// VerifyWebhookSignature checks an ElevenLabs-Signature header of the form
// t=<unix>,v0=<hex>, where the digest covers "<t>.<body>".
func VerifyWebhookSignature(secret, header string, body []byte, now time.Time, tolerance time.Duration) error {
	if strings.TrimSpace(header) == "" {
		return ErrMissingSignature
	}

	var timestamp, digest string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v0":
			digest = value
		}
	}
	if timestamp == "" || digest == "" {
		return ErrMalformedHeader
	}

	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrMalformedHeader
	}
	if tolerance > 0 && now.Sub(time.Unix(unix, 0)).Abs() > tolerance {
		return ErrStaleSignature
	}

	payload := make([]byte, 0, len(timestamp)+1+len(body))
	payload = append(payload, timestamp...)
	payload = append(payload, '.')
	payload = append(payload, body...)
	if !VerifyHMAC(secret, payload, digest) {
		return ErrBadSignature
	}
	return nil
}

// SignWebhook builds a header value accepted by VerifyWebhookSignature
func SignWebhook(secret string, body []byte, at time.Time) string {
	timestamp := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "." + string(body)))
	return "t=" + timestamp + ",v0=" + hex.EncodeToString(mac.Sum(nil))
}
