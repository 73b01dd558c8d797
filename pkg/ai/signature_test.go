package ai

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVerifyWebhookSignature(t *testing.T) {
	secret := "wsec_test"
	body := []byte(`{"type":"post_call_transcription","data":{"conversation_id":"conv_1"}}`)
	signedAt := time.Unix(1767200000, 0)
	header := SignWebhook(secret, body, signedAt)

	tests := []struct {
		name    string
		header  string
		body    []byte
		now     time.Time
		wantErr error
	}{
		{name: "valid", header: header, body: body, now: signedAt.Add(time.Minute)},
		{name: "clock skew ahead", header: header, body: body, now: signedAt.Add(-10 * time.Minute)},
		{name: "missing", header: "", body: body, now: signedAt, wantErr: ErrMissingSignature},
		{name: "no digest", header: "t=1767200000", body: body, now: signedAt, wantErr: ErrMalformedHeader},
		{name: "bad timestamp", header: "t=yesterday,v0=abcd", body: body, now: signedAt, wantErr: ErrMalformedHeader},
		{name: "stale", header: header, body: body, now: signedAt.Add(31 * time.Minute), wantErr: ErrStaleSignature},
		{name: "tampered body", header: header, body: []byte(`{"type":"other"}`), now: signedAt, wantErr: ErrBadSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyWebhookSignature(secret, tt.header, tt.body, tt.now, 30*time.Minute)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestVerifyWebhookSignature_WrongSecret(t *testing.T) {
	body := []byte(`{}`)
	now := time.Now()
	header := SignWebhook("one", body, now)

	assert.ErrorIs(t, VerifyWebhookSignature("two", header, body, now, time.Minute), ErrBadSignature)
	assert.ErrorIs(t, VerifyWebhookSignature("", header, body, now, time.Minute), ErrBadSignature)
}

func TestVerifyHMAC(t *testing.T) {
	mac := hmac.New(sha256.New, []byte("key"))
	mac.Write([]byte("payload"))
	digest := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, VerifyHMAC("key", []byte("payload"), digest))
	assert.False(t, VerifyHMAC("key", []byte("payload!"), digest))
	assert.False(t, VerifyHMAC("", []byte("payload"), digest))
	assert.False(t, VerifyHMAC("key", []byte("payload"), ""))
}
