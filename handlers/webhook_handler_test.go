package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestVerifyWebhookSignature(t *testing.T) {
	const secret = "whsec_testsecret"
	t.Setenv("CLERK_WEBHOOK_SECRET", secret)

	h := NewWebhookHandler(nil)
	body := []byte(`{"type":"user.created","data":{"id":"user_123"}}`)

	signedContent := fmt.Sprintf("%s.%s.%s", "msg_1", "1700000000", string(body))
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signedContent))
	signature := "v1," + hex.EncodeToString(mac.Sum(nil))

	req := httptest.NewRequest("POST", "/webhooks/clerk", strings.NewReader(string(body)))
	req.Header.Set("svix-id", "msg_1")
	req.Header.Set("svix-timestamp", "1700000000")
	req.Header.Set("svix-signature", signature)

	if !h.verifyWebhookSignature(req, body) {
		t.Error("valid signature rejected")
	}

	req.Header.Set("svix-signature", "v1,deadbeef")
	if h.verifyWebhookSignature(req, body) {
		t.Error("tampered signature accepted")
	}

	req.Header.Del("svix-id")
	req.Header.Set("svix-signature", signature)
	if h.verifyWebhookSignature(req, body) {
		t.Error("request missing svix-id accepted")
	}
}

func TestVerifyWebhookSignatureNoSecretConfigured(t *testing.T) {
	t.Setenv("CLERK_WEBHOOK_SECRET", "")

	h := NewWebhookHandler(nil)
	req := httptest.NewRequest("POST", "/webhooks/clerk", strings.NewReader("{}"))

	// Without a configured secret verification is skipped.
	if !h.verifyWebhookSignature(req, []byte("{}")) {
		t.Error("expected verification to pass when no secret is set")
	}
}
