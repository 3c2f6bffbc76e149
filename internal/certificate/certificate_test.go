package certificate

import (
	"encoding/hex"
	"testing"
)

func TestNewVerificationCode(t *testing.T) {
	code, err := NewVerificationCode()
	if err != nil {
		t.Fatalf("NewVerificationCode: %v", err)
	}

	if len(code) != VerificationCodeBytes*2 {
		t.Errorf("code length = %d, want %d", len(code), VerificationCodeBytes*2)
	}
	if _, err := hex.DecodeString(code); err != nil {
		t.Errorf("code %q is not valid hex: %v", code, err)
	}
}

func TestNewVerificationCodeNoRepeats(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code, err := NewVerificationCode()
		if err != nil {
			t.Fatalf("NewVerificationCode: %v", err)
		}
		if seen[code] {
			t.Fatalf("duplicate code generated: %s", code)
		}
		seen[code] = true
	}
}
