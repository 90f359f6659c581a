package auth

import "testing"

func TestCryptIsDeterministic(t *testing.T) {
	h1, err := crypt("hunter2", "ab")
	if err != nil {
		t.Fatalf("crypt: %v", err)
	}
	h2, err := crypt("hunter2", "ab")
	if err != nil {
		t.Fatalf("crypt: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("crypt is not deterministic: %q vs %q", h1, h2)
	}
	if len(h1) != 13 {
		t.Fatalf("expected 13-byte hash, got %d: %q", len(h1), h1)
	}
	if h1[:2] != "ab" {
		t.Fatalf("expected hash to start with salt, got %q", h1)
	}
}

func TestCryptDifferentPasswordsDiffer(t *testing.T) {
	h1, _ := crypt("one pass", "ab")
	h2, _ := crypt("two pass", "ab")
	if h1 == h2 {
		t.Fatalf("expected different hashes for different passwords")
	}
}

func TestCryptDifferentSaltsDiffer(t *testing.T) {
	h1, _ := crypt("same-password", "ab")
	h2, _ := crypt("same-password", "cd")
	if h1 == h2 {
		t.Fatalf("expected different hashes for different salts")
	}
}

func TestCryptOnlyFirstEightBytesMatter(t *testing.T) {
	h1, _ := crypt("12345678", "xy")
	h2, _ := crypt("12345678-and-then-some", "xy")
	if h1 != h2 {
		t.Fatalf("expected crypt to ignore bytes past the 8th")
	}
}

func TestCryptRejectsShortSalt(t *testing.T) {
	if _, err := crypt("pw", "a"); err == nil {
		t.Fatalf("expected error for short salt")
	}
}
