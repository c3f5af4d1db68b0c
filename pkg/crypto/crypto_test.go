package crypto

import "testing"

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}

	if !VerifyPassword(hash, "secret") {
		t.Fatal("expected password verification to succeed")
	}

	if VerifyPassword(hash, "incorrect") {
		t.Fatal("expected password verification to fail")
	}
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	if len(token) == 0 {
		t.Fatal("expected token to be non-empty")
	}

	other, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if token == other {
		t.Fatal("expected generated tokens to differ")
	}
}
