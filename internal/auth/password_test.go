package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestNewPasswordService(t *testing.T) {
	tests := []struct {
		name    string
		cost    int
		wantErr bool
	}{
		{"zero selects default", 0, false},
		{"minimum", 4, false},
		{"too low", 3, true},
		{"too high", 32, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps, err := NewPasswordService(tt.cost)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewPasswordService(%d) error = %v, wantErr %v", tt.cost, err, tt.wantErr)
			}
			if tt.cost == 0 && ps.cost != DefaultCost {
				t.Errorf("cost = %d, want %d", ps.cost, DefaultCost)
			}
		})
	}
}

func TestHash_NeverEqualsPlaintext(t *testing.T) {
	ps := NewPasswordServiceForTest()

	hash, err := ps.Hash("adampassword")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "adampassword" {
		t.Fatal("Hash() returned the plaintext")
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("Hash() does not look like a bcrypt hash: %q", hash)
	}
}

func TestHash_SamePasswordProducesDifferentHashes(t *testing.T) {
	ps := NewPasswordServiceForTest()

	hash1, _ := ps.Hash("same-password")
	hash2, _ := ps.Hash("same-password")

	if hash1 == hash2 {
		t.Error("Hash() produced identical hashes for the same password (salt must be random)")
	}
}

func TestHash_Length(t *testing.T) {
	ps := NewPasswordServiceForTest()

	if _, err := ps.Hash(strings.Repeat("a", 72)); err != nil {
		t.Errorf("Hash() should accept 72 bytes, got %v", err)
	}
	if _, err := ps.Hash(strings.Repeat("a", 73)); err == nil {
		t.Error("Hash() should reject 73 bytes")
	}
}

func TestVerify(t *testing.T) {
	ps := NewPasswordServiceForTest()
	hash, _ := ps.Hash("asdfasdf")

	if err := ps.Verify(hash, "asdfasdf"); err != nil {
		t.Errorf("Verify(correct) = %v, want nil", err)
	}
	if err := ps.Verify(hash, "ASDFASDF"); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("Verify(wrong case) = %v, want ErrPasswordMismatch", err)
	}
	if err := ps.Verify(hash, ""); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("Verify(empty) = %v, want ErrPasswordMismatch", err)
	}
}

func TestVerify_RejectsSuffixBeyondLimit(t *testing.T) {
	ps := NewPasswordServiceForTest()
	full := strings.Repeat("a", 72)
	hash, err := ps.Hash(full)
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if err := ps.Verify(hash, full); err != nil {
		t.Errorf("Verify(72 bytes) = %v, want nil", err)
	}
	if err := ps.Verify(hash, full+"EXTRA"); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("Verify(72 bytes + suffix) = %v, want ErrPasswordMismatch", err)
	}
}

func TestVerify_GarbageHash(t *testing.T) {
	ps := NewPasswordServiceForTest()

	err := ps.Verify("not-a-valid-bcrypt-hash", "password")
	if err == nil {
		t.Fatal("Verify() should fail for a garbage hash")
	}
	if errors.Is(err, ErrPasswordMismatch) {
		t.Error("a garbage hash is a storage problem, not a wrong password")
	}
}

func TestHashVerify_RoundTrip(t *testing.T) {
	ps := NewPasswordServiceForTest()

	cases := []struct {
		name     string
		password string
	}{
		{"simple alphanumeric", "hello123"},
		{"special characters", "p@$$w0rd!#%"},
		{"unicode", "пароль-密码"},
		{"whitespace", "  leading and trailing  "},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hash, err := ps.Hash(tc.password)
			if err != nil {
				t.Fatalf("Hash(%q) error = %v", tc.password, err)
			}
			if err := ps.Verify(hash, tc.password); err != nil {
				t.Errorf("Verify() failed for %q: %v", tc.password, err)
			}
		})
	}
}
