package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestDeriveKeyDeterministic(t *testing.T) {
	kdf, err := NewKDF()
	if err != nil {
		t.Fatalf("NewKDF failed: %v", err)
	}

	if len(kdf.Salt) != SaltSize {
		t.Errorf("Salt size mismatch: got %d, want %d", len(kdf.Salt), SaltSize)
	}
	if kdf.Iterations != DefaultIters {
		t.Errorf("Iterations mismatch: got %d, want %d", kdf.Iterations, DefaultIters)
	}

	key1, err := kdf.DeriveKey([]byte("passphrase"))
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	key2, err := kdf.DeriveKey([]byte("passphrase"))
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}

	if len(key1) != KeySize {
		t.Errorf("Key size mismatch: got %d, want %d", len(key1), KeySize)
	}
	if !bytes.Equal(key1, key2) {
		t.Error("Same passphrase and salt should derive the same key")
	}

	other, err := kdf.DeriveKey([]byte("other"))
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	if bytes.Equal(key1, other) {
		t.Error("Different passphrases should derive different keys")
	}
}

func TestDeriveKeyIndependentSalts(t *testing.T) {
	a, err := NewKDF()
	if err != nil {
		t.Fatalf("NewKDF failed: %v", err)
	}
	b, err := NewKDF()
	if err != nil {
		t.Fatalf("NewKDF failed: %v", err)
	}

	keyA, _ := a.DeriveKey([]byte("passphrase"))
	keyB, _ := b.DeriveKey([]byte("passphrase"))
	if bytes.Equal(keyA, keyB) {
		t.Error("Keys derived with independent salts should differ")
	}
}

func TestDeriveKeyInvalidParameters(t *testing.T) {
	tests := []struct {
		name string
		kdf  KDF
	}{
		{"no salt", KDF{Iterations: DefaultIters}},
		{"zero iterations", KDF{Salt: []byte("0123456789abcdef")}},
		{"negative iterations", KDF{Salt: []byte("0123456789abcdef"), Iterations: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.kdf.DeriveKey([]byte("passphrase")); !errors.Is(err, ErrKeyDerivation) {
				t.Errorf("Expected ErrKeyDerivation, got %v", err)
			}
		})
	}
}

func TestConstantTimeCompare(t *testing.T) {
	if !ConstantTimeCompare([]byte("abc"), []byte("abc")) {
		t.Error("Equal slices should match")
	}
	if ConstantTimeCompare([]byte("abc"), []byte("abd")) {
		t.Error("Different slices should not match")
	}
	if ConstantTimeCompare([]byte("abc"), []byte("abcd")) {
		t.Error("A prefix should not match")
	}
}

func TestClearBytes(t *testing.T) {
	b := []byte("sensitive")
	ClearBytes(b)
	for i, v := range b {
		if v != 0 {
			t.Fatalf("Byte %d not cleared", i)
		}
	}
}
