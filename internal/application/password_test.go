package application

import (
	"errors"
	"strings"
	"testing"
)

var fastArgon2idParams = Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

func TestArgon2idHasher(t *testing.T) {
	t.Parallel()

	hasher := NewArgon2idHasher(fastArgon2idParams)
	hash, err := hasher.Hash("segredo123")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Fatalf("unexpected hash format %q", hash)
	}
	if strings.Contains(hash, "segredo123") {
		t.Fatalf("hash must not contain the plaintext")
	}

	if err := hasher.Verify(hash, "segredo123"); err != nil {
		t.Fatalf("expected password to verify, got %v", err)
	}
	if err := hasher.Verify(hash, "errada"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	other, err := hasher.Hash("segredo123")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if other == hash {
		t.Fatalf("expected distinct salts to produce distinct hashes")
	}
}

func TestVerifyPassword_MalformedHashes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		hash string
		want error
	}{
		{name: "plaintext", hash: "segredo123", want: ErrInvalidPasswordHash},
		{name: "other algorithm", hash: "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA", want: ErrInvalidPasswordHash},
		{name: "bad version", hash: "$argon2id$v=1$m=1024,t=1,p=1$c2FsdA$aGFzaA", want: ErrIncompatiblePasswordVersion},
		{name: "bad salt", hash: "$argon2id$v=19$m=1024,t=1,p=1$***$aGFzaA", want: ErrInvalidPasswordHash},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := VerifyPassword(tt.hash, "segredo123"); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNewArgon2idHasher_Defaults(t *testing.T) {
	t.Parallel()

	if got := NewArgon2idHasher(Argon2idParams{}).Params; got != DefaultArgon2idParams {
		t.Fatalf("expected default params, got %#v", got)
	}
}
