package auth

import (
	"strings"
	"testing"

	"github.com/kv-gits/rpm/internal/rpmerr"
)

// Light parameters keep the test fast; the encoded string carries them, so
// verification still exercises the full path.
var testArgon = ArgonParams{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPasswordParams(testArgon, "Password123!")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if !strings.HasPrefix(hash, "argon2id$") {
		t.Fatalf("unexpected hash format: %q", hash)
	}
	ok, err := VerifyPassword("Password123!", hash)
	if err != nil {
		t.Fatalf("VerifyPassword error: %v", err)
	}
	if !ok {
		t.Fatal("expected VerifyPassword to succeed")
	}
}

func TestVerifyPasswordMismatchIsNotAnError(t *testing.T) {
	hash, err := HashPasswordParams(testArgon, "correct")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	ok, err := VerifyPassword("wrong", hash)
	if err != nil {
		t.Fatalf("mismatch must not error: %v", err)
	}
	if ok {
		t.Fatal("expected verification failure for wrong password")
	}
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	for _, encoded := range []string{
		"invalid-hash-format",
		"argon2id$only-one-part",
		"argon2id$m=x,t=y,p=z$c2FsdA$a2V5",
		"argon2id$m=8192,t=1,p=1$!!!$a2V5",
		// Degenerate cost parameters must be rejected, not fed to argon2,
		// where a zero time or parallelism panics.
		"argon2id$m=8192,t=0,p=1$c2FsdA$a2V5a2V5",
		"argon2id$m=8192,t=1,p=0$c2FsdA$a2V5a2V5",
		"argon2id$m=4,t=1,p=1$c2FsdA$a2V5a2V5",
		"argon2id$m=4294967295,t=1,p=1$c2FsdA$a2V5a2V5",
	} {
		ok, err := VerifyPassword("Password123!", encoded)
		if err == nil {
			t.Fatalf("expected error for malformed hash %q", encoded)
		}
		if rpmerr.KindOf(err) != rpmerr.Crypto {
			t.Fatalf("expected Crypto kind for %q, got %v", encoded, err)
		}
		if ok {
			t.Fatal("malformed hash must not verify")
		}
	}
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	h1, err := HashPasswordParams(testArgon, "same")
	if err != nil {
		t.Fatalf("hash1: %v", err)
	}
	h2, err := HashPasswordParams(testArgon, "same")
	if err != nil {
		t.Fatalf("hash2: %v", err)
	}
	if h1 == h2 {
		t.Fatal("expected distinct embedded salts")
	}
}
