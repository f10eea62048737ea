package crypto

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/kv-gits/rpm/internal/rpmerr"
)

func randBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	return b
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := randBytes(t, KeySize)
	pt := []byte("correct horse battery staple")
	ct, nonce, err := Encrypt(pt, key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	out, err := Decrypt(ct, nonce, key)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(pt, out) {
		t.Fatal("plaintext mismatch")
	}
}

func TestEncryptRejectsBadKeyLength(t *testing.T) {
	for _, n := range []int{0, 16, 31, 33, 64} {
		if _, _, err := Encrypt([]byte("x"), make([]byte, n)); err == nil {
			t.Fatalf("expected error for %d-byte key", n)
		} else if rpmerr.KindOf(err) != rpmerr.Crypto {
			t.Fatalf("expected Crypto kind for %d-byte key, got %v", n, err)
		}
	}
}

func TestDecryptWrongKey(t *testing.T) {
	k1 := randBytes(t, KeySize)
	k2 := randBytes(t, KeySize)
	ct, nonce, err := Encrypt([]byte("secret"), k1)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := Decrypt(ct, nonce, k2); err == nil {
		t.Fatal("expected failure under wrong key")
	} else if rpmerr.KindOf(err) != rpmerr.Crypto {
		t.Fatalf("expected Crypto kind, got %v", err)
	}
}

func TestDecryptWrongNonce(t *testing.T) {
	key := randBytes(t, KeySize)
	ct, nonce, err := Encrypt([]byte("secret"), key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	bad := append([]byte(nil), nonce...)
	bad[0] ^= 0x01
	if _, err := Decrypt(ct, bad, key); err == nil {
		t.Fatal("expected failure with flipped nonce bit")
	}
	if _, err := Decrypt(ct, nonce[:NonceSize-1], key); err == nil {
		t.Fatal("expected failure with short nonce")
	}
}

func TestEncryptFreshNoncePerCall(t *testing.T) {
	key := randBytes(t, KeySize)
	_, n1, err := Encrypt([]byte("data"), key)
	if err != nil {
		t.Fatalf("encrypt1: %v", err)
	}
	_, n2, err := Encrypt([]byte("data"), key)
	if err != nil {
		t.Fatalf("encrypt2: %v", err)
	}
	if bytes.Equal(n1, n2) {
		t.Fatal("expected distinct nonces")
	}
}

func TestGenerateToken(t *testing.T) {
	tok, err := GenerateToken()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if len(tok) != tokenSize*2 {
		t.Fatalf("expected %d hex chars, got %d", tokenSize*2, len(tok))
	}
	if _, err := hex.DecodeString(tok); err != nil {
		t.Fatalf("token not hex: %v", err)
	}
	tok2, err := GenerateToken()
	if err != nil {
		t.Fatalf("token2: %v", err)
	}
	if tok == tok2 {
		t.Fatal("expected distinct tokens")
	}
}

func FuzzDecryptRejectMutations(f *testing.F) {
	f.Add([]byte("hello"), 0)
	f.Add([]byte(""), 3)
	f.Fuzz(func(t *testing.T, pt []byte, idx int) {
		key := randBytes(t, KeySize)
		ct, nonce, err := Encrypt(pt, key)
		if err != nil {
			t.Fatalf("encrypt: %v", err)
		}
		if out, err := Decrypt(ct, nonce, key); err != nil {
			t.Fatalf("decrypt baseline: %v", err)
		} else if !bytes.Equal(out, pt) {
			t.Fatal("baseline plaintext mismatch")
		}
		if len(ct) == 0 {
			return
		}
		pos := idx % len(ct)
		if pos < 0 {
			pos += len(ct)
		}
		mut := append([]byte(nil), ct...)
		mut[pos] ^= 0xFF
		if _, err := Decrypt(mut, nonce, key); err == nil {
			t.Fatalf("single-byte mutation at %d accepted", pos)
		}
	})
}
