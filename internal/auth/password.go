// Package auth checks the master password. The hash is self-describing:
// algorithm, cost parameters and its own random salt travel inside the
// encoded string, so verification never depends on external state. This
// salt is independent of the vault's key-derivation salt; hashing here
// answers "is this the right password" and never produces key material.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/kv-gits/rpm/internal/rpmerr"
)

// maxHashMemory caps the memory cost accepted from a stored hash, in KiB.
// Anything past 4 GiB is not a legitimate parameter choice.
const maxHashMemory = 4 * 1024 * 1024

type ArgonParams struct {
	Memory      uint32 // in KiB
	Time        uint32 // iterations
	Parallelism uint8
	SaltLen     int
	KeyLen      uint32
}

var DefaultArgon = ArgonParams{
	Memory:      64 * 1024,
	Time:        3,
	Parallelism: 1,
	SaltLen:     16,
	KeyLen:      32,
}

// HashPassword produces the encoded hash stored in the vault directory
// config: argon2id$m=<M>,t=<T>,p=<P>$<b64(salt)>$<b64(key)>.
func HashPassword(password string) (string, error) {
	return HashPasswordParams(DefaultArgon, password)
}

func HashPasswordParams(p ArgonParams, password string) (string, error) {
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", rpmerr.Wrap(rpmerr.Crypto, err, "password hashing failed")
	}
	key := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
	return fmt.Sprintf("argon2id$m=%d,t=%d,p=%d$%s$%s",
		p.Memory, p.Time, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword recomputes the hash with the parameters and salt embedded
// in encoded and compares in constant time. A mismatch returns (false, nil);
// only a hash string that cannot be parsed is an error.
func VerifyPassword(password, encoded string) (bool, error) {
	const prefix = "argon2id$"
	if !strings.HasPrefix(encoded, prefix) {
		return false, rpmerr.New(rpmerr.Crypto, "invalid password hash format")
	}
	parts := strings.Split(encoded[len(prefix):], "$")
	if len(parts) != 3 {
		return false, rpmerr.New(rpmerr.Crypto, "invalid password hash format")
	}

	var m, t uint32
	var p uint8
	if _, err := fmt.Sscanf(parts[0], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return false, rpmerr.Wrap(rpmerr.Crypto, err, "invalid password hash parameters")
	}
	// The hash string comes off disk; degenerate costs would panic inside
	// argon2, and an absurd memory cost is a denial of service.
	if t < 1 || p < 1 || m < 8*uint32(p) || m > maxHashMemory {
		return false, rpmerr.New(rpmerr.Crypto, "invalid password hash parameters")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false, rpmerr.Wrap(rpmerr.Crypto, err, "invalid password hash salt")
	}
	keyRef, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return false, rpmerr.Wrap(rpmerr.Crypto, err, "invalid password hash digest")
	}

	key := argon2.IDKey([]byte(password), salt, t, m, p, uint32(len(keyRef)))
	return subtle.ConstantTimeCompare(key, keyRef) == 1, nil
}
