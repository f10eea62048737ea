package crypto

import (
	"crypto/rand"

	"golang.org/x/crypto/argon2"

	"github.com/kv-gits/rpm/internal/rpmerr"
)

// SaltSize is the length of the key-derivation salt stored in the vault
// directory config.
const SaltSize = 32

// KDFParams are the Argon2id cost parameters for master key derivation.
type KDFParams struct {
	M uint32 // memory in KiB
	T uint32 // iterations
	P uint8  // parallelism
}

// DefaultKDF is deliberately slow: it is the only friction against offline
// guessing of the master password. Sized for a sub-second interactive
// unlock on current hardware.
var DefaultKDF = KDFParams{M: 64 * 1024, T: 3, P: 2}

// DeriveKey derives the 32-byte master key from the password and salt with
// Argon2id. When salt is nil a fresh random salt is generated; the salt
// actually used is returned so a provisioning caller can persist it. The
// derivation is deterministic for a given password and salt.
func DeriveKey(password, salt []byte) (key, usedSalt []byte, err error) {
	return DeriveKeyParams(password, salt, DefaultKDF)
}

// DeriveKeyParams is DeriveKey with explicit cost parameters.
func DeriveKeyParams(password, salt []byte, p KDFParams) (key, usedSalt []byte, err error) {
	if salt == nil {
		salt = make([]byte, SaltSize)
		if _, err := rand.Read(salt); err != nil {
			return nil, nil, rpmerr.Wrap(rpmerr.Crypto, err, "salt generation failed")
		}
	}
	key = argon2.IDKey(password, salt, p.T, p.M, p.P, KeySize)
	return key, salt, nil
}
