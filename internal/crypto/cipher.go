// Package crypto implements the vault's cryptographic primitives: the
// AES-256-GCM cipher layer, Argon2id key derivation, session token
// generation and zeroizing key containers. All randomness comes from
// crypto/rand; every encryption call uses a fresh nonce.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"

	"github.com/kv-gits/rpm/internal/rpmerr"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32
	// NonceSize is the standard GCM nonce length in bytes.
	NonceSize = 12

	tokenSize = 32
)

// Encrypt seals plaintext under a 32-byte key with AES-256-GCM and a fresh
// random nonce. The nonce is returned alongside the ciphertext and must be
// presented again to Decrypt.
func Encrypt(plaintext, key []byte) (ciphertext, nonce []byte, err error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}
	nonce = make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, rpmerr.Wrap(rpmerr.Crypto, err, "nonce generation failed")
	}
	return aead.Seal(nil, nonce, plaintext, nil), nonce, nil
}

// Decrypt opens a ciphertext produced by Encrypt. A wrong key, a mismatched
// nonce or any modification of the ciphertext fails authentication; no
// unauthenticated plaintext is ever returned.
func Decrypt(ciphertext, nonce, key []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != NonceSize {
		return nil, rpmerr.Newf(rpmerr.Crypto, "nonce must be %d bytes", NonceSize)
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, rpmerr.Wrap(rpmerr.Crypto, err, "decryption failed")
	}
	return plaintext, nil
}

// GenerateToken returns 256 bits of CSPRNG output, hex encoded. Used for
// ephemeral session tokens on the extension listener; unrelated to vault
// key material.
func GenerateToken() (string, error) {
	b := make([]byte, tokenSize)
	if _, err := rand.Read(b); err != nil {
		return "", rpmerr.Wrap(rpmerr.Crypto, err, "token generation failed")
	}
	return hex.EncodeToString(b), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, rpmerr.Newf(rpmerr.Crypto, "key must be %d bytes for AES-256", KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, rpmerr.Wrap(rpmerr.Crypto, err, "cipher init failed")
	}
	return cipher.NewGCM(block)
}
