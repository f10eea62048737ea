package store

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kv-gits/rpm/internal/crypto"
	"github.com/kv-gits/rpm/internal/rpmerr"
)

// recordFile is the JSON shape of a <id>.pwd file.
type recordFile struct {
	EncryptedPassword string `json:"encrypted_password"`
	Nonce             string `json:"nonce"`
}

// CreateRecord encrypts the secret with a fresh nonce and writes it under a
// fresh opaque id, which is returned.
func (s *Store) CreateRecord(secret string, key []byte) (string, error) {
	id := uuid.NewString()
	if err := s.UpdateRecord(id, secret, key); err != nil {
		return "", errors.Wrap(err, "create record")
	}
	return id, nil
}

// UpdateRecord re-encrypts the secret with a fresh nonce and replaces the
// record file for id.
func (s *Store) UpdateRecord(id, secret string, key []byte) error {
	ciphertext, nonce, err := crypto.Encrypt([]byte(secret), key)
	if err != nil {
		return errors.Wrap(err, "encrypt record")
	}
	b, err := json.Marshal(recordFile{
		EncryptedPassword: base64.StdEncoding.EncodeToString(ciphertext),
		Nonce:             base64.StdEncoding.EncodeToString(nonce),
	})
	if err != nil {
		return rpmerr.Wrap(rpmerr.Serialization, err, "encode record")
	}
	return s.writeFile(s.recordPath(id), b)
}

// ReadRecord reads and decrypts the record for id. An absent file is a
// NotFound error, distinct from the Crypto error of a record that exists
// but does not decrypt; callers rely on telling "never existed" from
// "corrupted or wrong key".
func (s *Store) ReadRecord(id string, key []byte) (string, error) {
	raw, err := os.ReadFile(s.recordPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return "", rpmerr.Newf(rpmerr.NotFound, "record %s not found", id)
		}
		return "", rpmerr.Wrap(rpmerr.IO, err, "read record")
	}
	var rec recordFile
	if err := json.Unmarshal(raw, &rec); err != nil {
		return "", rpmerr.Wrap(rpmerr.Serialization, err, "parse record")
	}
	ciphertext, err := base64.StdEncoding.DecodeString(rec.EncryptedPassword)
	if err != nil {
		return "", rpmerr.Wrap(rpmerr.Crypto, err, "invalid base64 in encrypted password")
	}
	nonce, err := base64.StdEncoding.DecodeString(rec.Nonce)
	if err != nil {
		return "", rpmerr.Wrap(rpmerr.Crypto, err, "invalid base64 in record nonce")
	}
	plaintext, err := crypto.Decrypt(ciphertext, nonce, key)
	if err != nil {
		return "", errors.Wrap(err, "decrypt record")
	}
	if !utf8.Valid(plaintext) {
		return "", rpmerr.New(rpmerr.Crypto, "invalid UTF-8 in decrypted secret")
	}
	return string(plaintext), nil
}

// DeleteRecord removes the record file for id. Absence is not an error.
func (s *Store) DeleteRecord(id string) error {
	err := os.Remove(s.recordPath(id))
	if err != nil && !os.IsNotExist(err) {
		return rpmerr.Wrap(rpmerr.IO, err, "delete record")
	}
	return nil
}

// recordExists reports whether a record file is present on disk. An index
// entry, not this, decides whether a secret logically exists; a record with
// no entry is orphaned and never surfaced.
func (s *Store) recordExists(id string) bool {
	_, err := os.Stat(s.recordPath(id))
	return err == nil
}
