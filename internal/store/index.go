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

// IndexEntry maps an opaque id to an encrypted display name. The id doubles
// as the record file's storage key and carries no meaning of its own.
type IndexEntry struct {
	ID            string `json:"id"`
	EncryptedName string `json:"encrypted_name"`
	Nonce         string `json:"nonce"`
}

type indexBody struct {
	Entries []IndexEntry `json:"entries"`
}

// NamedEntry is a decrypted listing row.
type NamedEntry struct {
	ID   string
	Name string
}

// LoadIndex reads and decrypts the index. A missing file is an empty vault,
// not an error. A present file that fails to decrypt or parse is fatal for
// this vault: a partially valid index cannot be recovered.
func (s *Store) LoadIndex(key []byte) ([]IndexEntry, error) {
	raw, err := os.ReadFile(s.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, rpmerr.Wrap(rpmerr.IO, err, "read index file")
	}
	if len(raw) < crypto.NonceSize {
		return nil, rpmerr.New(rpmerr.Crypto, "index file too short")
	}
	plaintext, err := crypto.Decrypt(raw[crypto.NonceSize:], raw[:crypto.NonceSize], key)
	if err != nil {
		return nil, errors.Wrap(err, "decrypt index")
	}
	var body indexBody
	if err := json.Unmarshal(plaintext, &body); err != nil {
		return nil, rpmerr.Wrap(rpmerr.Serialization, err, "parse index")
	}
	return body.Entries, nil
}

// SaveIndex serializes all entries, encrypts them as one unit with a fresh
// nonce and replaces the index file wholesale (nonce || ciphertext).
func (s *Store) SaveIndex(entries []IndexEntry, key []byte) error {
	plaintext, err := json.Marshal(indexBody{Entries: entries})
	if err != nil {
		return rpmerr.Wrap(rpmerr.Serialization, err, "encode index")
	}
	ciphertext, nonce, err := crypto.Encrypt(plaintext, key)
	if err != nil {
		return errors.Wrap(err, "encrypt index")
	}
	buf := make([]byte, 0, len(nonce)+len(ciphertext))
	buf = append(buf, nonce...)
	buf = append(buf, ciphertext...)
	return s.writeFile(s.indexPath(), buf)
}

// AddEntry encrypts the display name, appends an entry with a fresh opaque
// id and saves the index. The returned id is the storage key the caller
// uses to create the matching secret record.
func (s *Store) AddEntry(name string, key []byte) (string, error) {
	entries, err := s.LoadIndex(key)
	if err != nil {
		return "", errors.Wrap(err, "add entry")
	}
	e, err := newEntry(name, key)
	if err != nil {
		return "", errors.Wrap(err, "add entry")
	}
	if err := s.SaveIndex(append(entries, e), key); err != nil {
		return "", errors.Wrap(err, "add entry")
	}
	return e.ID, nil
}

// RenameEntry re-encrypts the display name of the entry with the given id
// under a fresh nonce. An unknown id is a no-op, not an error.
func (s *Store) RenameEntry(id, newName string, key []byte) error {
	entries, err := s.LoadIndex(key)
	if err != nil {
		return errors.Wrap(err, "rename entry")
	}
	changed := false
	for i := range entries {
		if entries[i].ID == id {
			e, err := newEntry(newName, key)
			if err != nil {
				return errors.Wrap(err, "rename entry")
			}
			entries[i].EncryptedName = e.EncryptedName
			entries[i].Nonce = e.Nonce
			changed = true
			break
		}
	}
	if !changed {
		return nil
	}
	return errors.Wrap(s.SaveIndex(entries, key), "rename entry")
}

// RemoveEntry drops the entry from the index, saves it, then deletes the
// matching record file. A missing record file is ignored; the index is the
// source of truth and the delete is idempotent.
func (s *Store) RemoveEntry(id string, key []byte) error {
	entries, err := s.LoadIndex(key)
	if err != nil {
		return errors.Wrap(err, "remove entry")
	}
	kept := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if err := s.SaveIndex(kept, key); err != nil {
		return errors.Wrap(err, "remove entry")
	}
	return errors.Wrap(s.DeleteRecord(id), "remove entry")
}

// List decrypts every entry's display name. Linear in the entry count;
// callers doing repeated lookups should hold on to the result, the store
// keeps no cache.
func (s *Store) List(key []byte) ([]NamedEntry, error) {
	entries, err := s.LoadIndex(key)
	if err != nil {
		return nil, errors.Wrap(err, "list entries")
	}
	out := make([]NamedEntry, 0, len(entries))
	for _, e := range entries {
		name, err := decryptName(e, key)
		if err != nil {
			return nil, errors.Wrap(err, "list entries")
		}
		out = append(out, NamedEntry{ID: e.ID, Name: name})
	}
	return out, nil
}

// FindByName returns the id of the first entry whose decrypted name equals
// name, in stored order. Duplicate display names are allowed; first match
// wins. The boolean reports whether a match exists.
func (s *Store) FindByName(name string, key []byte) (string, bool, error) {
	entries, err := s.LoadIndex(key)
	if err != nil {
		return "", false, errors.Wrap(err, "find by name")
	}
	for _, e := range entries {
		got, err := decryptName(e, key)
		if err != nil {
			return "", false, errors.Wrap(err, "find by name")
		}
		if got == name {
			return e.ID, true, nil
		}
	}
	return "", false, nil
}

func newEntry(name string, key []byte) (IndexEntry, error) {
	ciphertext, nonce, err := crypto.Encrypt([]byte(name), key)
	if err != nil {
		return IndexEntry{}, err
	}
	return IndexEntry{
		ID:            uuid.NewString(),
		EncryptedName: base64.StdEncoding.EncodeToString(ciphertext),
		Nonce:         base64.StdEncoding.EncodeToString(nonce),
	}, nil
}

func decryptName(e IndexEntry, key []byte) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(e.EncryptedName)
	if err != nil {
		return "", rpmerr.Wrap(rpmerr.Crypto, err, "invalid base64 in encrypted name")
	}
	nonce, err := base64.StdEncoding.DecodeString(e.Nonce)
	if err != nil {
		return "", rpmerr.Wrap(rpmerr.Crypto, err, "invalid base64 in name nonce")
	}
	plaintext, err := crypto.Decrypt(ciphertext, nonce, key)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(plaintext) {
		return "", rpmerr.New(rpmerr.Crypto, "invalid UTF-8 in decrypted name")
	}
	return string(plaintext), nil
}
