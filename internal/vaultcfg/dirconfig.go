// Package vaultcfg reads and writes the per-directory credential record.
// The record holds only the master password hash and the key-derivation
// salt; neither is secret material, so the file itself is not encrypted.
package vaultcfg

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/moby/sys/atomicwriter"
	"github.com/pkg/errors"

	"github.com/kv-gits/rpm/internal/auth"
	"github.com/kv-gits/rpm/internal/crypto"
	"github.com/kv-gits/rpm/internal/rpmerr"
)

// FileName is the credential record inside the vault directory.
const FileName = ".rpm_config"

// DirectoryConfig is the on-disk record. Both fields are optional: an empty
// MasterPasswordHash means the vault is unprovisioned.
type DirectoryConfig struct {
	MasterPasswordHash string `json:"master_password_hash,omitempty"`
	EncryptionKeySalt  string `json:"encryption_key_salt,omitempty"`
}

// HasMasterPassword is the gate a caller uses to choose between the create
// and unlock flows. Check it on a freshly loaded record every time a vault
// is opened; a second process may have provisioned the directory since.
func (c DirectoryConfig) HasMasterPassword() bool {
	return c.MasterPasswordHash != ""
}

// Salt decodes the stored key-derivation salt. The canonical encoding is
// unpadded standard base64; padded base64 written by older versions is
// accepted on read. Returns nil when no salt is stored.
func (c DirectoryConfig) Salt() ([]byte, error) {
	if c.EncryptionKeySalt == "" {
		return nil, nil
	}
	b, err := base64.RawStdEncoding.DecodeString(c.EncryptionKeySalt)
	if err != nil {
		b, err = base64.StdEncoding.DecodeString(c.EncryptionKeySalt)
		if err != nil {
			return nil, rpmerr.Wrap(rpmerr.Crypto, err, "invalid encryption key salt")
		}
	}
	return b, nil
}

// SetSalt stores salt in the canonical encoding.
func (c *DirectoryConfig) SetSalt(salt []byte) {
	c.EncryptionKeySalt = base64.RawStdEncoding.EncodeToString(salt)
}

// Load reads the record from dir. An absent file is not an error: it loads
// as the empty, unprovisioned record.
func Load(dir string) (DirectoryConfig, error) {
	var c DirectoryConfig
	b, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return c, rpmerr.Wrap(rpmerr.IO, err, "read directory config")
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return DirectoryConfig{}, rpmerr.Wrap(rpmerr.Serialization, err, "parse directory config")
	}
	return c, nil
}

// Save writes the record, creating dir if missing. The write is atomic so a
// crash leaves either the old or the new record.
func Save(dir string, c DirectoryConfig) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return rpmerr.Wrap(rpmerr.IO, err, "create vault directory")
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return rpmerr.Wrap(rpmerr.Serialization, err, "encode directory config")
	}
	if err := atomicwriter.WriteFile(filepath.Join(dir, FileName), b, 0o600); err != nil {
		return rpmerr.Wrap(rpmerr.IO, err, "write directory config")
	}
	return nil
}

// Provision is the single transition from Unprovisioned to Provisioned: it
// sets the master password hash and, when absent, a fresh key-derivation
// salt, then persists both in one save. The two salts (the one embedded in
// the hash, the one stored here) must never be updated independently;
// keeping provisioning as one transition is what prevents authentication
// and decryption capability from desynchronizing.
func Provision(dir, password string) (DirectoryConfig, error) {
	c, err := Load(dir)
	if err != nil {
		return DirectoryConfig{}, errors.Wrap(err, "provision")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return DirectoryConfig{}, errors.Wrap(err, "provision")
	}
	c.MasterPasswordHash = hash
	if c.EncryptionKeySalt == "" {
		salt := make([]byte, crypto.SaltSize)
		if _, err := rand.Read(salt); err != nil {
			return DirectoryConfig{}, rpmerr.Wrap(rpmerr.Crypto, err, "salt generation failed")
		}
		c.SetSalt(salt)
	}
	if err := Save(dir, c); err != nil {
		return DirectoryConfig{}, errors.Wrap(err, "provision")
	}
	return c, nil
}
