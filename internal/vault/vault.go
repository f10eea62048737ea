// Package vault is the session facade over one vault directory: it loads
// the directory config, provisions or verifies the master password, derives
// the master key and gates every secret operation on the unlocked state.
// The engine underneath is stateless between calls; the only state held
// here is the derived key, which is zeroized on Lock.
package vault

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"

	"github.com/kv-gits/rpm/internal/auth"
	"github.com/kv-gits/rpm/internal/crypto"
	"github.com/kv-gits/rpm/internal/rpmerr"
	"github.com/kv-gits/rpm/internal/store"
	"github.com/kv-gits/rpm/internal/vaultcfg"
)

var ErrNotUnlocked = errors.New("vault: not unlocked")

type Vault struct {
	dir   string
	cfg   vaultcfg.DirectoryConfig
	store *store.Store
	key   *crypto.SecureKey
}

// Open binds a Vault to a directory and loads its config. It does not
// authenticate; follow with Create or Unlock.
func Open(dir string) (*Vault, error) {
	cfg, err := vaultcfg.Load(dir)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "open vault")
	}
	return &Vault{dir: dir, cfg: cfg, store: store.New(dir)}, nil
}

// Dir returns the vault directory path.
func (v *Vault) Dir() string { return v.dir }

// Provisioned reports whether a master password has been set for this
// directory, from the config loaded at Open or refreshed by Unlock.
func (v *Vault) Provisioned() bool { return v.cfg.HasMasterPassword() }

// Create provisions the directory with a master password and unlocks the
// vault. The password hash and the key-derivation salt are written in a
// single config save.
func (v *Vault) Create(ctx context.Context, master string) error {
	cfg, err := vaultcfg.Load(v.dir)
	if err != nil {
		return pkgerrors.Wrap(err, "create vault")
	}
	if cfg.HasMasterPassword() {
		return rpmerr.New(rpmerr.InvalidInput, "vault is already provisioned")
	}
	cfg, err = vaultcfg.Provision(v.dir, master)
	if err != nil {
		return pkgerrors.Wrap(err, "create vault")
	}
	v.cfg = cfg
	return v.deriveKey(ctx, master)
}

// Unlock verifies the master password against a freshly loaded config and
// derives the master key. Derivation is deliberately slow; callers on an
// interactive loop should treat this as a single suspension point and run
// it off that loop, which is why it honors ctx.
func (v *Vault) Unlock(ctx context.Context, master string) error {
	cfg, err := vaultcfg.Load(v.dir)
	if err != nil {
		return pkgerrors.Wrap(err, "unlock vault")
	}
	v.cfg = cfg
	if !cfg.HasMasterPassword() {
		return rpmerr.New(rpmerr.InvalidInput, "vault is not provisioned")
	}
	ok, err := auth.VerifyPassword(master, cfg.MasterPasswordHash)
	if err != nil {
		return pkgerrors.Wrap(err, "unlock vault")
	}
	if !ok {
		return rpmerr.New(rpmerr.AuthenticationFailed, "wrong master password")
	}
	return v.deriveKey(ctx, master)
}

// Lock zeroizes and drops the master key. The vault must be unlocked again
// before further secret operations.
func (v *Vault) Lock() {
	if v.key != nil {
		v.key.Destroy()
		v.key = nil
	}
}

// Unlocked reports whether a master key is held.
func (v *Vault) Unlocked() bool { return v.key != nil }

func (v *Vault) deriveKey(ctx context.Context, master string) error {
	salt, err := v.cfg.Salt()
	if err != nil {
		return pkgerrors.Wrap(err, "derive master key")
	}

	type derived struct {
		key []byte
		err error
	}
	ch := make(chan derived, 1)
	go func() {
		key, _, err := crypto.DeriveKey([]byte(master), salt)
		ch <- derived{key: key, err: err}
	}()

	select {
	case <-ctx.Done():
		// The derivation goroutine finishes on its own; wipe its output.
		go func() {
			if d := <-ch; d.key != nil {
				crypto.Zero(d.key)
			}
		}()
		return rpmerr.Wrap(rpmerr.InvalidInput, ctx.Err(), "key derivation cancelled")
	case d := <-ch:
		if d.err != nil {
			return pkgerrors.Wrap(d.err, "derive master key")
		}
		v.Lock()
		v.key = crypto.NewSecureKey(d.key)
		return nil
	}
}

// AddSecret creates an index entry for name, writes the encrypted record
// and returns the new opaque id.
func (v *Vault) AddSecret(ctx context.Context, name, secret string) (string, error) {
	if !v.Unlocked() {
		return "", ErrNotUnlocked
	}
	id, err := v.store.AddEntry(name, v.key.Bytes())
	if err != nil {
		return "", pkgerrors.Wrap(err, "add secret")
	}
	if err := v.store.UpdateRecord(id, secret, v.key.Bytes()); err != nil {
		return "", pkgerrors.Wrap(err, "add secret")
	}
	return id, nil
}

// GetSecret decrypts the record for id.
func (v *Vault) GetSecret(ctx context.Context, id string) (string, error) {
	if !v.Unlocked() {
		return "", ErrNotUnlocked
	}
	return v.store.ReadRecord(id, v.key.Bytes())
}

// GetSecretByName resolves name through the index, then decrypts the
// record. An unknown name is a NotFound error.
func (v *Vault) GetSecretByName(ctx context.Context, name string) (string, error) {
	if !v.Unlocked() {
		return "", ErrNotUnlocked
	}
	id, ok, err := v.store.FindByName(name, v.key.Bytes())
	if err != nil {
		return "", pkgerrors.Wrap(err, "get secret by name")
	}
	if !ok {
		return "", rpmerr.Newf(rpmerr.NotFound, "no entry named %q", name)
	}
	return v.store.ReadRecord(id, v.key.Bytes())
}

// UpdateSecret replaces the secret for id with a fresh encryption.
func (v *Vault) UpdateSecret(ctx context.Context, id, secret string) error {
	if !v.Unlocked() {
		return ErrNotUnlocked
	}
	return v.store.UpdateRecord(id, secret, v.key.Bytes())
}

// RenameSecret changes the display name for id. Unknown ids are a no-op.
func (v *Vault) RenameSecret(ctx context.Context, id, newName string) error {
	if !v.Unlocked() {
		return ErrNotUnlocked
	}
	return v.store.RenameEntry(id, newName, v.key.Bytes())
}

// DeleteSecret removes the index entry and the record file for id.
func (v *Vault) DeleteSecret(ctx context.Context, id string) error {
	if !v.Unlocked() {
		return ErrNotUnlocked
	}
	return v.store.RemoveEntry(id, v.key.Bytes())
}

// List decrypts all display names.
func (v *Vault) List(ctx context.Context) ([]store.NamedEntry, error) {
	if !v.Unlocked() {
		return nil, ErrNotUnlocked
	}
	return v.store.List(v.key.Bytes())
}

// FindByName returns the id of the first entry with the given display name.
func (v *Vault) FindByName(ctx context.Context, name string) (string, bool, error) {
	if !v.Unlocked() {
		return "", false, ErrNotUnlocked
	}
	return v.store.FindByName(name, v.key.Bytes())
}
