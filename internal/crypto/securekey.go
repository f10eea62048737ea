package crypto

// SecureKey holds the master key (or any transient secret buffer) and
// guarantees the backing bytes are zeroed on Destroy, however the owning
// scope is exited. Memory is locked against swapping where the platform
// allows it; failure to lock is not fatal. This is hygiene, not a defense
// against an attacker who can already read process memory.
type SecureKey struct {
	buf []byte
}

// NewSecureKey takes ownership of b. The caller must not retain or reuse
// the slice.
func NewSecureKey(b []byte) *SecureKey {
	_ = lockMemory(b)
	return &SecureKey{buf: b}
}

// Bytes exposes the key material for the duration of a vault operation.
// The returned slice aliases the guarded buffer; callers must not store it.
func (k *SecureKey) Bytes() []byte { return k.buf }

func (k *SecureKey) Len() int { return len(k.buf) }

// Destroy zeroes and releases the key material. Safe to call more than
// once.
func (k *SecureKey) Destroy() {
	if k.buf == nil {
		return
	}
	Zero(k.buf)
	_ = unlockMemory(k.buf)
	k.buf = nil
}
