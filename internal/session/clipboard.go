// Package session owns the mutable workflow state around the vault engine.
// The engine itself is stateless between calls; anything with a lifetime —
// the pending clipboard clear in particular — lives here.
package session

import (
	"sync"
	"time"

	"github.com/kv-gits/rpm/internal/platform"
)

// ClipboardGuard copies secrets to the clipboard and clears them after a
// timeout. Issuing a new copy cancels any pending clear first, so two rapid
// copies never race to wipe the newer value.
type ClipboardGuard struct {
	mu    sync.Mutex
	cl    platform.Clipboard
	timer *time.Timer
	gen   uint64
}

func NewClipboardGuard(cl platform.Clipboard) *ClipboardGuard {
	return &ClipboardGuard{cl: cl}
}

// Copy places text on the clipboard and arms a clear after ttl. A ttl of
// zero or less copies without scheduling a clear.
func (g *ClipboardGuard) Copy(text string, ttl time.Duration) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelLocked()
	if err := g.cl.Set(text); err != nil {
		return err
	}
	if ttl > 0 {
		gen := g.gen
		g.timer = time.AfterFunc(ttl, func() { g.clear(gen) })
	}
	return nil
}

// CancelPending stops a scheduled clear without touching the clipboard.
func (g *ClipboardGuard) CancelPending() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelLocked()
}

// ClearNow wipes the clipboard immediately and cancels any pending clear.
func (g *ClipboardGuard) ClearNow() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelLocked()
	return g.cl.Set("")
}

// cancelLocked revokes any scheduled clear. Stopping the timer is not
// enough on its own: a callback that has already fired may be parked on
// the lock, so the generation bump is what actually invalidates it.
func (g *ClipboardGuard) cancelLocked() {
	g.gen++
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}

func (g *ClipboardGuard) clear(gen uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.gen {
		return
	}
	g.timer = nil
	_ = g.cl.Set("")
}
