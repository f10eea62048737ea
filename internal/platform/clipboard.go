// Package platform holds the small OS-facing pieces: clipboard access and
// process hardening. Nothing here touches key material.
package platform

import (
	"os/exec"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// Clipboard places text on the system clipboard. Implementations must
// accept the empty string: clearing is Set("").
type Clipboard interface {
	Set(text string) error
}

// NewClipboard returns a clipboard backed by the platform's copy tool, or a
// no-op when none is available (headless hosts, unsupported OS).
func NewClipboard() Clipboard {
	for _, c := range candidates() {
		if _, err := exec.LookPath(c.name); err == nil {
			return execClipboard{c}
		}
	}
	return noopClipboard{}
}

type tool struct {
	name string
	args []string
}

func candidates() []tool {
	switch runtime.GOOS {
	case "darwin":
		return []tool{{name: "pbcopy"}}
	case "linux":
		return []tool{
			{name: "wl-copy"},
			{name: "xclip", args: []string{"-selection", "clipboard"}},
			{name: "xsel", args: []string{"--clipboard", "--input"}},
		}
	}
	return nil
}

type execClipboard struct {
	t tool
}

func (c execClipboard) Set(text string) error {
	cmd := exec.Command(c.t.name, c.t.args...)
	cmd.Stdin = strings.NewReader(text)
	return errors.Wrapf(cmd.Run(), "clipboard tool %s", c.t.name)
}

type noopClipboard struct{}

func (noopClipboard) Set(string) error { return nil }
