package rpmerr

import (
	"testing"

	"github.com/pkg/errors"
)

func TestKindOf(t *testing.T) {
	err := New(Crypto, "decryption failed")
	if KindOf(err) != Crypto {
		t.Fatalf("expected Crypto kind, got %v", KindOf(err))
	}
	if KindOf(errors.New("plain")) != 0 {
		t.Fatal("untyped error should have zero kind")
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := New(NotFound, "record missing")
	wrapped := errors.Wrap(inner, "read record")
	if !IsKind(wrapped, NotFound) {
		t.Fatalf("kind lost through pkg/errors wrap: %v", wrapped)
	}
	if KindOf(wrapped) != NotFound {
		t.Fatalf("expected NotFound, got %v", KindOf(wrapped))
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(IO, nil, "whatever") != nil {
		t.Fatal("wrapping nil should stay nil")
	}
}

func TestIsKindDistinguishes(t *testing.T) {
	err := Wrap(Crypto, New(Serialization, "bad json"), "load index")
	if !IsKind(err, Crypto) {
		t.Fatal("outer kind not matched")
	}
	if !IsKind(err, Serialization) {
		t.Fatal("inner kind not matched")
	}
	if IsKind(err, NotFound) {
		t.Fatal("unrelated kind matched")
	}
}
