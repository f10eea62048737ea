package store

import (
	"testing"

	"github.com/kv-gits/rpm/internal/rpmerr"
)

func TestRecordRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	key := testKey(t)

	id, err := s.CreateRecord("hunter2", key)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := s.ReadRecord(id, key)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != "hunter2" {
		t.Fatalf("got %q", got)
	}

	if err := s.UpdateRecord(id, "correct horse", key); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err = s.ReadRecord(id, key)
	if err != nil {
		t.Fatalf("reread: %v", err)
	}
	if got != "correct horse" {
		t.Fatalf("got %q after update", got)
	}
}

func TestReadRecordMissingVsWrongKey(t *testing.T) {
	s := New(t.TempDir())
	key := testKey(t)

	_, err := s.ReadRecord("never-existed", key)
	if rpmerr.KindOf(err) != rpmerr.NotFound {
		t.Fatalf("expected NotFound for absent record, got %v", err)
	}

	id, err := s.CreateRecord("secret", key)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = s.ReadRecord(id, testKey(t))
	if !rpmerr.IsKind(err, rpmerr.Crypto) {
		t.Fatalf("expected Crypto for wrong key, got %v", err)
	}
	if rpmerr.IsKind(err, rpmerr.NotFound) {
		t.Fatal("wrong key must not look like a missing record")
	}
}

func TestDeleteRecordIdempotent(t *testing.T) {
	s := New(t.TempDir())
	key := testKey(t)
	id, err := s.CreateRecord("secret", key)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !s.recordExists(id) {
		t.Fatal("record file should exist")
	}
	if err := s.DeleteRecord(id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.recordExists(id) {
		t.Fatal("record file should be gone")
	}
	if err := s.DeleteRecord(id); err != nil {
		t.Fatalf("second delete must be a no-op: %v", err)
	}
}

func TestRecordFreshNonceOnUpdate(t *testing.T) {
	s := New(t.TempDir())
	key := testKey(t)
	id, err := s.CreateRecord("same", key)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	first := readRawRecord(t, s, id)
	if err := s.UpdateRecord(id, "same", key); err != nil {
		t.Fatalf("update: %v", err)
	}
	second := readRawRecord(t, s, id)
	if first.Nonce == second.Nonce {
		t.Fatal("update must use a fresh nonce even for identical plaintext")
	}
}
