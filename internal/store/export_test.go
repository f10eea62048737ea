package store

import (
	"encoding/json"
	"os"
	"testing"
)

func readRawRecord(t *testing.T, s *Store, id string) recordFile {
	t.Helper()
	raw, err := os.ReadFile(s.recordPath(id))
	if err != nil {
		t.Fatalf("read raw record: %v", err)
	}
	var rec recordFile
	if err := json.Unmarshal(raw, &rec); err != nil {
		t.Fatalf("parse raw record: %v", err)
	}
	return rec
}
