package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	actions := []struct{ action, id, identifier, voter, source string }{
		{"approve", "a1", "ns/img:1.0", "Ada Lovelace", "command"},
		{"reject", "a2", "ns/img:1.1", "Grace Hopper", "button"},
		{"delete", "a3", "ns/old:0.9", "Ada Lovelace", "command"},
	}
	for _, a := range actions {
		if err := s.Record(ctx, a.action, a.id, a.identifier, a.voter, a.source); err != nil {
			t.Fatalf("Record(%s) error: %v", a.action, err)
		}
	}

	entries, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}

	// Newest first.
	if entries[0].Action != "delete" || entries[0].ApprovalID != "a3" {
		t.Errorf("entries[0] = %+v, want the delete action", entries[0])
	}
	if entries[2].Voter != "Ada Lovelace" || entries[2].Source != "command" {
		t.Errorf("entries[2] = %+v", entries[2])
	}
	if entries[0].Time.IsZero() {
		t.Error("entry timestamp not recorded")
	}
}

func TestRecentLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for range 5 {
		if err := s.Record(ctx, "approve", "a1", "ns/img:1.0", "me", "command"); err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}

	entries, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("entries = %d, want 2", len(entries))
	}
}

func TestOpenReusesExistingDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if err := s.Record(ctx, "approve", "a1", "ns/img:1.0", "me", "command"); err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	_ = s.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer reopened.Close()

	entries, err := reopened.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("entries after reopen = %d, want 1", len(entries))
	}
	if entries[0].Time.Sub(time.Now()) > time.Minute {
		t.Errorf("entry time in the future: %v", entries[0].Time)
	}
}
