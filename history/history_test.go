package history

import (
	"testing"
	"time"
)

func TestStore_AddRecent(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	texts := []string{"first utterance", "second utterance", "third utterance"}
	for _, text := range texts {
		if err := store.Add(text); err != nil {
			t.Fatalf("Add(%q) error = %v", text, err)
		}
		time.Sleep(time.Millisecond)
	}

	entries, err := store.Recent(2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Recent(2) returned %d entries, want 2", len(entries))
	}
	if entries[0].Text != "third utterance" {
		t.Errorf("entries[0].Text = %q, want %q", entries[0].Text, "third utterance")
	}
	if entries[1].Text != "second utterance" {
		t.Errorf("entries[1].Text = %q, want %q", entries[1].Text, "second utterance")
	}
	if entries[0].ID == "" {
		t.Error("entries[0].ID is empty")
	}
}

func TestStore_RecentEmpty(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	entries, err := store.Recent(5)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Recent() returned %d entries, want 0", len(entries))
	}
}
