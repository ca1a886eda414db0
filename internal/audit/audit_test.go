package audit

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRecordAndList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	actions := []string{"created", "payment_toggled", "cancelled"}
	for _, action := range actions {
		if err := db.Record(ctx, action, "b1", "admin", "detail for "+action); err != nil {
			t.Fatalf("record %s: %v", action, err)
		}
	}

	entries, err := db.List(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	// Newest first.
	if entries[0].Action != "cancelled" || entries[2].Action != "created" {
		t.Errorf("unexpected order: %s .. %s", entries[0].Action, entries[2].Action)
	}
	if entries[0].BookingID != "b1" || entries[0].Actor != "admin" {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}

func TestListLimit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := db.Record(ctx, "created", "b1", "client", ""); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := db.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}

	// Non-positive limit falls back to the default.
	entries, err = db.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 5 {
		t.Errorf("expected all 5 entries, got %d", len(entries))
	}
}
