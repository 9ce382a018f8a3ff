package storage

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	apperrors "github.com/telaudit/pbxaudit/internal/errors"
	"github.com/telaudit/pbxaudit/internal/logger"
	"github.com/telaudit/pbxaudit/pkg/types"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "snapshots"), logger.NewNop())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store
}

func sampleSnapshot(date string) *types.Snapshot {
	day, _ := time.Parse(types.DateLayout, date)
	s := types.NewSnapshot(day.Add(6 * time.Hour))
	s.Extensions = []types.Extension{
		{Code: "4001-010", Name: "Alice", Group: "Support", QueueState: types.QueueStateAllActive},
	}
	s.DIDs = []types.InboundNumber{
		{
			Number:       "+34911222333",
			InternalID:   "77",
			Announcement: "Welcome",
			Actions:      [types.ActionSlots]string{"Queue: Support", types.NoAction, types.NoAction, types.NoAction, types.NoAction},
		},
	}
	s.Queues = []types.Queue{
		{Name: "Support", InternalID: "9", Members: []types.QueueMember{
			{ExtensionRef: "4001010", State: types.MemberActive, RawLabel: "Alice"},
		}},
	}
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newStore(t)
	original := sampleSnapshot("2025-03-14")

	if err := store.Save(original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load("2025-03-14")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !loaded.CapturedAt.Equal(original.CapturedAt) {
		t.Errorf("captured_at drifted: %v != %v", loaded.CapturedAt, original.CapturedAt)
	}
	loaded.CapturedAt = original.CapturedAt
	if !reflect.DeepEqual(loaded, original) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, original)
	}
}

func TestLoadMissingIsNotFound(t *testing.T) {
	store := newStore(t)

	_, err := store.Load("2025-01-01")
	if !IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, ok := apperrors.KindOf(err); ok {
		t.Error("NotFound must not be an audit error")
	}
}

func TestLoadCorruptSnapshotIsHardError(t *testing.T) {
	store := newStore(t)
	if err := os.WriteFile(store.Path("2025-03-14"), []byte("{truncated"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := store.Load("2025-03-14")
	if err == nil {
		t.Fatal("expected error for corrupt snapshot")
	}
	if IsNotFound(err) {
		t.Fatal("corrupt snapshot must not be reported as NotFound")
	}
	if kind, ok := apperrors.KindOf(err); !ok || kind != apperrors.KindCorruptSnapshot {
		t.Errorf("expected CorruptSnapshot kind, got %v", err)
	}
}

func TestLoadDateMismatchIsCorrupt(t *testing.T) {
	store := newStore(t)
	snapshot := sampleSnapshot("2025-03-14")
	if err := store.Save(snapshot); err != nil {
		t.Fatal(err)
	}

	// A file renamed to the wrong date must not silently pass for it.
	if err := os.Rename(store.Path("2025-03-14"), store.Path("2025-03-15")); err != nil {
		t.Fatal(err)
	}

	_, err := store.Load("2025-03-15")
	if kind, ok := apperrors.KindOf(err); !ok || kind != apperrors.KindCorruptSnapshot {
		t.Errorf("expected CorruptSnapshot kind, got %v", err)
	}
}

func TestSaveOverwritesSameDate(t *testing.T) {
	store := newStore(t)

	first := sampleSnapshot("2025-03-14")
	if err := store.Save(first); err != nil {
		t.Fatal(err)
	}

	second := sampleSnapshot("2025-03-14")
	second.Extensions = append(second.Extensions, types.Extension{Code: "4002-010", Name: "Bob"})
	if err := store.Save(second); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load("2025-03-14")
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Extensions) != 2 {
		t.Errorf("expected the re-run snapshot to win, got %d extensions", len(loaded.Extensions))
	}

	// No temp files may survive a save.
	entries, _ := os.ReadDir(store.Dir())
	for _, e := range entries {
		if e.Name() != "2025-03-14.json" {
			t.Errorf("unexpected leftover file %s", e.Name())
		}
	}
}

func TestSaveRejectsInvalidSnapshot(t *testing.T) {
	store := newStore(t)
	bad := sampleSnapshot("2025-03-14")
	bad.Date = "not-a-date"

	if err := store.Save(bad); err == nil {
		t.Fatal("expected Save to reject invalid snapshot")
	}
}

func TestSweepRetention(t *testing.T) {
	store := newStore(t)
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	ages := []int{1, 31, 45}
	for _, age := range ages {
		date := now.AddDate(0, 0, -age).Format(types.DateLayout)
		if err := store.Save(sampleSnapshot(date)); err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := store.Sweep(now, 30)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2 (the 31- and 45-day-old snapshots)", deleted)
	}

	if _, err := store.Load(now.AddDate(0, 0, -1).Format(types.DateLayout)); err != nil {
		t.Errorf("yesterday's snapshot must survive the sweep: %v", err)
	}
	for _, age := range []int{31, 45} {
		date := now.AddDate(0, 0, -age).Format(types.DateLayout)
		if _, err := store.Load(date); !IsNotFound(err) {
			t.Errorf("snapshot aged %d days should be gone, got %v", age, err)
		}
	}
}

func TestSweepKeepsExactCutoffDate(t *testing.T) {
	store := newStore(t)
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	// Exactly retentionDays old: not strictly older, must stay.
	date := now.AddDate(0, 0, -30).Format(types.DateLayout)
	if err := store.Save(sampleSnapshot(date)); err != nil {
		t.Fatal(err)
	}

	deleted, err := store.Sweep(now, 30)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0", deleted)
	}
}

func TestSweepSkipsMalformedFilenames(t *testing.T) {
	store := newStore(t)
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	if err := os.WriteFile(filepath.Join(store.Dir(), "notes.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(store.Dir(), "README.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(sampleSnapshot("2020-01-01")); err != nil {
		t.Fatal(err)
	}

	deleted, err := store.Sweep(now, 30)
	if err != nil {
		t.Fatalf("Sweep must not fail on malformed filenames: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want only the real expired snapshot", deleted)
	}

	if _, err := os.Stat(filepath.Join(store.Dir(), "notes.json")); err != nil {
		t.Error("sweep must not delete files it cannot date")
	}
}

func TestSweepNegativeRetention(t *testing.T) {
	store := newStore(t)
	if _, err := store.Sweep(time.Now(), -1); err == nil {
		t.Fatal("expected configuration error for negative retention")
	}
}

func TestList(t *testing.T) {
	store := newStore(t)
	for _, date := range []string{"2025-03-12", "2025-03-14", "2025-03-13"} {
		if err := store.Save(sampleSnapshot(date)); err != nil {
			t.Fatal(err)
		}
	}
	// An unreadable file must be skipped, not break the listing.
	if err := os.WriteFile(filepath.Join(store.Dir(), "2025-03-11.json"), []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}

	infos, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("len(infos) = %d, want 3", len(infos))
	}

	// Newest first.
	want := []string{"2025-03-14", "2025-03-13", "2025-03-12"}
	for i, info := range infos {
		if info.Date != want[i] {
			t.Errorf("infos[%d].Date = %s, want %s", i, info.Date, want[i])
		}
		if info.Extensions != 1 || info.DIDs != 1 || info.Queues != 1 {
			t.Errorf("infos[%d] counts wrong: %+v", i, info)
		}
	}
}
