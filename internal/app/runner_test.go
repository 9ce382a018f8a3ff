package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/telaudit/pbxaudit/internal/collectors"
	apperrors "github.com/telaudit/pbxaudit/internal/errors"
	"github.com/telaudit/pbxaudit/internal/logger"
	"github.com/telaudit/pbxaudit/internal/report"
	"github.com/telaudit/pbxaudit/internal/storage"
	"github.com/telaudit/pbxaudit/pkg/types"
)

type stubCollector struct {
	extraction *collectors.Extraction
	err        error
}

func (s *stubCollector) Name() string { return "stub" }

func (s *stubCollector) Collect(context.Context) (*collectors.Extraction, error) {
	return s.extraction, s.err
}

type recordingNotifier struct {
	changeSets []*types.ChangeSet
	failures   []string
}

func (r *recordingNotifier) ChangeReport(cs *types.ChangeSet, _ string) error {
	r.changeSets = append(r.changeSets, cs)
	return nil
}

func (r *recordingNotifier) Failure(date string, _ error) error {
	r.failures = append(r.failures, date)
	return nil
}

func newTestRunner(t *testing.T, collector collectors.Collector, notifier *recordingNotifier) (*Runner, *storage.Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewStore(filepath.Join(dir, "snapshots"), logger.NewNop())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	runner := NewRunner(Options{
		Collector:     collector,
		Store:         store,
		Reports:       report.NewHTMLReport(filepath.Join(dir, "reports")),
		Notifier:      notifier,
		Logger:        logger.NewNop(),
		RetentionDays: 30,
	})
	return runner, store, dir
}

func extractionWith(codes ...string) *collectors.Extraction {
	e := &collectors.Extraction{}
	for _, code := range codes {
		e.Extensions = append(e.Extensions, collectors.RawExtension{Code: code, Name: "Ext " + code})
	}
	return e
}

func TestRunFirstRun(t *testing.T) {
	notifier := &recordingNotifier{}
	runner, store, _ := newTestRunner(t, &stubCollector{extraction: extractionWith("101")}, notifier)

	now := time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC)
	result, err := runner.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !result.Changes.IsFirstRun {
		t.Error("run without a previous snapshot must be a first run")
	}
	if result.Changes.HasChanges() {
		t.Error("first run must report no changes")
	}
	if result.ReportPath != "" {
		t.Error("first run must not write a change report")
	}
	if _, err := store.Load("2026-09-01"); err != nil {
		t.Errorf("snapshot not persisted: %v", err)
	}
	if len(notifier.changeSets) != 0 {
		t.Errorf("first run sent %d notification(s), want none", len(notifier.changeSets))
	}
}

func TestRunDetectsChanges(t *testing.T) {
	notifier := &recordingNotifier{}
	runner, _, dir := newTestRunner(t, &stubCollector{extraction: extractionWith("101", "102")}, notifier)

	day1 := time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC)
	if _, err := runner.Run(context.Background(), day1); err != nil {
		t.Fatalf("day 1 run failed: %v", err)
	}

	runner.collector = &stubCollector{extraction: extractionWith("101", "103")}
	day2 := day1.AddDate(0, 0, 1)
	result, err := runner.Run(context.Background(), day2)
	if err != nil {
		t.Fatalf("day 2 run failed: %v", err)
	}

	if result.Changes.IsFirstRun {
		t.Error("second day must not be a first run")
	}
	if len(result.Changes.ExtensionsAdded) != 1 || result.Changes.ExtensionsAdded[0].Code != "103" {
		t.Errorf("added = %+v", result.Changes.ExtensionsAdded)
	}
	if len(result.Changes.ExtensionsRemoved) != 1 || result.Changes.ExtensionsRemoved[0].Code != "102" {
		t.Errorf("removed = %+v", result.Changes.ExtensionsRemoved)
	}
	if result.ReportPath == "" {
		t.Fatal("change report not written")
	}
	if _, err := os.Stat(result.ReportPath); err != nil {
		t.Errorf("report file missing: %v", err)
	}
	if result.ReportPath != filepath.Join(dir, "reports", "2026-09-02_changes.html") {
		t.Errorf("report path = %s", result.ReportPath)
	}
}

func TestRunNoChangesSkipsReport(t *testing.T) {
	notifier := &recordingNotifier{}
	runner, _, _ := newTestRunner(t, &stubCollector{extraction: extractionWith("101")}, notifier)

	day1 := time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC)
	if _, err := runner.Run(context.Background(), day1); err != nil {
		t.Fatalf("day 1 run failed: %v", err)
	}
	result, err := runner.Run(context.Background(), day1.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("day 2 run failed: %v", err)
	}

	if result.Changes.HasChanges() {
		t.Error("identical snapshots must report no changes")
	}
	if result.ReportPath != "" {
		t.Error("no-change run must not write a report")
	}
	// Day 1 is a first run and stays silent; only day 2 notifies.
	if len(notifier.changeSets) != 1 {
		t.Errorf("notifier called %d times, want 1", len(notifier.changeSets))
	}
	for _, cs := range notifier.changeSets {
		if cs.IsFirstRun {
			t.Error("first-run change set must never reach the notifier")
		}
	}
}

func TestRunExtractionFailureAborts(t *testing.T) {
	notifier := &recordingNotifier{}
	runner, store, _ := newTestRunner(t, &stubCollector{err: errors.New("portal timeout")}, notifier)

	now := time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC)
	_, err := runner.Run(context.Background(), now)
	if err == nil {
		t.Fatal("extraction failure must abort the run")
	}
	if kind, ok := apperrors.KindOf(err); !ok || kind != apperrors.KindExtraction {
		t.Errorf("error kind = %v, want extraction", kind)
	}

	// Nothing may be written for the failed date.
	if _, loadErr := store.Load("2026-09-01"); !storage.IsNotFound(loadErr) {
		t.Errorf("failed run must not persist a snapshot, got %v", loadErr)
	}
	if len(notifier.failures) != 1 || notifier.failures[0] != "2026-09-01" {
		t.Errorf("failure notifications = %v", notifier.failures)
	}
	if len(notifier.changeSets) != 0 {
		t.Error("failed run must not send a change report")
	}
}

func TestRunSweepsOldSnapshots(t *testing.T) {
	notifier := &recordingNotifier{}
	runner, store, _ := newTestRunner(t, &stubCollector{extraction: extractionWith("101")}, notifier)

	now := time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC)
	old := types.NewSnapshot(now.AddDate(0, 0, -45))
	if err := store.Save(old); err != nil {
		t.Fatalf("saving old snapshot: %v", err)
	}

	result, err := runner.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Swept != 1 {
		t.Errorf("swept = %d, want 1", result.Swept)
	}
	if _, err := store.Load(old.Date); !storage.IsNotFound(err) {
		t.Error("expired snapshot still present")
	}
}

func TestRunCorruptPreviousAborts(t *testing.T) {
	notifier := &recordingNotifier{}
	runner, store, _ := newTestRunner(t, &stubCollector{extraction: extractionWith("101")}, notifier)

	now := time.Date(2026, 9, 2, 6, 0, 0, 0, time.UTC)
	if err := os.WriteFile(store.Path("2026-09-01"), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("writing corrupt snapshot: %v", err)
	}

	_, err := runner.Run(context.Background(), now)
	if err == nil {
		t.Fatal("corrupt previous snapshot must abort the run")
	}
	if kind, ok := apperrors.KindOf(err); !ok || kind != apperrors.KindCorruptSnapshot {
		t.Errorf("error kind = %v, want corrupt snapshot", kind)
	}
	if len(notifier.failures) != 1 {
		t.Errorf("failure notifications = %v, want one", notifier.failures)
	}
	if _, loadErr := store.Load("2026-09-02"); !storage.IsNotFound(loadErr) {
		t.Error("aborted run must not persist a snapshot")
	}
}
