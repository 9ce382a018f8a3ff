// Package app orchestrates a full audit run. The pipeline is collect,
// normalize, persist, compare, report, notify, sweep. Each stage talks to
// the others only through the types package.
package app

import (
	"context"
	"time"

	"github.com/telaudit/pbxaudit/internal/collectors"
	"github.com/telaudit/pbxaudit/internal/differ"
	apperrors "github.com/telaudit/pbxaudit/internal/errors"
	"github.com/telaudit/pbxaudit/internal/logger"
	"github.com/telaudit/pbxaudit/internal/normalizer"
	"github.com/telaudit/pbxaudit/internal/notify"
	"github.com/telaudit/pbxaudit/internal/report"
	"github.com/telaudit/pbxaudit/internal/storage"
	"github.com/telaudit/pbxaudit/pkg/types"
)

// Runner wires the audit pipeline together.
type Runner struct {
	collector  collectors.Collector
	normalizer *normalizer.Normalizer
	store      *storage.Store
	differ     *differ.Differ
	reports    *report.HTMLReport
	notifier   notify.Notifier
	log        logger.Logger

	retentionDays int
}

// Options carries the collaborators for a run. Notifier may be nil; a nop
// notifier is substituted.
type Options struct {
	Collector     collectors.Collector
	Store         *storage.Store
	Reports       *report.HTMLReport
	Notifier      notify.Notifier
	Logger        logger.Logger
	RetentionDays int
}

// NewRunner builds a runner from its collaborators.
func NewRunner(opts Options) *Runner {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &Runner{
		collector:     opts.Collector,
		normalizer:    normalizer.New(log),
		store:         opts.Store,
		differ:        differ.New(),
		reports:       opts.Reports,
		notifier:      notifier,
		log:           log,
		retentionDays: opts.RetentionDays,
	}
}

// Result is the outcome of a completed audit run.
type Result struct {
	Snapshot   *types.Snapshot
	Changes    *types.ChangeSet
	ReportPath string
	Swept      int
}

// Run executes one audit for the given capture time. The snapshot date is
// derived from capturedAt. Any failure before the snapshot is saved aborts
// the run with nothing written for the date; the failure notification goes
// out and the error is returned.
func (r *Runner) Run(ctx context.Context, capturedAt time.Time) (*Result, error) {
	date := capturedAt.Format(types.DateLayout)
	log := r.log.WithField("date", date)

	log.WithField("collector", r.collector.Name()).Info("starting audit run")
	raw, err := r.collector.Collect(ctx)
	if err != nil {
		wrapped := apperrors.Wrap(apperrors.KindExtraction, "collecting portal configuration", err)
		return nil, r.abort(date, wrapped)
	}

	snapshot := r.normalizer.Snapshot(capturedAt, raw)
	log.WithField("entities", snapshot.EntityCount()).Info("snapshot normalized")

	previous, err := r.loadPrevious(capturedAt)
	if err != nil {
		return nil, r.abort(date, err)
	}

	if err := r.store.Save(snapshot); err != nil {
		return nil, r.abort(date, err)
	}
	log.Info("snapshot saved")

	changes := r.differ.Compare(snapshot, previous)

	result := &Result{Snapshot: snapshot, Changes: changes}

	if changes.IsFirstRun {
		log.Info("first run, baseline captured")
	} else if changes.HasChanges() {
		log.WithField("total", changes.Summary().Total()).Info("changes detected")
		if r.reports != nil {
			// The snapshot is already persisted; a rendering problem costs
			// the attachment, not the run.
			path, err := r.reports.Write(changes)
			if err != nil {
				log.Error("html report not written", err)
			} else {
				result.ReportPath = path
			}
		}
	} else {
		log.Info("no changes detected")
	}

	// First runs are log only; mail starts once there is history to compare
	// against. Notification trouble never fails the run; the snapshot is
	// already on disk.
	if !changes.IsFirstRun {
		if err := r.notifier.ChangeReport(changes, result.ReportPath); err != nil {
			log.Error("change report not sent", err)
		}
	}

	swept, err := r.store.Sweep(capturedAt, r.retentionDays)
	if err != nil {
		log.Error("retention sweep failed", err)
	} else {
		result.Swept = swept
	}

	return result, nil
}

// abort sends the failure notification for a run that wrote nothing and
// passes the error through.
func (r *Runner) abort(date string, runErr error) error {
	if notifyErr := r.notifier.Failure(date, runErr); notifyErr != nil {
		r.log.Error("failure notification not sent", notifyErr)
	}
	return runErr
}

// loadPrevious fetches yesterday's snapshot. A missing snapshot means a
// first run; a corrupt one aborts the audit so the operator can intervene.
func (r *Runner) loadPrevious(capturedAt time.Time) (*types.Snapshot, error) {
	previousDate := capturedAt.AddDate(0, 0, -1).Format(types.DateLayout)

	previous, err := r.store.Load(previousDate)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return previous, nil
}
