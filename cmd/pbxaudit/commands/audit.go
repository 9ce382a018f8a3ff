package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/telaudit/pbxaudit/internal/app"
	"github.com/telaudit/pbxaudit/internal/collectors"
	apperrors "github.com/telaudit/pbxaudit/internal/errors"
	"github.com/telaudit/pbxaudit/internal/notify"
	"github.com/telaudit/pbxaudit/internal/report"
	"github.com/telaudit/pbxaudit/internal/storage"
	"github.com/telaudit/pbxaudit/pkg/types"
)

func newAuditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Capture today's snapshot and report changes since yesterday",
		Long: `Run one full audit: collect the current PBX configuration, store it as
today's snapshot, compare it with yesterday's snapshot and report the
changes. Snapshots older than the retention window are deleted afterwards.

Exit codes: 0 = run completed (with or without changes), non-zero = the
run aborted and no snapshot was written for the date.`,
		Example: `  # Daily cron run
  pbxaudit audit --input /var/lib/pbxaudit/export.json

  # Backfill a missed day from an archived export
  pbxaudit audit --date 2026-08-30 --input exports/2026-08-30.json`,
		RunE: runAudit,
	}

	cmd.Flags().String("date", "", "snapshot date (YYYY-MM-DD, default today)")
	cmd.Flags().String("input", "", "raw extraction file (overrides collector.input_path)")

	return cmd
}

func runAudit(cmd *cobra.Command, args []string) error {
	capturedAt := time.Now()
	if date, _ := cmd.Flags().GetString("date"); date != "" {
		day, err := time.Parse(types.DateLayout, date)
		if err != nil {
			return apperrors.Wrap(apperrors.KindConfiguration, "invalid --date", err)
		}
		capturedAt = day
	}

	collector, err := buildCollector(cmd)
	if err != nil {
		return err
	}

	store, err := storage.NewStore(cfg.Storage.SnapshotsDir(), log)
	if err != nil {
		return err
	}

	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.Email.Enabled {
		notifier = notify.NewEmailNotifier(cfg.Email, log)
	}

	runner := app.NewRunner(app.Options{
		Collector:     collector,
		Store:         store,
		Reports:       report.NewHTMLReport(cfg.Storage.ReportsDir()),
		Notifier:      notifier,
		Logger:        log,
		RetentionDays: cfg.Retention.Days,
	})

	result, err := runner.Run(cmd.Context(), capturedAt)
	if err != nil {
		return err
	}

	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	if err := printChangeSet(cmd, format, result.Changes); err != nil {
		return err
	}

	if result.ReportPath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "\nHTML report: %s\n", result.ReportPath)
	}
	if result.Swept > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Swept %d expired snapshot(s)\n", result.Swept)
	}
	return nil
}

func buildCollector(cmd *cobra.Command) (collectors.Collector, error) {
	input, _ := cmd.Flags().GetString("input")
	if input == "" {
		input = cfg.Collector.InputPath
	}
	if cfg.Collector.Source == "file" && input == "" {
		return nil, apperrors.New(apperrors.KindConfiguration,
			"file collector needs --input or collector.input_path")
	}

	registry := collectors.NewRegistry()
	registry.Register(collectors.NewFileCollector(input))

	collector, err := registry.Get(cfg.Collector.Source)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindConfiguration, "selecting collector", err)
	}
	return collector, nil
}
