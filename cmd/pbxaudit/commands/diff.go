package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telaudit/pbxaudit/internal/differ"
	apperrors "github.com/telaudit/pbxaudit/internal/errors"
	"github.com/telaudit/pbxaudit/internal/report"
	"github.com/telaudit/pbxaudit/internal/storage"
	"github.com/telaudit/pbxaudit/pkg/types"
)

func newDiffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show changes between two stored snapshots",
		Long: `Compare two stored snapshots and print the change set. Without flags the
two most recent snapshots are compared, which replays the latest audit's
report without touching the portal.

Exit codes: 0 = no changes, 1 = changes detected.`,
		Example: `  # Replay the latest comparison
  pbxaudit diff

  # Compare specific dates
  pbxaudit diff --from 2026-08-25 --to 2026-09-01

  # Script-friendly output
  pbxaudit diff -o json | jq .summary`,
		RunE: runDiff,
	}

	cmd.Flags().String("from", "", "older snapshot date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "newer snapshot date (YYYY-MM-DD)")

	return cmd
}

func runDiff(cmd *cobra.Command, args []string) error {
	store, err := storage.NewStore(cfg.Storage.SnapshotsDir(), log)
	if err != nil {
		return err
	}

	fromDate, _ := cmd.Flags().GetString("from")
	toDate, _ := cmd.Flags().GetString("to")

	if (fromDate == "") != (toDate == "") {
		return apperrors.New(apperrors.KindConfiguration, "--from and --to must be used together")
	}
	if fromDate == "" {
		infos, err := store.List()
		if err != nil {
			return err
		}
		if len(infos) < 2 {
			return apperrors.New(apperrors.KindStorage,
				fmt.Sprintf("need at least two snapshots to diff, have %d", len(infos)))
		}
		// List is newest first.
		toDate, fromDate = infos[0].Date, infos[1].Date
	}

	previous, err := store.Load(fromDate)
	if err != nil {
		return err
	}
	current, err := store.Load(toDate)
	if err != nil {
		return err
	}

	changes := differ.New().Compare(current, previous)

	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	if err := printChangeSet(cmd, format, changes); err != nil {
		return err
	}

	if changes.HasChanges() {
		// Mirror git diff so shell scripts can branch on the exit code. The
		// change set is already printed, so keep cobra quiet about it.
		cmd.SilenceErrors = true
		return &exitError{code: 1}
	}
	return nil
}

// printChangeSet renders a change set in the requested format to stdout.
func printChangeSet(cmd *cobra.Command, format string, cs *types.ChangeSet) error {
	parsed, err := report.ParseFormat(format)
	if err != nil {
		return apperrors.Wrap(apperrors.KindConfiguration, "invalid output format", err)
	}
	formatter, err := report.NewFormatter(parsed)
	if err != nil {
		return err
	}
	out, err := formatter.ChangeSet(cs)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

// exitError carries a bare exit code without printing anything further.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }
