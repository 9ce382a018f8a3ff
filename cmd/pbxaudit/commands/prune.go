package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/telaudit/pbxaudit/internal/storage"
)

func newPruneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete snapshots older than the retention window",
		Long: `Delete snapshots dated strictly before today minus the retention window.
The audit command already prunes after every successful run; this command
exists for manual cleanup, for example after lowering retention.days.`,
		Example: `  # Use the configured retention window
  pbxaudit prune

  # One-off tighter sweep
  pbxaudit prune --retention-days 7`,
		RunE: runPrune,
	}

	cmd.Flags().Int("retention-days", -1, "override retention.days for this sweep")

	return cmd
}

func runPrune(cmd *cobra.Command, args []string) error {
	store, err := storage.NewStore(cfg.Storage.SnapshotsDir(), log)
	if err != nil {
		return err
	}

	days := cfg.Retention.Days
	if override, _ := cmd.Flags().GetInt("retention-days"); override >= 0 {
		days = override
	}

	deleted, err := store.Sweep(time.Now(), days)
	if err != nil {
		return err
	}

	if deleted == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Nothing to prune (retention %d days).\n", days)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d snapshot(s) older than %d days.\n", deleted, days)
	}
	return nil
}
