package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/telaudit/pbxaudit/internal/storage"
)

func newSnapshotsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "List stored snapshots",
		Long: `List the snapshots in the store, newest first, with their capture time
and entity counts.`,
		RunE: runSnapshots,
	}
	return cmd
}

func runSnapshots(cmd *cobra.Command, args []string) error {
	store, err := storage.NewStore(cfg.Storage.SnapshotsDir(), log)
	if err != nil {
		return err
	}

	infos, err := store.List()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No snapshots stored yet. Run 'pbxaudit audit' first.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Date\tCaptured\tExtensions\tDIDs\tQueues\n")
	fmt.Fprintf(w, "----\t--------\t----------\t----\t------\n")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n",
			info.Date, info.CapturedAt.Format("15:04:05"),
			info.Extensions, info.DIDs, info.Queues)
	}
	return w.Flush()
}
