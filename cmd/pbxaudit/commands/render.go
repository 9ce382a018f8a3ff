package commands

import (
	"github.com/spf13/cobra"

	apperrors "github.com/telaudit/pbxaudit/internal/errors"
	"github.com/telaudit/pbxaudit/internal/report"
	"github.com/telaudit/pbxaudit/internal/resolver"
	"github.com/telaudit/pbxaudit/internal/storage"
)

func newRenderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <date>",
		Short: "Show one stored snapshot",
		Long: `Render a stored snapshot. Queue members are shown with the display name
resolved from the extension registry of the same snapshot; references
that cannot be resolved keep a warning marker so data-quality gaps stay
visible.`,
		Example: `  pbxaudit render 2026-09-01
  pbxaudit render 2026-09-01 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: runRender,
	}
	return cmd
}

func runRender(cmd *cobra.Command, args []string) error {
	store, err := storage.NewStore(cfg.Storage.SnapshotsDir(), log)
	if err != nil {
		return err
	}

	snapshot, err := store.Load(args[0])
	if err != nil {
		return err
	}

	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	parsed, err := report.ParseFormat(format)
	if err != nil {
		return apperrors.Wrap(apperrors.KindConfiguration, "invalid output format", err)
	}
	formatter, err := report.NewFormatter(parsed)
	if err != nil {
		return err
	}

	out, err := formatter.Snapshot(snapshot, resolver.New(snapshot.Extensions))
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
