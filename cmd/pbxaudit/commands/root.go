package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	apperrors "github.com/telaudit/pbxaudit/internal/errors"
	"github.com/telaudit/pbxaudit/internal/logger"
	"github.com/telaudit/pbxaudit/pkg/config"
)

var (
	cfgFile string
	cfg     *config.Config
	log     logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pbxaudit",
	Short: "Daily PBX configuration audit",
	Long: `pbxaudit snapshots the PBX portal configuration once a day and reports
what changed since the previous snapshot.

It tracks extensions, inbound numbers (DIDs) and call queues with their
membership, stores each day's state as a dated snapshot, and renders the
differences as terminal tables, JSON, YAML, markdown or an HTML report.

Typical usage:
  pbxaudit audit                  # run today's audit
  pbxaudit diff                   # show the latest change set again
  pbxaudit snapshots              # list stored snapshots
  pbxaudit render 2026-09-01      # inspect one snapshot`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
}

// Execute runs the CLI. Exit codes follow the error kind so cron wrappers
// can tell configuration mistakes from portal trouble.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(apperrors.ExitCode(err))
	}
}

func init() {
	// Accept log_level as log-level and the like.
	rootCmd.PersistentFlags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pbxaudit/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "output format (table, json, yaml, markdown)")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	rootCmd.AddCommand(newAuditCommand())
	rootCmd.AddCommand(newDiffCommand())
	rootCmd.AddCommand(newSnapshotsCommand())
	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newPruneCommand())
	rootCmd.AddCommand(newVersionCommand())
}

func initConfig(cmd *cobra.Command) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return apperrors.Wrap(apperrors.KindConfiguration, "loading configuration", err)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	log = logger.New(cfg.Logging.Level)

	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor || !term.IsTerminal(int(os.Stdout.Fd())) {
		color.NoColor = true
	}

	if err := cfg.Validate(); err != nil {
		return apperrors.Wrap(apperrors.KindConfiguration, "invalid configuration", err)
	}
	return nil
}

// outputFormat reads the persistent output flag.
func outputFormat(cmd *cobra.Command) (string, error) {
	format, err := cmd.Flags().GetString("output")
	if err != nil {
		return "", fmt.Errorf("reading output flag: %w", err)
	}
	return format, nil
}
