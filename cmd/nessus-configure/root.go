package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/MoeTools/nessus/internal/version"
	"github.com/MoeTools/nessus/pkg/config"
	"github.com/MoeTools/nessus/pkg/logging"
	"github.com/MoeTools/nessus/pkg/runner"
	"github.com/MoeTools/nessus/pkg/scanner"
)

var (
	verbosity  int
	dryRun     bool
	configFile string

	rootCmd = &cobra.Command{
		Use:   "nessus-configure",
		Short: "Configure a Nessus scanner from its environment",
		Long: `nessus-configure provisions a freshly started Nessus scanner based on
environment variables: it waits for the scanner to come up, creates the
administrator account, applies general settings, and either activates the
scanner with a code or links it to a remote manager. With neither an
activation code nor a linking key it defers to the welcome wizard.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runConfigure,
	}
)

// Execute runs the root command with signal-aware cancellation.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v DEBUG, -vv TRACE)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log external commands without executing them")
	rootCmd.Flags().StringVar(&configFile, "config", "", "Config file (default probes /etc/nessus-configure.{toml,yaml})")

	rootCmd.AddCommand(versionCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	logger := logging.GetLogger("cmd.configure")

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Info().
		Str("name", cfg.Name).
		Str("managerHost", cfg.Manager.Host).
		Int("managerPort", cfg.Manager.Port).
		Bool("dryRun", dryRun).
		Msg("Starting scanner configuration run")

	opts := scanner.Options{
		Config: cfg,
		Logger: logging.GetLogger("scanner"),
		DryRun: dryRun,
	}
	if dryRun {
		opts.Runner = &runner.DryRun{Logger: logger}
	}

	return scanner.New(opts).Configure(cmd.Context())
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("nessus-configure version %s\n", version.Version)
		cmd.Printf("  commit: %s\n", version.Commit)
		cmd.Printf("  built:  %s\n", version.Date)
	},
}
