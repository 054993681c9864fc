package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "github.com/backcountry-access/beacon-tracker/pkg/adapters/datasource/mssql"    // SQL Server adapter
	_ "github.com/backcountry-access/beacon-tracker/pkg/adapters/datasource/postgres" // PostgreSQL mirror adapter
	_ "github.com/backcountry-access/beacon-tracker/pkg/adapters/datasource/sqlite"   // Offline snapshot adapter
	"github.com/backcountry-access/beacon-tracker/pkg/config"
	"github.com/backcountry-access/beacon-tracker/pkg/logging"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	configPath string
	verbose    bool
	timeout    time.Duration

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "beacon-tracker",
	Short: "Trace a beacon through the T3 manufacturing stages",
	Long: `beacon-tracker collects every manufacturing record of one serial-numbered
beacon from the T3 tracking database and shows them in the order they happened.

Reports can be saved to a JSON file, archived to S3 and opened again later
without a database connection.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger, err = logging.NewLogger(logging.Config{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
		}, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		logger.Debug("Configuration loaded",
			zap.String("datasource", cfg.Datasource.Type),
			zap.Bool("archive", cfg.Archive.Enabled()),
			zap.String("version", Version))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Overall time limit for the command")

	rootCmd.AddCommand(queryCmd, showCmd, lookupCmd, pingCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// commandContext bounds a command by --timeout.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(base)
	}
	return context.WithTimeout(base, timeout)
}
