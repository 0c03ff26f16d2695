package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"readshelf/internal/components/serviceutil"
	"readshelf/internal/components/telemetry"

	"github.com/spf13/cobra"
)

var configPath *string
var dbPath *string

// set by the persistent pre run of the root command
var config Config

var rootCmd = &cobra.Command{
	Use:   "readshelf",
	Short: "readshelf exports the read shelf of a goodreads user to json.",
	Long: `readshelf exports the read shelf of a goodreads user to json.

Without a subcommand it behaves like "readshelf export".`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loaded, err := loadConfig(*configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		config = loaded
		telemetry.InitSlog(os.Stderr, telemetry.ParseLevel(config.LogLevel))
	},
	Run: func(cmd *cobra.Command, args []string) {
		exportOnce(cmd.Context())
	},
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "readshelf.json5", "The config file, a .local variant next to it overrides its values.")
	dbPath = rootCmd.PersistentFlags().String("db", "", "A sqlite file the shelf is also stored in, overrides the database in the config.")
}

// setupTelemetry installs the otel exporters from the config, the returned
// function flushes them.
func setupTelemetry(ctx context.Context) func() {
	tel, err := telemetry.Setup(ctx, "readshelf", config.Telemetry)
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	return func() {
		err := tel.Shutdown(context.Background())
		if err != nil {
			slog.Warn("failed to shutdown telemetry", "err", err)
		}
	}
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
