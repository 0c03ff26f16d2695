package commands

import (
	"context"
	"log/slog"
	"time"

	"readshelf/internal/components/chrono"
	"readshelf/internal/components/serviceutil"
	"readshelf/internal/components/telemetry"

	"github.com/spf13/cobra"
)

var scheduleNow *bool

func init() {
	scheduleNow = scheduleCmd.Flags().Bool("now", false, "Also export once right away instead of waiting for the first activation.")
	rootCmd.AddCommand(scheduleCmd)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule <cron spec> [--now]",
	Short: "Re-runs the export on a cron schedule until interrupted.",
	Example: `  readshelf schedule "0 6 * * *"
  readshelf schedule @daily --now`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		spec := args[0]

		err := chrono.ValidateSpec(spec)
		if err != nil {
			serviceutil.Fatal("invalid cron spec", err)
		}
		location, err := chrono.LoadLocation(config.Timezone)
		if err != nil {
			serviceutil.Fatal("invalid timezone", err)
		}

		shutdown := setupTelemetry(ctx)
		defer shutdown()
		telemetry.InstrumentPerfStats(ctx, time.Second*30)

		scheduler := chrono.NewScheduler(telemetry.SlogAPI{}, location)
		err = scheduler.Schedule(spec, func() {
			scheduledExport(ctx)
		})
		if err != nil {
			serviceutil.Fatal("failed to schedule export", err)
		}

		if *scheduleNow {
			scheduledExport(ctx)
		}

		slog.Info("export scheduled", "spec", spec, "timezone", location.String())
		scheduler.Run(ctx)
		slog.Info("scheduler stopped")
	},
}

// scheduledExport keeps the scheduler alive when a single export fails.
func scheduledExport(ctx context.Context) {
	err := runExport(ctx)
	if err != nil {
		slog.Error("scheduled export failed", "err", err)
	}
}
