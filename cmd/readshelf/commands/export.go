package commands

import (
	"context"

	"readshelf/internal/components/serviceutil"
	"readshelf/internal/components/telemetry"
	"readshelf/internal/export"
	"readshelf/internal/scrapers/goodreads"
	"readshelf/internal/shelfstore"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [--config <path/to/readshelf.json5>] [--db <path/to/shelf.db>]",
	Short: "Fetches the read shelf and writes the read and top rated json files.",
	Run: func(cmd *cobra.Command, args []string) {
		exportOnce(cmd.Context())
	},
}

func exportOnce(ctx context.Context) {
	shutdown := setupTelemetry(ctx)
	defer shutdown()

	err := runExport(ctx)
	if err != nil {
		shutdown()
		serviceutil.Fatal("export failed", err)
	}
}

func databaseConfig() shelfstore.Config {
	if *dbPath != "" {
		return shelfstore.Config{File: *dbPath}
	}
	return config.Database
}

func runExport(ctx context.Context) error {
	clientOpts, err := config.clientOptions()
	if err != nil {
		return err
	}
	client, err := goodreads.NewClient(clientOpts, telemetry.SlogAPI{})
	if err != nil {
		return err
	}

	opts := export.Options{
		SeedUrl:      config.SeedUrl,
		ReadPath:     config.ReadOutput,
		TopRatedPath: config.TopRatedOutput,
		Collect: export.CollectOptions{
			MaxPages: config.MaxPages,
		},
	}

	dbConfig := databaseConfig()
	if dbConfig.Enabled() {
		store, err := shelfstore.Open(ctx, dbConfig)
		if err != nil {
			return err
		}
		defer store.Close()
		opts.Sink = store
	}

	return export.Run(ctx, client, opts)
}
