package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/remote-digest/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the tables of the sqlite or postgres store",
	Run: func(_ *cobra.Command, _ []string) {
		ctx := context.Background()
		logger, config := setup()

		db := openDatabase(ctx, config, logger)
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			logger.Fatal("migrating the store", zap.Error(err))
		}
		logger.Info("store migrated", zap.String("driver", config.Store.Driver))
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func openDatabase(ctx context.Context, config *Config, logger *zap.Logger) store.Database {
	cfg, err := storeConfig(config)
	if err != nil {
		logger.Fatal("configuring the store", zap.Error(err))
	}

	db, err := store.OpenDatabase(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("opening the store", zap.Error(err))
	}
	return db
}
