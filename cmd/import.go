package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/remote-digest/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Copy postings and subscribers from json/yaml files into the sqlite or postgres store",
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := context.Background()
		logger, config := setup()

		postings, _ := cmd.Flags().GetString("postings")
		subscribers, _ := cmd.Flags().GetString("subscribers")
		if postings == "" {
			postings = config.Store.PostingsFile
		}
		if subscribers == "" {
			subscribers = config.Store.SubscribersFile
		}

		src, err := store.Open(ctx, store.Config{
			Driver:          store.DriverFile,
			PostingsFile:    postings,
			SubscribersFile: subscribers,
		}, logger)
		if err != nil {
			logger.Fatal("opening the source files", zap.Error(err))
		}
		defer src.Close()

		db := openDatabase(ctx, config, logger)
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			logger.Fatal("migrating the store", zap.Error(err))
		}

		nPostings, nSubscribers, err := store.Import(ctx, src, db, logger)
		if err != nil {
			logger.Fatal("importing",
				zap.Error(err),
				zap.Int("postings", nPostings),
				zap.Int("subscribers", nSubscribers),
			)
		}

		logger.Info("import finished",
			zap.String("driver", config.Store.Driver),
			zap.Int("postings", nPostings),
			zap.Int("subscribers", nSubscribers),
		)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("postings", "", "postings json/yaml file (default store.postings-file)")
	importCmd.Flags().String("subscribers", "", "subscribers json/yaml file (default store.subscribers-file)")
}
