package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/remote-digest/internal/filtering"
)

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "Print the filter pipeline and which filters are enabled",
	Run: func(_ *cobra.Command, _ []string) {
		logger, config := setup()

		f, err := filtering.Default(&filtering.Config{
			SalaryThreshold: config.Matching.SalaryThreshold,
			Disabled:        config.Matching.DisabledFilters,
		}, logger)
		if err != nil {
			logger.Fatal("building filters", zap.Error(err))
		}

		pretty, _ := json.MarshalIndent(filtering.Describe(f.Steps()), "", "  ")
		fmt.Println(string(pretty))
	},
}

func init() {
	rootCmd.AddCommand(filtersCmd)
}
