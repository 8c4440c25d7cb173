package main

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pep299/random-user-aggregator/internal/application"
	"github.com/pep299/random-user-aggregator/internal/config"
	"github.com/pep299/random-user-aggregator/internal/logging"
)

var fetchPretty bool

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch one aggregated random user",
	Long: `Runs the aggregation once and prints the payload served by /api/random-user.
API keys and base URLs are read from the environment or a .env file.`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().BoolVarP(&fetchPretty, "pretty", "p", false, "indent the JSON output")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	// One-shot runs never schedule the warm-up.
	cfg.RatesRefreshSchedule = ""

	logger := logging.NewWithWriter(cmd.ErrOrStderr(), "warn", cfg.LogFormat)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	ctx := cmd.Context()
	app, err := application.New(ctx, cfg, logger, Version)
	if err != nil {
		return fmt.Errorf("creating application: %w", err)
	}
	defer app.Close()

	payload := app.Aggregator.Aggregate(ctx)

	var data []byte
	if fetchPretty {
		data, err = json.MarshalIndent(payload, "", "  ")
	} else {
		data, err = json.Marshal(payload)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
