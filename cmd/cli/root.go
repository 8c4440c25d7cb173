package main

import (
	"github.com/spf13/cobra"
)

var (
	Version = "dev"

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "random-user",
	Short: "Aggregate a random user with country, currency and news data",
	Long: `random-user queries randomuser.me, countrylayer, exchangerate-api and newsapi
in sequence and prints the combined profile. Failed upstreams are replaced with
fallback values.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("random-user version %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log upstream calls to stderr")
	rootCmd.AddCommand(versionCmd)
}
