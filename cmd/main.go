package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stock-calls",
	Short: "A CLI for the stock call evaluation services",
	Long: `Stock call evaluation tracks published stock calls until they reach their
target or stop-loss. Run one of the service binaries:

  evaluation-service serve   HTTP API and scheduled-run consumer
  scheduling-service serve   cron publisher of scheduled evaluations
  migrate up|down            database migrations`,
}

func main() {

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your CLI '%s'", err)
		os.Exit(1)
	}
}
