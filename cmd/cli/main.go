package main

import (
	"fmt"
	"os"

	"github.com/corclo/backend/internal/database"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var output string = "text" // "text" or "json"

var rootCmd = &cobra.Command{
	Use:   "corclo",
	Short: "Corclo admin CLI - Inspect and operate on a Corclo database",
	Long: `Corclo admin CLI provides direct database access for operators.
Review instance statistics, inspect engagement activity, and export user data.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cmd.Name() == "help" {
			return
		}
		// Missing .env is fine, the system environment may carry everything
		_ = godotenv.Load()
		if err := database.Initialize(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to connect to database: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&output, "output", output, "Output format: text or json")

	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(userCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
