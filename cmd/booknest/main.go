// cmd/booknest/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "booknest",
	Short: "Community book marketplace server and tools",
	Long: `booknest runs the marketplace API (catalog, rentals, purchases,
donations, messaging, community and realtime sync) and the tooling around it.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "optional YAML config file overriding the environment")
	rootCmd.AddCommand(serveCmd, migrateCmd, userCmd, booksCmd, chaosCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
