package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// Optional .env for local development; absence is fine
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mend",
	Short: "Mend - Self-healing supervisor for containerized services",
	Long: `Mend watches a fleet of containerized services, classifies the
errors they produce, and drives automated recovery: restarting
containers, reclaiming disk, repairing volume permissions, and
relocating conflicting ports.

It supervises the standard fleet (cache, database, reports, c2) out
of the box and exposes a read-only query API for error history and
recovery outcomes.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Mend version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(errorsCmd)
	rootCmd.AddCommand(recoveriesCmd)
}
