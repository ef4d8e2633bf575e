// Package cmd provides the Cobra CLI for dnslb.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/radin-mg/dnslb/internal/app"
)

// Version is set at build time.
var Version = "dev"

var (
	baseDir string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:     "dnslb",
	Short:   "DNS-based load balancer for outbound proxy endpoints",
	Long:    "dnslb probes candidate proxy endpoints, classifies their health, and repoints managed DNS A-records to the best or next healthy endpoint.",
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseDir, "base-dir", "", "state/config root directory (default: $DNSLB_HOME or ./dnslb-data)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "also log to stderr")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openApp wires the full runtime from the current flag values. Every
// command that touches state or the network goes through this.
func openApp() (*app.App, error) {
	return app.New(baseDir, verbose)
}
