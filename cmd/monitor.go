package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/radin-mg/dnslb/internal/store"
)

var monitorOnceCmd = &cobra.Command{
	Use:   "monitor-once",
	Short: "Run a single monitor tick: probe candidates, update health, reconcile in best mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		orch, err := a.RequireOrchestrator()
		if err != nil {
			return err
		}

		if err := orch.MonitorOnce(context.Background(), store.NowUTC()); err != nil {
			return fmt.Errorf("monitor tick failed: %w", err)
		}
		fmt.Println("monitor tick complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(monitorOnceCmd)
}
