package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/radin-mg/dnslb/internal/store"
)

var rotateOnceCmd = &cobra.Command{
	Use:   "rotate-once",
	Short: "Run a single rotate tick: advance the round-robin cursor and reconcile",
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

		if err := orch.RotateOnce(context.Background(), store.NowUTC()); err != nil {
			return fmt.Errorf("rotate tick failed: %w", err)
		}
		fmt.Println("rotate tick complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rotateOnceCmd)
}
