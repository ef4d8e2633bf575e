package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/radin-mg/dnslb/internal/store"
)

var setModeCmd = &cobra.Command{
	Use:       "set-mode [best|rr]",
	Short:     "Set the process-wide selection policy",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"best", "rr"},
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

		if err := orch.SetMode(store.Mode(args[0])); err != nil {
			return err
		}
		fmt.Println("mode set to", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setModeCmd)
}
