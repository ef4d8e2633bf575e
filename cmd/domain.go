package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var setDomainCmd = &cobra.Command{
	Use:   "set-domain <fqdn>",
	Short: "Find the zone, ensure the A-record exists, and manage the domain (idempotent)",
	Args:  cobra.ExactArgs(1),
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

		if err := orch.SetDomain(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Println("domain managed:", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setDomainCmd)
}
