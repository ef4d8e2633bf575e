package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var selfCheckCmd = &cobra.Command{
	Use:   "self-check",
	Short: "Verify external binary availability and environment presence",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		orch, err := a.RequireOrchestrator()
		if err != nil {
			fmt.Println("HETZNER_DNS_API_TOKEN: not set")
			return err
		}

		res := orch.SelfCheck(a.Cfg.HetznerDNSAPIToken != "")
		fmt.Printf("probe binary (%s): ok=%v\n", res.ProbeBinaryPath, res.ProbeBinaryOK)
		fmt.Printf("probe template (%s): ok=%v\n", res.TemplatePath, res.TemplateOK)
		fmt.Printf("HETZNER_DNS_API_TOKEN set: %v\n", res.HetznerTokenSet)

		if !res.ProbeBinaryOK || !res.TemplateOK || !res.HetznerTokenSet {
			return fmt.Errorf("self-check failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(selfCheckCmd)
}
