package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print mode, current-IP cache, per-domain state, and candidate list",
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

		st, err := orch.Status()
		if err != nil {
			return err
		}

		fmt.Println("mode:", st.Mode)
		fmt.Println("current_ip:", st.CurrentIP)

		fqdns := make([]string, 0, len(st.Domains))
		for f := range st.Domains {
			fqdns = append(fqdns, f)
		}
		sort.Strings(fqdns)
		for _, f := range fqdns {
			d := st.Domains[f]
			lastUpdate := "never"
			if d.LastUpdate != nil {
				lastUpdate = d.LastUpdate.Format(time.RFC3339)
			}
			fmt.Printf("domain %s: last_ip=%s last_update=%s\n", f, d.LastIP, lastUpdate)
		}

		fmt.Println("candidates:")
		for _, c := range st.Candidates {
			h := st.Health[c.ID]
			fmt.Printf("  %s  %s  %s  enabled=%v  healthy=%v\n", c.ID, c.Label, c.IP, c.Enabled, h.Healthy)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
