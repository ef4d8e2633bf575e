package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var addConfigCmd = &cobra.Command{
	Use:   "add-config <label> <ip> <outbound-json>",
	Short: "Register a new candidate proxy configuration",
	Args:  cobra.ExactArgs(3),
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

		cfg, err := orch.AddConfig(args[0], args[1], json.RawMessage(args[2]))
		if err != nil {
			return err
		}
		fmt.Println("added config", cfg.ID)
		return nil
	},
}

var removeConfigCmd = &cobra.Command{
	Use:   "remove-config <id>",
	Short: "Remove a candidate configuration and its health record",
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

		if err := orch.RemoveConfig(args[0]); err != nil {
			return err
		}
		fmt.Println("removed", args[0])
		return nil
	},
}

var enableConfigCmd = &cobra.Command{
	Use:   "enable-config <id>",
	Short: "Mark a candidate configuration enabled",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(args[0], true)
	},
}

var disableConfigCmd = &cobra.Command{
	Use:   "disable-config <id>",
	Short: "Mark a candidate configuration disabled",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(args[0], false)
	},
}

func setEnabled(id string, enabled bool) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	orch, err := a.RequireOrchestrator()
	if err != nil {
		return err
	}

	if err := orch.SetConfigEnabled(id, enabled); err != nil {
		return err
	}
	if enabled {
		fmt.Println("enabled", id)
	} else {
		fmt.Println("disabled", id)
	}
	return nil
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every candidate's ID, label, IP, enabled flag, and health snippet",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		candidates, err := a.Store.ListCandidates()
		if err != nil {
			return err
		}
		health, err := a.Store.LoadHealth()
		if err != nil {
			return err
		}

		for _, c := range candidates {
			h := health[c.ID]
			fmt.Printf("%s  %-20s  %-15s  enabled=%-5v  healthy=%-5v  ok_streak=%d  fail_streak=%d\n",
				c.ID, c.Label, c.IP, c.Enabled, h.Healthy, h.OKStreak, h.FailStreak)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addConfigCmd, removeConfigCmd, enableConfigCmd, disableConfigCmd, listCmd)
}
