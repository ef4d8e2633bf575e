package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/radin-mg/dnslb/internal/store"
)

// runCmd is a convenience foreground scheduler for operators who don't
// want to wire monitor-once/rotate-once into an external timer
// themselves. It is not the only supported way to run the ticks (§5
// treats the periodic-timer infrastructure as external); it just gives
// that role a process of its own when wanted.
var runCmd = &cobra.Command{
	Use:    "run",
	Short:  "Run monitor and rotate ticks on their configured intervals until interrupted",
	Hidden: true,
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

		c := cron.New(cron.WithSeconds())

		_, err = c.AddFunc(fmt.Sprintf("@every %s", a.Cfg.MonitorInterval), func() {
			if err := orch.MonitorOnce(context.Background(), store.NowUTC()); err != nil {
				a.Log.Warn("scheduled monitor tick failed", zap.Error(err))
			}
		})
		if err != nil {
			return fmt.Errorf("schedule monitor tick: %w", err)
		}

		_, err = c.AddFunc(fmt.Sprintf("@every %s", a.Cfg.LBInterval), func() {
			if err := orch.RotateOnce(context.Background(), store.NowUTC()); err != nil {
				a.Log.Warn("scheduled rotate tick failed", zap.Error(err))
			}
		})
		if err != nil {
			return fmt.Errorf("schedule rotate tick: %w", err)
		}

		c.Start()
		fmt.Println("scheduler running, press ctrl-c to stop")

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		<-c.Stop().Done()
		fmt.Println("stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
