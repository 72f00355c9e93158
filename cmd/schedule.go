package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Show the latest schedule",
	RunE:  runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, _, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	proj, err := projectFor(ctx, svc)
	if err != nil {
		return err
	}
	sol, err := svc.Planner.Describe(ctx, proj.ID)
	if err != nil {
		return err
	}
	printSolution(cmd.OutOrStdout(), sol)
	return nil
}
