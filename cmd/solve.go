package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Compute the initial schedule for a project",
	RunE:  runSolve,
}

func init() {
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
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
	sol, err := svc.Planner.Solve(ctx, proj.ID)
	if err != nil {
		return err
	}
	printSolution(cmd.OutOrStdout(), sol)
	return nil
}
