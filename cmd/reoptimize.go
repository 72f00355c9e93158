package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var reoptAt string

var reoptimizeCmd = &cobra.Command{
	Use:   "reoptimize",
	Short: "Re-solve from a reference time, freezing done work and applying pending delays",
	RunE:  runReoptimize,
}

func init() {
	reoptimizeCmd.Flags().StringVar(&reoptAt, "at", "", "reference time (RFC 3339, default now)")
	rootCmd.AddCommand(reoptimizeCmd)
}

func runReoptimize(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	at := time.Now().UTC()
	if reoptAt != "" {
		var err error
		at, err = time.Parse(time.RFC3339, reoptAt)
		if err != nil {
			return fmt.Errorf("parse --at: %w", err)
		}
	}

	svc, _, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	proj, err := projectFor(ctx, svc)
	if err != nil {
		return err
	}
	sol, err := svc.Planner.Reoptimize(ctx, proj.ID, at)
	if err != nil {
		return err
	}
	printSolution(cmd.OutOrStdout(), sol)
	return nil
}
