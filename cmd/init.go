package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/earnor/look-ahead-planning/pkg/modulecsv"
)

var (
	initStart string
	initEnd   string
)

var initCmd = &cobra.Command{
	Use:   "init <modules.csv>",
	Short: "Create a project from a module-list CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runInit,
}

func init() {
	initCmd.Flags().StringVar(&initStart, "start", "", "project start date (YYYY-MM-DD)")
	initCmd.Flags().StringVar(&initEnd, "end", "", "target end date (YYYY-MM-DD)")
	_ = initCmd.MarkFlagRequired("start")
	_ = initCmd.MarkFlagRequired("end")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if projectName == "" {
		return fmt.Errorf("--project is required")
	}
	start, err := time.Parse(time.DateOnly, initStart)
	if err != nil {
		return fmt.Errorf("parse start date: %w", err)
	}
	end, err := time.Parse(time.DateOnly, initEnd)
	if err != nil {
		return fmt.Errorf("parse end date: %w", err)
	}
	if !end.After(start) {
		return fmt.Errorf("end date %s must be after start date %s", initEnd, initStart)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer func() { _ = f.Close() }()
	modules, edges, err := modulecsv.Parse(f)
	if err != nil {
		return fmt.Errorf("parse csv: %w", err)
	}

	svc, _, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	id, err := svc.Store.CreateProject(ctx, projectName, start, end, modules, edges)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created project %q (id %d) with %d modules and %d precedence edges\n",
		projectName, id, len(modules), len(edges))
	return nil
}
