// Package cmd implements the lookahead command line interface.
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/earnor/look-ahead-planning/app"
	"github.com/earnor/look-ahead-planning/config"
	"github.com/earnor/look-ahead-planning/core/model"
	"github.com/earnor/look-ahead-planning/infra/logger"
)

var (
	cfgPath     string
	projectName string
)

var rootCmd = &cobra.Command{
	Use:   "lookahead",
	Short: "Look-ahead planning for prefab construction schedules",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.PersistentFlags().StringVarP(&projectName, "project", "p", "", "project name")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func newService() (*app.Service, *config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return svc, cfg, nil
}

func closeService(svc *app.Service) {
	if err := svc.Close(); err != nil {
		logger.New("cmd").Errorf("service close: %v", err)
	}
}

func projectFor(ctx context.Context, svc *app.Service) (model.Project, error) {
	if projectName == "" {
		return model.Project{}, fmt.Errorf("--project is required")
	}
	return svc.Store.ProjectByName(ctx, projectName)
}

func printSolution(w io.Writer, sol model.Solution) {
	fmt.Fprintf(w, "version %d  status %s  objective %.2f  gap %.4f  finish slot %d of %d\n",
		sol.Version, sol.Status, sol.Objective, sol.Gap, sol.FinishTime, sol.Horizon)
	for _, m := range sol.Modules {
		fmt.Fprintf(w, "  %-12s production %2d (%dh)  transport %2d (%dh)  arrival %2d  installation %2d (%dh)\n",
			m.ID,
			m.ProductionStart, m.ProductionDuration,
			m.TransportStart, m.TransportDuration,
			m.ArrivalTime,
			m.InstallationStart, m.InstallationDuration)
	}
	if len(sol.OrderTimes) > 0 {
		fmt.Fprintf(w, "  order batches at slots %v\n", sol.OrderTimes)
	}
}
