package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/earnor/look-ahead-planning/pkg/export"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the latest schedule as JSON or CSV",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "output format: json or csv")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if exportFormat != "json" && exportFormat != "csv" {
		return fmt.Errorf("unknown format %q, expected json or csv", exportFormat)
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
	sol, err := svc.Planner.Describe(ctx, proj.ID)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	if exportFormat == "csv" {
		return export.WriteCSV(w, sol)
	}
	return export.WriteJSON(w, sol)
}
