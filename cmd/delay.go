package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/earnor/look-ahead-planning/core/calendar"
	"github.com/earnor/look-ahead-planning/core/model"
)

var (
	delayModule string
	delayPhase  string
	delayType   string
	delayHours  int
	delayReason string
)

var delayCmd = &cobra.Command{
	Use:   "delay",
	Short: "Manage delay reports",
}

var delayAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a delay report for the next re-optimization",
	RunE:  runDelayAdd,
}

var delayLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List delay reports",
	RunE:  runDelayLs,
}

func init() {
	delayAddCmd.Flags().StringVar(&delayModule, "module", "", "module id")
	delayAddCmd.Flags().StringVar(&delayPhase, "phase", "", "phase: production, transport or installation")
	delayAddCmd.Flags().StringVar(&delayType, "type", "duration_extension", "delay type: duration_extension or start_postponement")
	delayAddCmd.Flags().IntVar(&delayHours, "hours", 0, "delay size in working hours")
	delayAddCmd.Flags().StringVar(&delayReason, "reason", "", "free-form reason")
	_ = delayAddCmd.MarkFlagRequired("module")
	_ = delayAddCmd.MarkFlagRequired("phase")
	_ = delayAddCmd.MarkFlagRequired("hours")
	delayCmd.AddCommand(delayAddCmd, delayLsCmd)
	rootCmd.AddCommand(delayCmd)
}

func runDelayAdd(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	phase, err := model.ParsePhase(delayPhase)
	if err != nil {
		return err
	}
	typ, err := model.ParseDelayType(delayType)
	if err != nil {
		return err
	}

	svc, cfg, err := newService()
	if err != nil {
		return err
	}
	defer closeService(svc)

	proj, err := projectFor(ctx, svc)
	if err != nil {
		return err
	}
	if _, ok := proj.ModuleByID(delayModule); !ok {
		return fmt.Errorf("project %q has no module %q", proj.Name, delayModule)
	}

	now := time.Now().UTC()
	rec := model.DelayRecord{
		ID:            uuid.NewString(),
		ModuleID:      delayModule,
		Phase:         phase,
		Type:          typ,
		Hours:         delayHours,
		DetectedAt:    now,
		DetectedIndex: slotAt(cfg.Calendar, proj, now),
		Reason:        delayReason,
	}
	if err := svc.Store.AddDelay(ctx, proj.ID, rec); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "recorded delay %s: %s %s %s +%dh\n",
		rec.ID, rec.ModuleID, rec.Phase, rec.Type, rec.Hours)
	return nil
}

func runDelayLs(cmd *cobra.Command, args []string) error {
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
	recs, err := svc.Store.Delays(ctx, proj.ID)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	for _, rec := range recs {
		applied := "pending"
		if !rec.Pending() {
			applied = fmt.Sprintf("applied in v%d", rec.AppliedVersion)
		}
		fmt.Fprintf(w, "%s  %-12s %-12s %-19s +%dh  detected %s (slot %d)  %s\n",
			rec.ID, rec.ModuleID, rec.Phase, rec.Type, rec.Hours,
			rec.DetectedAt.Format(time.RFC3339), rec.DetectedIndex, applied)
	}
	if len(recs) == 0 {
		fmt.Fprintln(w, "no delay reports")
	}
	return nil
}

// slotAt maps a wall-clock time onto the project's slot grid, 0 when the time
// falls outside it.
func slotAt(calCfg calendar.Config, proj model.Project, at time.Time) int {
	horizon := calCfg.Horizon
	if horizon < 1 {
		horizon = calCfg.EstimateHorizon(proj.Start, proj.TargetEnd)
	}
	cal, err := calendar.New(calCfg, proj.Start, horizon)
	if err != nil {
		return 0
	}
	idx, ok := cal.IndexOf(at)
	if !ok {
		return 0
	}
	return idx
}
