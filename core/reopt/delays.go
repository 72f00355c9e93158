package reopt

import (
	"github.com/earnor/look-ahead-planning/core/logger"
	"github.com/earnor/look-ahead-planning/core/model"
)

// ApplyDelays folds the reported delays into a copy of the prior schedule.
// Duration extensions lengthen the phase duration and accumulate across
// records; start postponements raise the phase's earliest-start bound to the
// planned start plus the reported hours and never lower an existing bound.
// Records naming unknown modules are skipped with a warning. Returns the
// adjusted copy and the number of records applied.
//
// Precedence effects are not propagated here: the re-solve's own precedence
// rows take care of downstream shifts.
func ApplyDelays(prior model.Solution, delays []model.DelayRecord, log logger.Logger) (model.Solution, int) {
	if log == nil {
		log = logger.NopLogger{}
	}
	adjusted := prior.Clone()
	applied := 0
	for _, d := range delays {
		row := adjusted.PlanByID(d.ModuleID)
		if row == nil {
			log.Warnf("reopt: delay %s names unknown module %q, skipped", d.ID, d.ModuleID)
			continue
		}
		switch d.Type {
		case model.DelayDurationExtension:
			row.SetDuration(d.Phase, row.Duration(d.Phase)+d.Hours)
			applied++
		case model.DelayStartPostponement:
			base := row.Start(d.Phase)
			if base < 1 {
				log.Warnf("reopt: delay %s postpones %s of module %q which has no planned start, skipped", d.ID, d.Phase, d.ModuleID)
				continue
			}
			if bound := base + d.Hours; bound > row.EarliestStart(d.Phase) {
				row.SetEarliestStart(d.Phase, bound)
			}
			applied++
		default:
			log.Warnf("reopt: delay %s for module %q has unknown type, skipped", d.ID, d.ModuleID)
		}
	}
	return adjusted, applied
}
