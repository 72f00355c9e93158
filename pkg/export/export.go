// Package export renders a solved schedule for downstream tooling.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/earnor/look-ahead-planning/core/model"
)

// WriteJSON writes the full solution to w in JSON format.
func WriteJSON(w io.Writer, sol model.Solution) error {
	enc := json.NewEncoder(w)
	return enc.Encode(sol)
}

// WriteCSV writes the schedule to w in CSV format, one row per module with
// every phase start, duration and wait in slot indices.
func WriteCSV(w io.Writer, sol model.Solution) error {
	cw := csv.NewWriter(w)
	header := []string{
		"module_id",
		"production_start", "production_duration",
		"factory_wait_start", "factory_wait_duration",
		"transport_start", "transport_duration",
		"arrival_time",
		"site_wait_start", "site_wait_duration",
		"installation_start", "installation_duration",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, m := range sol.Modules {
		rec := []string{
			m.ID,
			strconv.Itoa(m.ProductionStart), strconv.Itoa(m.ProductionDuration),
			strconv.Itoa(m.FactoryWaitStart), strconv.Itoa(m.FactoryWaitDuration),
			strconv.Itoa(m.TransportStart), strconv.Itoa(m.TransportDuration),
			strconv.Itoa(m.ArrivalTime),
			strconv.Itoa(m.SiteWaitStart), strconv.Itoa(m.SiteWaitDuration),
			strconv.Itoa(m.InstallationStart), strconv.Itoa(m.InstallationDuration),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
