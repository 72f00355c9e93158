package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/earnor/look-ahead-planning/core/model"
)

func sampleSolution() model.Solution {
	return model.Solution{
		Version:    1,
		Status:     "optimal",
		Objective:  420,
		FinishTime: 9,
		Horizon:    16,
		Modules: []model.ModulePlan{
			{
				Index: 1, ID: "M1",
				ProductionStart: 1, ProductionDuration: 4,
				FactoryWaitStart: 5, FactoryWaitDuration: 0,
				TransportStart: 5, TransportDuration: 2,
				ArrivalTime: 6,
				SiteWaitStart: 7, SiteWaitDuration: 1,
				InstallationStart: 7, InstallationDuration: 3,
			},
			{
				Index: 2, ID: "M2",
				ProductionStart: 2, ProductionDuration: 2,
				FactoryWaitStart: 4, FactoryWaitDuration: 2,
				TransportStart: 6, TransportDuration: 1,
				ArrivalTime: 6,
				SiteWaitStart: 7, SiteWaitDuration: 0,
				InstallationStart: 10, InstallationDuration: 2,
			},
		},
		OrderTimes: []int{6},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleSolution()); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	want := "module_id,production_start,production_duration," +
		"factory_wait_start,factory_wait_duration," +
		"transport_start,transport_duration,arrival_time," +
		"site_wait_start,site_wait_duration," +
		"installation_start,installation_duration\n" +
		"M1,1,4,5,0,5,2,6,7,1,7,3\n" +
		"M2,2,2,4,2,6,1,6,7,0,10,2\n"
	if buf.String() != want {
		t.Errorf("csv mismatch:\n got %q\nwant %q", buf.String(), want)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleSolution()); err != nil {
		t.Fatalf("write json: %v", err)
	}
	var got model.Solution
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Version != 1 || got.Status != "optimal" || got.FinishTime != 9 {
		t.Errorf("header fields mismatch: %+v", got)
	}
	if len(got.Modules) != 2 || got.Modules[0] != sampleSolution().Modules[0] {
		t.Errorf("modules mismatch: %+v", got.Modules)
	}
	if len(got.OrderTimes) != 1 || got.OrderTimes[0] != 6 {
		t.Errorf("order times mismatch: %+v", got.OrderTimes)
	}
}
