// Package modulecsv parses the module-list CSV that seeds a project: one row
// per module with phase durations in working hours and the installation
// precedence as semicolon-separated predecessor module IDs.
package modulecsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/earnor/look-ahead-planning/core/model"
)

// Columns required in the header row. Order does not matter.
var requiredColumns = []string{
	"Module ID",
	"Production Duration",
	"Transportation Duration",
	"Installation Duration",
	"Installation Precedence",
}

// Parse reads the CSV and returns the modules indexed 1..N in file order
// together with the precedence edges. Duplicate module IDs, unknown or
// self-referencing predecessors and non-positive durations are errors.
func Parse(r io.Reader) ([]model.Module, []model.Edge, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", name)
		}
	}

	var modules []model.Module
	var rawPreds []string
	indexByID := make(map[string]int)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", line, err)
		}
		id := strings.TrimSpace(rec[col["Module ID"]])
		if id == "" {
			return nil, nil, fmt.Errorf("line %d: module id is empty", line)
		}
		if _, dup := indexByID[id]; dup {
			return nil, nil, fmt.Errorf("line %d: duplicate module id %q", line, id)
		}
		prod, err := parseHours(rec[col["Production Duration"]])
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: production duration: %w", line, err)
		}
		trans, err := parseHours(rec[col["Transportation Duration"]])
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: transportation duration: %w", line, err)
		}
		inst, err := parseHours(rec[col["Installation Duration"]])
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: installation duration: %w", line, err)
		}
		modules = append(modules, model.Module{
			Index:             len(modules) + 1,
			ID:                id,
			ProductionHours:   prod,
			TransportHours:    trans,
			InstallationHours: inst,
		})
		indexByID[id] = len(modules)
		rawPreds = append(rawPreds, rec[col["Installation Precedence"]])
	}

	var edges []model.Edge
	for i, raw := range rawPreds {
		succ := modules[i]
		for _, part := range strings.Split(raw, ";") {
			pid := strings.TrimSpace(part)
			if pid == "" {
				continue
			}
			pred, ok := indexByID[pid]
			if !ok {
				return nil, nil, fmt.Errorf("module %q: unknown predecessor %q", succ.ID, pid)
			}
			if pred == succ.Index {
				return nil, nil, fmt.Errorf("module %q cannot precede itself", succ.ID)
			}
			edges = append(edges, model.Edge{Pred: pred, Succ: succ.Index})
		}
	}
	return modules, edges, nil
}

func parseHours(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("not a whole number of hours: %q", s)
	}
	if v < 1 {
		return 0, fmt.Errorf("must be >= 1, got %d", v)
	}
	return v, nil
}
