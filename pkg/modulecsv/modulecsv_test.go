package modulecsv

import (
	"strings"
	"testing"

	"github.com/earnor/look-ahead-planning/core/model"
)

const sample = `Module ID,Production Duration,Transportation Duration,Installation Duration,Installation Precedence
M1,4,2,3,
M2,2,2,5,M1
M3,3,1,2,M1; M2
`

func TestParse(t *testing.T) {
	modules, edges, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []model.Module{
		{Index: 1, ID: "M1", ProductionHours: 4, TransportHours: 2, InstallationHours: 3},
		{Index: 2, ID: "M2", ProductionHours: 2, TransportHours: 2, InstallationHours: 5},
		{Index: 3, ID: "M3", ProductionHours: 3, TransportHours: 1, InstallationHours: 2},
	}
	if len(modules) != len(want) {
		t.Fatalf("expected %d modules, got %d", len(want), len(modules))
	}
	for i, m := range want {
		if modules[i] != m {
			t.Errorf("module %d mismatch: %+v", i, modules[i])
		}
	}
	wantEdges := []model.Edge{{Pred: 1, Succ: 2}, {Pred: 1, Succ: 3}, {Pred: 2, Succ: 3}}
	if len(edges) != len(wantEdges) {
		t.Fatalf("expected %d edges, got %d", len(wantEdges), len(edges))
	}
	for i, e := range wantEdges {
		if edges[i] != e {
			t.Errorf("edge %d mismatch: %+v", i, edges[i])
		}
	}

	proj := model.Project{Name: "import", Modules: modules, Edges: edges}
	if err := proj.Validate(); err != nil {
		t.Errorf("parsed project does not validate: %v", err)
	}
}

func TestParseHeaderOrder(t *testing.T) {
	data := `Installation Precedence,Installation Duration,Module ID,Transportation Duration,Production Duration
,3,M1,2,4
M1,5,M2,2,2
`
	modules, edges, err := Parse(strings.NewReader(data))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if modules[0].ID != "M1" || modules[0].ProductionHours != 4 || modules[0].InstallationHours != 3 {
		t.Errorf("module 1 mismatch: %+v", modules[0])
	}
	if len(edges) != 1 || edges[0] != (model.Edge{Pred: 1, Succ: 2}) {
		t.Errorf("edges mismatch: %+v", edges)
	}
}

func TestParseHeaderOnly(t *testing.T) {
	data := "Module ID,Production Duration,Transportation Duration,Installation Duration,Installation Precedence\n"
	modules, edges, err := Parse(strings.NewReader(data))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(modules) != 0 || len(edges) != 0 {
		t.Errorf("expected empty result, got %d modules %d edges", len(modules), len(edges))
	}
}

func TestParseRejects(t *testing.T) {
	const header = "Module ID,Production Duration,Transportation Duration,Installation Duration,Installation Precedence\n"
	cases := []struct {
		name string
		data string
		want string
	}{
		{
			name: "missing column",
			data: "Module ID,Production Duration,Transportation Duration,Installation Duration\nM1,4,2,3\n",
			want: `missing column "Installation Precedence"`,
		},
		{
			name: "duplicate id",
			data: header + "M1,4,2,3,\nM1,2,2,5,\n",
			want: `duplicate module id "M1"`,
		},
		{
			name: "empty id",
			data: header + ",4,2,3,\n",
			want: "module id is empty",
		},
		{
			name: "zero duration",
			data: header + "M1,0,2,3,\n",
			want: "production duration",
		},
		{
			name: "negative duration",
			data: header + "M1,4,-1,3,\n",
			want: "transportation duration",
		},
		{
			name: "fractional duration",
			data: header + "M1,4,2,2.5,\n",
			want: "installation duration",
		},
		{
			name: "unknown predecessor",
			data: header + "M1,4,2,3,M9\n",
			want: `unknown predecessor "M9"`,
		},
		{
			name: "self precedence",
			data: header + "M1,4,2,3,M1\n",
			want: `module "M1" cannot precede itself`,
		},
		{
			name: "ragged row",
			data: header + "M1,4,2\n",
			want: "line 2",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, _, err := Parse(strings.NewReader(c.data))
			if err == nil || !strings.Contains(err.Error(), c.want) {
				t.Fatalf("expected %q error, got %v", c.want, err)
			}
		})
	}
}
