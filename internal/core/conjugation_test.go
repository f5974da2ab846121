package core

import (
	"errors"
	"testing"

	"clonetrack/internal/tabular"
	"clonetrack/pkg/domain"
	"clonetrack/pkg/plate"
)

func TestConjugationTemplateRoundRobin(t *testing.T) {
	parent := buildProject(t, "P1", constructSeed{"C1", 3}, constructSeed{"C2", 1}, constructSeed{"C3", 2})
	setOutcome(t, parent, StagePCR, OutcomeSuccess, "C1_1", "C1_3", "C2_1")
	setOutcome(t, parent, StagePCR, OutcomeFail, "C3_1", "C3_2")

	tbl, err := ConjugationTemplate(parent, DefaultConjugationOptions())
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	if tbl.Len() != plate.Capacity {
		t.Fatalf("expected a full plate, got %d rows", tbl.Len())
	}
	wantClones := []string{"C1_1", "C2_1", "C1_3", "C1_1", "C2_1", "C1_3"}
	wantWells := []string{"A1", "B1", "C1", "D1", "E1", "F1"}
	for i := range wantClones {
		r := tbl.Row(i)
		if r.Get(ColClone).String() != wantClones[i] || r.Get(ColConjugationPosition).String() != wantWells[i] {
			t.Fatalf("row %d: got %s at %s, want %s at %s", i, r.Get(ColClone), r.Get(ColConjugationPosition), wantClones[i], wantWells[i])
		}
	}
	if got := tbl.Row(8).Get(ColConjugationPosition).String(); got != "A2" {
		t.Fatalf("expected column-major wrap to A2, got %s", got)
	}
	for _, r := range tbl.Rows() {
		if r.Get(ColConstruct).String() == "C3" {
			t.Fatalf("failed construct must not be conjugated")
		}
	}

	two, err := ConjugationTemplate(parent, ConjugationOptions{Plates: 2, Predicates: Predicates{PCR: true}})
	if err != nil {
		t.Fatalf("two plates: %v", err)
	}
	if two.Len() != 2*plate.Capacity || two.Row(96).Get(ColConjugationPlate).String() != "2" {
		t.Fatalf("expected second plate rows, got %d", two.Len())
	}
}

func TestConjugationTemplateErrors(t *testing.T) {
	parent := buildProject(t, "P1", constructSeed{"C1", 2})
	_, err := ConjugationTemplate(parent, DefaultConjugationOptions())
	var none domain.NoEligibleItemsError
	if !errors.As(err, &none) || none.Stage != StageConjugation {
		t.Fatalf("expected NoEligibleItemsError, got %v", err)
	}
	conj := domain.NewConjugationProject("P1")
	_, err = ConjugationTemplate(conj, ConjugationOptions{})
	var kind domain.ProjectKindError
	if !errors.As(err, &kind) {
		t.Fatalf("expected ProjectKindError, got %v", err)
	}
}

func conjugationSheet(rows ...tabular.Row) *tabular.Table {
	t := tabular.New(ColConstruct, ColClone, ColConjugationPlate, ColConjugationPosition, ColNumberOfClones)
	for _, r := range rows {
		t.Append(r)
	}
	return t
}

func conjRow(construct, clone string, n int) tabular.Row {
	return tabular.Row{
		ColConstruct:           domain.StringValue(construct),
		ColClone:               domain.StringValue(clone),
		ColConjugationPlate:    domain.IntValue(1),
		ColConjugationPosition: domain.StringValue("A1"),
		ColNumberOfClones:      domain.IntValue(n),
	}
}

func TestIngestConjugationCreatesLinkedClones(t *testing.T) {
	parent := buildProject(t, "P1", constructSeed{"C1", 2}, constructSeed{"C2", 1})
	c1, _ := parent.FindConstruct("C1")
	c1.Properties.Set("promoter", domain.StringValue("pTet"))
	conj := domain.NewConjugationProject("P1")

	summary, err := IngestConjugation(conj, parent, conjugationSheet(conjRow("C1", "C1_2", 2), conjRow("C2", "C2_1", 0)))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if summary.Created != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if _, ok := conj.FindConstruct("C2"); ok {
		t.Fatalf("rows without clones must not create constructs")
	}
	target, _ := conj.FindConstruct("C1")
	if v, _ := target.Properties.Get("promoter"); v.String() != "pTet" {
		t.Fatalf("expected inherited properties, got %v", v)
	}
	if _, err := IngestConjugation(conj, parent, conjugationSheet(conjRow("C1", "C1_1", 1))); err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	c, ok := conj.FindClone("C1_Conj_3")
	if !ok || c.Origin != "C1_1" {
		t.Fatalf("expected numbering to continue, got %+v", c)
	}
}

func TestIngestConjugationRejectsBadRows(t *testing.T) {
	parent := buildProject(t, "P1", constructSeed{"C1", 1}, constructSeed{"C2", 1})
	cases := []struct {
		name  string
		row   tabular.Row
		check func(error) bool
	}{
		{"unknown construct", conjRow("C9", "C1_1", 1), func(err error) bool {
			var e domain.UnknownConstructError
			return errors.As(err, &e)
		}},
		{"unknown clone", conjRow("C1", "C1_9", 1), func(err error) bool {
			var e domain.UnknownCloneError
			return errors.As(err, &e)
		}},
		{"foreign clone", conjRow("C1", "C2_1", 1), func(err error) bool {
			var e domain.InvalidRowError
			return errors.As(err, &e) && e.Column == ColClone
		}},
		{"missing location", tabular.Row{
			ColConstruct:      domain.StringValue("C1"),
			ColClone:          domain.StringValue("C1_1"),
			ColNumberOfClones: domain.IntValue(1),
		}, func(err error) bool {
			var e domain.InvalidRowError
			return errors.As(err, &e) && e.Column == ColConjugationPlate
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conj := domain.NewConjugationProject("P1")
			_, err := IngestConjugation(conj, parent, conjugationSheet(tc.row))
			if err == nil || !tc.check(err) {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}

	other := domain.NewConjugationProject("P2")
	if _, err := IngestConjugation(other, parent, conjugationSheet()); err == nil {
		t.Fatalf("expected parent mismatch error")
	}
}

func TestGrowthTemplateUsesConjugationLocations(t *testing.T) {
	parent := buildProject(t, "P1", constructSeed{"C1", 1})
	conj := domain.NewConjugationProject("P1")
	if _, err := IngestConjugation(conj, parent, conjugationSheet(conjRow("C1", "C1_1", 2))); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	tbl, err := GrowthTemplate(conj, ScreeningOptions{UseMTP: true, MaxClones: 1})
	if err != nil {
		t.Fatalf("growth template: %v", err)
	}
	if tbl.Len() != 1 {
		t.Fatalf("expected capped template, got %d rows", tbl.Len())
	}
	r := tbl.Row(0)
	if r.Get(ColConjugationPosition).String() != "A1" || r.Get(ColGrowthPlatePosition).String() != "A1" || r.Get(ColGrowthIdentifier).String() != "1" {
		t.Fatalf("unexpected growth row %v", r)
	}
	flat := Flatten(conj)
	if !flat.HasColumn(ColOrigin) || flat.HasColumn(ColPCRResult) {
		t.Fatalf("unexpected conjugation export columns %v", flat.Columns())
	}
}
