package core

import (
	"context"
	"errors"
	"testing"

	"clonetrack/pkg/domain"
)

func TestDefaultRulesEngineRegistersBuiltins(t *testing.T) {
	got := NewDefaultRulesEngine().Rules()
	want := []string{"lineage_integrity", "well_label", "storage_occupancy"}
	if !equalStrings(got, want) {
		t.Fatalf("unexpected rules %v", got)
	}
}

func TestLineageRuleBlocksOrphanClones(t *testing.T) {
	svc := newTestService(t)
	seedProject(t, svc, buildProject(t, "P1", constructSeed{"C1", 1}, constructSeed{"C2", 1}))

	cases := []struct {
		name   string
		origin string
		owner  string
	}{
		{"missing origin", "", "C1"},
		{"unknown origin", "C1_9", "C1"},
		{"origin from other construct", "C2_1", "C1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conj := domain.NewConjugationProject("P1")
			conj.AddConstruct(tc.owner, domain.Properties{})
			if _, err := conj.AddClone(tc.owner, Clone{ID: "X", Origin: tc.origin, Conjugation: &Location{Plate: 1, Position: "A1"}}); err != nil {
				t.Fatalf("add clone: %v", err)
			}
			_, err := svc.Store().RunInTransaction(context.Background(), func(tx Transaction) error {
				_, err := tx.CreateProject(conj)
				return err
			})
			var violation RuleViolationError
			if !errors.As(err, &violation) || violation.Result.Violations[0].Rule != "lineage_integrity" {
				t.Fatalf("expected lineage violation, got %v", err)
			}
			if _, ok := svc.GetProject("P1_conjugation"); ok {
				t.Fatalf("blocked transaction must not commit")
			}
		})
	}
}

func TestLineageRuleRequiresParent(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Store().RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.CreateProject(domain.NewConjugationProject("ghost"))
		return err
	})
	var violation RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected violation for missing parent, got %v", err)
	}
}

func TestWellLabelRuleBlocksInvalidStorage(t *testing.T) {
	svc := newTestService(t)
	p := buildProject(t, "P1", constructSeed{"C1", 1})
	c, _ := p.FindClone("C1_1")
	c.Storage = &Location{Plate: 1, Position: "Z99"}
	_, err := svc.Store().RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.CreateProject(p)
		return err
	})
	var violation RuleViolationError
	if !errors.As(err, &violation) || violation.Result.Violations[0].Rule != "well_label" {
		t.Fatalf("expected well_label violation, got %v", err)
	}
}

func TestStorageOccupancyRuleWarns(t *testing.T) {
	svc := newTestService(t)
	p := buildProject(t, "P1", constructSeed{"C1", 2})
	for _, c := range p.Clones() {
		c.Storage = &Location{Plate: 1, Position: "A1"}
	}
	res, err := svc.Store().RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.CreateProject(p)
		return err
	})
	if err != nil {
		t.Fatalf("warnings must not block: %v", err)
	}
	if len(res.Violations) != 1 || res.Violations[0].Severity != SeverityWarn || res.Violations[0].EntityID != "C1_2" {
		t.Fatalf("unexpected result %+v", res)
	}
}
