package core

import (
	"context"
	"fmt"
	"testing"

	"clonetrack/internal/blob"
	"clonetrack/internal/tabular"
	"clonetrack/internal/workbook"
	"clonetrack/pkg/domain"
)

func newTestService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()
	wb := workbook.New(blob.NewMemory(), tabular.FormatCSV)
	return NewInMemoryService(NewDefaultRulesEngine(), append([]ServiceOption{WithWorkbook(wb)}, opts...)...)
}

type constructSeed struct {
	id     string
	clones int
}

// buildProject creates a primary project whose clones are named <construct>_<n>.
func buildProject(t *testing.T, name string, seeds ...constructSeed) *Project {
	t.Helper()
	p := domain.NewProject(name)
	for _, seed := range seeds {
		if _, ok := p.AddConstruct(seed.id, domain.Properties{}); !ok {
			t.Fatalf("duplicate construct %s", seed.id)
		}
		for i := 1; i <= seed.clones; i++ {
			if _, err := p.AddClone(seed.id, Clone{ID: fmt.Sprintf("%s_%d", seed.id, i), Agar: &Location{Plate: 1, Position: "A1"}}); err != nil {
				t.Fatalf("add clone: %v", err)
			}
		}
	}
	return p
}

func setOutcome(t *testing.T, p *Project, stage Stage, outcome Outcome, ids ...string) {
	t.Helper()
	for _, id := range ids {
		c, ok := p.FindClone(id)
		if !ok {
			t.Fatalf("clone %s not found", id)
		}
		if err := c.SetOutcome(stage, outcome); err != nil {
			t.Fatalf("set outcome: %v", err)
		}
	}
}

// putSheet replaces the named workbook with tbl.
func putSheet(t *testing.T, svc *Service, name string, tbl *tabular.Table) {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.Workbook().Remove(ctx, name); err != nil {
		t.Fatalf("remove %s: %v", name, err)
	}
	if _, err := svc.Workbook().Write(ctx, name, tbl, nil); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

// fillSheet reads src, applies fill to every row and stores the result under dst.
func fillSheet(t *testing.T, svc *Service, src, dst string, fill func(i int, row tabular.Row)) {
	t.Helper()
	tbl, err := svc.Workbook().Read(context.Background(), src)
	if err != nil {
		t.Fatalf("read %s: %v", src, err)
	}
	for i := 0; i < tbl.Len(); i++ {
		fill(i, tbl.Row(i))
	}
	putSheet(t, svc, dst, tbl)
}

func cloneIDs(t *tabular.Table) []string {
	out := make([]string, 0, t.Len())
	for _, row := range t.Rows() {
		out = append(out, row.Get(ColClone).String())
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type fixedSampler []int

func (f fixedSampler) Perm(n int) []int {
	out := make([]int, n)
	copy(out, f)
	return out
}

// seedProject stores p through the service's store, replacing any project of the same name.
func seedProject(t *testing.T, svc *Service, p *Project) {
	t.Helper()
	_, err := svc.Store().RunInTransaction(context.Background(), func(tx Transaction) error {
		if _, ok := tx.FindProject(p.Name); ok {
			if err := tx.DeleteProject(p.Name); err != nil {
				return err
			}
		}
		_, err := tx.CreateProject(p)
		return err
	})
	if err != nil {
		t.Fatalf("seed %s: %v", p.Name, err)
	}
}
