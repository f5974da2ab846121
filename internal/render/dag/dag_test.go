package dag

import (
	"strings"
	"testing"

	"clonetrack/pkg/domain"
)

func primaryProject(t *testing.T) *domain.Project {
	t.Helper()
	p := domain.NewProject("P1")
	props, err := domain.NewProperties("promoter", "pTet")
	if err != nil {
		t.Fatalf("properties: %v", err)
	}
	p.AddConstruct("C1", props)
	p.AddConstruct("C2", domain.Properties{})
	for _, c := range []domain.Clone{
		{ID: "C1_1", PCR: domain.OutcomeSuccess, Storage: &domain.Location{Plate: 1, Position: "A1"}},
		{ID: "C1_2", PCR: domain.OutcomeFail},
	} {
		if _, err := p.AddClone("C1", c); err != nil {
			t.Fatalf("add clone: %v", err)
		}
	}
	if _, err := p.AddClone("C2", domain.Clone{ID: "C2_1"}); err != nil {
		t.Fatalf("add clone: %v", err)
	}
	return p
}

func TestRenderPrimaryHighlightsStoredTrail(t *testing.T) {
	g := Render(primaryProject(t), nil, Options{Properties: []string{"promoter"}})

	for _, id := range []string{"C1", "C2", "pTet", "C1_1"} {
		if _, ok := g.FindNodeById(id); !ok {
			t.Fatalf("expected node %s", id)
		}
	}
	if _, ok := g.FindNodeById("C1_2"); ok {
		t.Fatalf("unstored clones are not drawn")
	}
	for id, color := range map[string]string{"C1": HighlightColor, "C1_1": HighlightColor, "pTet": HighlightColor, "C2": DefaultColor} {
		n, _ := g.FindNodeById(id)
		if got := n.Value("color"); got != color {
			t.Fatalf("node %s color %v, want %s", id, got, color)
		}
	}
	c1, _ := g.FindNodeById("C1")
	if label, _ := c1.Value("label").(string); !strings.Contains(label, "Clones obtained: 2") || !strings.Contains(label, "PCR positive: 1") {
		t.Fatalf("unexpected construct label %q", label)
	}
	clone, _ := g.FindNodeById("C1_1")
	prop, _ := g.FindNodeById("pTet")
	if len(g.FindEdges(c1, clone)) != 1 || len(g.FindEdges(prop, c1)) != 1 {
		t.Fatalf("expected property -> construct -> clone edges")
	}
	if !strings.Contains(g.String(), "rankdir") {
		t.Fatalf("expected left-to-right layout")
	}
}

func TestRenderFiltersAndDisablesHighlight(t *testing.T) {
	g := Render(primaryProject(t), nil, Options{Constructs: []string{"C2"}, NoHighlight: true})
	if _, ok := g.FindNodeById("C1"); ok {
		t.Fatalf("filtered construct must be skipped")
	}
	n, ok := g.FindNodeById("C2")
	if !ok || n.Value("color") != DefaultColor {
		t.Fatalf("expected plain C2 node")
	}
}

func TestRenderConjugationUsesParentProperties(t *testing.T) {
	parent := primaryProject(t)
	conj := domain.NewConjugationProject("P1")
	conj.AddConstruct("C1", domain.Properties{})
	for _, c := range []domain.Clone{
		{ID: "C1_Conj_1", Origin: "C1_1", Growth: domain.OutcomeSuccess, Storage: &domain.Location{Plate: 1, Position: "A1"}},
		{ID: "C1_Conj_2", Origin: "C1_1", Growth: domain.OutcomeFail},
	} {
		if _, err := conj.AddClone("C1", c); err != nil {
			t.Fatalf("add clone: %v", err)
		}
	}
	g := Render(conj, parent, Options{Properties: []string{"promoter"}})

	hub, ok := g.FindNodeById(ConjugationNodeID("C1"))
	if !ok {
		t.Fatalf("expected conjugation node")
	}
	if label, _ := hub.Value("label").(string); !strings.Contains(label, "Clones: 2, Growth positive: 1") {
		t.Fatalf("unexpected conjugation label %q", label)
	}
	if hub.Value("color") != HighlightColor {
		t.Fatalf("conjugation node must be on the highlighted trail")
	}
	clone, _ := g.FindNodeById("C1_Conj_1")
	construct, _ := g.FindNodeById("C1")
	if len(g.FindEdges(hub, clone)) != 1 || len(g.FindEdges(construct, hub)) != 1 {
		t.Fatalf("expected construct -> conjugation -> clone edges")
	}
	if _, ok := g.FindNodeById("pTet"); !ok {
		t.Fatalf("expected parent property node")
	}
}
