package core

import (
	"fmt"

	"clonetrack/internal/tabular"
	"clonetrack/pkg/domain"
	"clonetrack/pkg/plate"
)

// ConjugationOptions configure the conjugation run template.
type ConjugationOptions struct {
	// Plates is the number of 96-well conjugation plates to fill; zero means one.
	Plates int
	// Predicates select the parent clones eligible for conjugation.
	Predicates Predicates
}

// DefaultConjugationOptions fills one plate with PCR-positive clones.
func DefaultConjugationOptions() ConjugationOptions {
	return ConjugationOptions{Plates: 1, Predicates: Predicates{PCR: true}}
}

type conjugationPick struct {
	construct string
	clone     string
}

// ConjugationTemplate fills every well of the requested plates with validated
// clones of the parent project. Constructs are visited round-robin (the k-th
// passing clone of each construct, then the k+1-th) and the walk wraps around
// once every construct is exhausted, so each construct gets at least one well
// when there is room. Wells are numbered column-major.
func ConjugationTemplate(parent *Project, opts ConjugationOptions) (*tabular.Table, error) {
	if err := requireKind(parent, domain.ProjectPrimary); err != nil {
		return nil, err
	}
	plates := opts.Plates
	if plates <= 0 {
		plates = 1
	}
	var groups [][]conjugationPick
	for _, construct := range parent.Constructs() {
		var passing []conjugationPick
		for _, clone := range construct.Clones() {
			if opts.Predicates.Match(clone) {
				passing = append(passing, conjugationPick{construct: construct.ID, clone: clone.ID})
			}
		}
		if len(passing) > 0 {
			groups = append(groups, passing)
		}
	}
	if len(groups) == 0 {
		return nil, domain.NoEligibleItemsError{Stage: StageConjugation, Project: parent.Name}
	}

	slots := plates * plate.Capacity
	picks := make([]conjugationPick, 0, slots)
	for k := 0; len(picks) < slots; {
		round := 0
		for _, g := range groups {
			if k >= len(g) {
				continue
			}
			picks = append(picks, g[k])
			round++
			if len(picks) == slots {
				break
			}
		}
		if round == 0 {
			k = 0
			continue
		}
		k++
	}

	t := tabular.New(ColConstruct, ColClone, ColConjugationPlate, ColConjugationPosition, ColNumberOfClones)
	for i, pick := range picks {
		coord, err := plate.Assign(i+1, plate.Capacity, plate.ColumnMajor)
		if err != nil {
			return nil, err
		}
		t.Append(tabular.Row{
			ColConstruct:           domain.StringValue(pick.construct),
			ColClone:               domain.StringValue(pick.clone),
			ColConjugationPlate:    domain.IntValue(coord.Plate),
			ColConjugationPosition: domain.StringValue(coord.Well),
		})
	}
	return t, nil
}

// IngestConjugation creates number_of_clones conjugation clones per row,
// named <construct>_Conj_<n>, each remembering the parent clone it came from.
// Constructs are created on first sight and inherit the parent's properties.
// Rows without a clone count are skipped.
func IngestConjugation(conj, parent *Project, t *tabular.Table) (IngestSummary, error) {
	var summary IngestSummary
	if err := requireKind(conj, domain.ProjectConjugation); err != nil {
		return summary, err
	}
	if conj.Parent != parent.Name {
		return summary, fmt.Errorf("project %q is not the conjugation project of %q", conj.Name, parent.Name)
	}
	if err := requireColumns(t, ColConstruct, ColClone, ColConjugationPlate, ColConjugationPosition, ColNumberOfClones); err != nil {
		return summary, err
	}
	for i, row := range t.Rows() {
		n, err := optionalCount(row, i, ColNumberOfClones)
		if err != nil {
			return summary, err
		}
		if n == 0 {
			continue
		}
		constructID, err := requiredText(row, i, ColConstruct)
		if err != nil {
			return summary, err
		}
		origin, err := requiredText(row, i, ColClone)
		if err != nil {
			return summary, err
		}
		source, ok := parent.FindConstruct(constructID)
		if !ok {
			return summary, domain.UnknownConstructError{ID: constructID, Project: parent.Name}
		}
		if _, ok := parent.FindClone(origin); !ok {
			return summary, domain.UnknownCloneError{ID: origin, Project: parent.Name}
		}
		if owner, _ := parent.ConstructOf(origin); owner.ID != constructID {
			return summary, domain.InvalidRowError{Row: rowNumber(i), Column: ColClone, Reason: fmt.Sprintf("clone %s belongs to construct %s", origin, owner.ID)}
		}
		loc, err := optionalLocation(row, i, ColConjugationPlate, ColConjugationPosition)
		if err != nil {
			return summary, err
		}
		if loc == nil {
			return summary, domain.InvalidRowError{Row: rowNumber(i), Column: ColConjugationPlate, Reason: "conjugation location is required"}
		}
		target, ok := conj.FindConstruct(constructID)
		if !ok {
			target, _ = conj.AddConstruct(constructID, source.Properties)
		}
		next := target.CloneCount()
		for k := 1; k <= n; k++ {
			clone := Clone{ID: fmt.Sprintf("%s_Conj_%d", constructID, next+k), Origin: origin, Conjugation: loc}
			if _, err := conj.AddClone(constructID, clone); err != nil {
				return summary, err
			}
			summary.Created++
		}
	}
	return summary, nil
}

func requireKind(p *Project, want ProjectKind) error {
	if p.Kind != want {
		return domain.ProjectKindError{Project: p.Name, Want: want, Got: p.Kind}
	}
	return nil
}
