package core

import (
	"fmt"

	"clonetrack/internal/tabular"
	"clonetrack/pkg/domain"
)

// TransformationTemplate lists every construct with blank agar and count cells.
func TransformationTemplate(p *Project) (*tabular.Table, error) {
	constructs := p.Constructs()
	if len(constructs) == 0 {
		return nil, domain.NoEligibleItemsError{Stage: StageTransformation, Project: p.Name}
	}
	t := tabular.New(ColIdentifier, ColAgarPlateNumber, ColAgarPlatePosition, ColNumberOfClones)
	for _, c := range constructs {
		t.Append(tabular.Row{ColIdentifier: domain.StringValue(c.ID)})
	}
	return t, nil
}

// IngestTransformation synthesises number_of_clones clones per row, named
// <construct>_<n>. Numbering continues after the construct's existing clones.
func IngestTransformation(p *Project, t *tabular.Table) (IngestSummary, error) {
	var summary IngestSummary
	if err := requireColumns(t, ColIdentifier, ColAgarPlateNumber, ColAgarPlatePosition, ColNumberOfClones); err != nil {
		return summary, err
	}
	for i, row := range t.Rows() {
		id, err := requiredText(row, i, ColIdentifier)
		if err != nil {
			return summary, err
		}
		construct, ok := p.FindConstruct(id)
		if !ok {
			return summary, domain.UnknownConstructError{ID: id, Project: p.Name}
		}
		n, err := optionalCount(row, i, ColNumberOfClones)
		if err != nil {
			return summary, err
		}
		if n == 0 {
			continue
		}
		agar, err := optionalLocation(row, i, ColAgarPlateNumber, ColAgarPlatePosition)
		if err != nil {
			return summary, err
		}
		next := construct.CloneCount()
		for k := 1; k <= n; k++ {
			clone := Clone{ID: fmt.Sprintf("%s_%d", construct.ID, next+k), Agar: agar}
			if _, err := p.AddClone(construct.ID, clone); err != nil {
				return summary, err
			}
			summary.Created++
		}
	}
	return summary, nil
}
