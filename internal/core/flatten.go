package core

import (
	"clonetrack/internal/tabular"
	"clonetrack/pkg/domain"
)

// Flatten renders the project as one row per clone: the construct identifier,
// its properties, then the clone columns of the project kind. A construct
// without clones still gets a row carrying only its own columns.
func Flatten(p *Project) *tabular.Table {
	return flatten(p, nil)
}

// flatten emits rows for clones accepted by keep. A nil keep exports every
// clone plus construct-only rows.
func flatten(p *Project, keep func(*Clone) bool) *tabular.Table {
	keys := propertyKeys(p)
	cloneCols := primaryCloneColumns
	if p.Kind == domain.ProjectConjugation {
		cloneCols = conjugationCloneColumns
	}
	header := append([]string{ColConstruct}, keys...)
	header = append(header, cloneCols...)
	t := tabular.New(header...)

	for _, construct := range p.Constructs() {
		base := tabular.Row{ColConstruct: domain.StringValue(construct.ID)}
		for _, k := range keys {
			if v, ok := construct.Properties.Get(k); ok {
				base[k] = v
			}
		}
		clones := construct.Clones()
		if len(clones) == 0 {
			if keep == nil {
				t.Append(base)
			}
			continue
		}
		for _, clone := range clones {
			if keep != nil && !keep(clone) {
				continue
			}
			row := make(tabular.Row, len(base)+len(cloneCols))
			for k, v := range base {
				row[k] = v
			}
			fillCloneColumns(row, clone, p.Kind)
			t.Append(row)
		}
	}
	return t
}

var primaryCloneColumns = []string{
	ColClone,
	ColAgarPlateNumber,
	ColAgarPlatePosition,
	ColPCRResult,
	ColSeqResult,
	ColStoragePlateNumber,
	ColStoragePlatePosition,
}

var conjugationCloneColumns = []string{
	ColClone,
	ColOrigin,
	ColConjugationPlate,
	ColConjugationPosition,
	ColGrowthResult,
	ColStoragePlateNumber,
	ColStoragePlatePosition,
}

func fillCloneColumns(row tabular.Row, c *Clone, kind ProjectKind) {
	row[ColClone] = domain.StringValue(c.ID)
	if kind == domain.ProjectConjugation {
		if c.Origin != "" {
			row[ColOrigin] = domain.StringValue(c.Origin)
		}
		row[ColConjugationPlate], row[ColConjugationPosition] = locationCells(c.Conjugation)
		row[ColGrowthResult] = outcomeCell(c.Growth)
	} else {
		row[ColAgarPlateNumber], row[ColAgarPlatePosition] = locationCells(c.Agar)
		row[ColPCRResult] = outcomeCell(c.PCR)
		row[ColSeqResult] = outcomeCell(c.Seq)
	}
	row[ColStoragePlateNumber], row[ColStoragePlatePosition] = locationCells(c.Storage)
}
