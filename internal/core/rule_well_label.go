package core

import (
	"context"
	"fmt"

	"clonetrack/pkg/domain"
	"clonetrack/pkg/plate"
)

// WellLabelRule blocks storage and conjugation locations outside the 8x12 grid.
func WellLabelRule() domain.Rule {
	return wellLabelRule{}
}

type wellLabelRule struct{}

func (wellLabelRule) Name() string { return "well_label" }

func (wellLabelRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, p := range changedProjects(view, changes) {
		for _, clone := range p.Clones() {
			for _, l := range []struct {
				stage Stage
				loc   *Location
			}{{StageConjugation, clone.Conjugation}, {StageStorage, clone.Storage}} {
				stage, loc := l.stage, l.loc
				if loc == nil {
					continue
				}
				if loc.Plate >= 1 && plate.ValidWell(loc.Position) {
					continue
				}
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "well_label",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("clone %s has invalid %s location plate %d well %q", clone.ID, stage, loc.Plate, loc.Position),
					Entity:   domain.EntityClone,
					EntityID: clone.ID,
				})
			}
		}
	}
	return res, nil
}
