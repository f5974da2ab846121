package core

import (
	"context"
	"fmt"

	"clonetrack/pkg/domain"
)

// LineageIntegrityRule requires every conjugation clone to trace back to a
// clone of the same construct in the parent project.
func LineageIntegrityRule() domain.Rule {
	return lineageIntegrityRule{}
}

type lineageIntegrityRule struct{}

func (lineageIntegrityRule) Name() string { return "lineage_integrity" }

func (lineageIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, p := range changedProjects(view, changes) {
		if p.Kind != domain.ProjectConjugation {
			continue
		}
		parent, ok := view.FindProject(p.Parent)
		if !ok {
			res.Violations = append(res.Violations, lineageViolation(domain.EntityProject, p.Name, fmt.Sprintf("conjugation project %s references missing parent %s", p.Name, p.Parent)))
			continue
		}
		for _, construct := range p.Constructs() {
			for _, clone := range construct.Clones() {
				if clone.Origin == "" {
					res.Violations = append(res.Violations, lineageViolation(domain.EntityClone, clone.ID, fmt.Sprintf("conjugation clone %s has no origin", clone.ID)))
					continue
				}
				owner, ok := parent.ConstructOf(clone.Origin)
				if !ok {
					res.Violations = append(res.Violations, lineageViolation(domain.EntityClone, clone.ID, fmt.Sprintf("clone %s references missing origin %s", clone.ID, clone.Origin)))
					continue
				}
				if owner.ID != construct.ID {
					res.Violations = append(res.Violations, lineageViolation(domain.EntityClone, clone.ID, fmt.Sprintf("clone %s of construct %s originates from construct %s", clone.ID, construct.ID, owner.ID)))
				}
			}
		}
	}
	return res, nil
}

func lineageViolation(entity domain.EntityType, entityID, message string) domain.Violation {
	return domain.Violation{
		Rule:     "lineage_integrity",
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   entity,
		EntityID: entityID,
	}
}
