package core

import (
	"context"
	"fmt"

	"clonetrack/pkg/domain"
)

// StorageOccupancyRule warns when two clones of a project share a storage well.
// A narrower storage pass leaves earlier assignments in place, so overlaps are
// reported rather than blocked.
func StorageOccupancyRule() domain.Rule {
	return storageOccupancyRule{}
}

type storageOccupancyRule struct{}

func (storageOccupancyRule) Name() string { return "storage_occupancy" }

func (storageOccupancyRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, p := range changedProjects(view, changes) {
		occupant := make(map[Location]string)
		for _, clone := range p.Clones() {
			if clone.Storage == nil {
				continue
			}
			key := *clone.Storage
			if first, taken := occupant[key]; taken {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "storage_occupancy",
					Severity: domain.SeverityWarn,
					Message:  fmt.Sprintf("clones %s and %s share storage plate %d well %s", first, clone.ID, key.Plate, key.Position),
					Entity:   domain.EntityClone,
					EntityID: clone.ID,
				})
				continue
			}
			occupant[key] = clone.ID
		}
	}
	return res, nil
}
