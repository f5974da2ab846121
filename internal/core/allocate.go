package core

import (
	"clonetrack/pkg/plate"
)

// StorageSummary reports a storage allocation pass.
type StorageSummary struct {
	Stored int `json:"stored"`
	Plates int `json:"plates"`
}

// AllocateStorage assigns column-major storage wells to clones satisfying
// preds. One running index spans the whole project; maxPerConstruct > 0 stops
// a construct early without resetting the index. Non-qualifying clones keep
// their current storage fields. Calling it again re-walks from the first well
// and overwrites earlier assignments, so repeated runs give the same layout.
func AllocateStorage(p *Project, preds Predicates, maxPerConstruct int) (StorageSummary, error) {
	var summary StorageSummary
	index := 0
	for _, construct := range p.Constructs() {
		stored := 0
		for _, clone := range construct.Clones() {
			if !preds.Match(clone) {
				continue
			}
			index++
			coord, err := plate.Assign(index, plate.Capacity, plate.ColumnMajor)
			if err != nil {
				return summary, err
			}
			clone.Storage = &Location{Plate: coord.Plate, Position: coord.Well}
			summary.Plates = coord.Plate
			stored++
			if maxPerConstruct > 0 && stored >= maxPerConstruct {
				break
			}
		}
	}
	summary.Stored = index
	return summary, nil
}
