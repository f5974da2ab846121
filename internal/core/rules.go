package core

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(LineageIntegrityRule())
	engine.Register(WellLabelRule())
	engine.Register(StorageOccupancyRule())
	return engine
}

// changedProjects returns the projects touched by changes that still exist.
func changedProjects(view RuleView, changes []Change) []*Project {
	seen := make(map[string]struct{}, len(changes))
	var out []*Project
	for _, change := range changes {
		if change.Action == ActionDelete || change.Project == "" {
			continue
		}
		if _, dup := seen[change.Project]; dup {
			continue
		}
		seen[change.Project] = struct{}{}
		if p, ok := view.FindProject(change.Project); ok {
			out = append(out, p)
		}
	}
	return out
}
