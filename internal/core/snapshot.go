package core

import (
	"clonetrack/pkg/domain"

	"gopkg.in/yaml.v3"
)

// ProjectView is the serialisable read model of a project tree.
type ProjectView struct {
	Name       string          `yaml:"name" json:"name"`
	Kind       ProjectKind     `yaml:"kind" json:"kind"`
	Parent     string          `yaml:"parent,omitempty" json:"parent,omitempty"`
	Constructs []ConstructView `yaml:"constructs" json:"constructs"`
}

// ConstructView is one construct with its ordered properties and clones.
type ConstructView struct {
	ID         string         `yaml:"identifier" json:"identifier"`
	Properties []PropertyView `yaml:"properties,omitempty" json:"properties,omitempty"`
	Clones     []CloneView    `yaml:"clones,omitempty" json:"clones,omitempty"`
}

// PropertyView keeps a property key next to its value so order survives encoding.
type PropertyView struct {
	Key   string `yaml:"key" json:"key"`
	Value Value  `yaml:"value" json:"value"`
}

// CloneView is the flat form of a clone.
type CloneView struct {
	ID          string  `yaml:"identifier" json:"identifier"`
	Origin      string  `yaml:"origin,omitempty" json:"origin,omitempty"`
	Agar        string  `yaml:"agar,omitempty" json:"agar,omitempty"`
	Conjugation string  `yaml:"conjugation,omitempty" json:"conjugation,omitempty"`
	Storage     string  `yaml:"storage,omitempty" json:"storage,omitempty"`
	PCR         Outcome `yaml:"pcr_result,omitempty" json:"pcr_result,omitempty"`
	Seq         Outcome `yaml:"seq_result,omitempty" json:"seq_result,omitempty"`
	Growth      Outcome `yaml:"growth_result,omitempty" json:"growth_result,omitempty"`
}

// NewProjectView projects p into its read model. Stage outcomes irrelevant
// to the project kind are omitted.
func NewProjectView(p *Project) ProjectView {
	view := ProjectView{Name: p.Name, Kind: p.Kind, Parent: p.Parent}
	for _, construct := range p.Constructs() {
		cv := ConstructView{ID: construct.ID}
		for _, key := range construct.Properties.Keys() {
			v, _ := construct.Properties.Get(key)
			cv.Properties = append(cv.Properties, PropertyView{Key: key, Value: v})
		}
		for _, clone := range construct.Clones() {
			c := CloneView{
				ID:          clone.ID,
				Origin:      clone.Origin,
				Agar:        locationText(clone.Agar),
				Conjugation: locationText(clone.Conjugation),
				Storage:     locationText(clone.Storage),
			}
			if p.Kind == domain.ProjectConjugation {
				c.Growth = clone.Growth.Normalize()
			} else {
				c.PCR = clone.PCR.Normalize()
				c.Seq = clone.Seq.Normalize()
			}
			cv.Clones = append(cv.Clones, c)
		}
		view.Constructs = append(view.Constructs, cv)
	}
	return view
}

func locationText(l *Location) string {
	if l == nil {
		return ""
	}
	return l.String()
}

// MarshalSnapshotYAML renders the project read model as YAML.
func MarshalSnapshotYAML(p *Project) ([]byte, error) {
	return yaml.Marshal(NewProjectView(p))
}
