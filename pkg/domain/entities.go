// Package domain defines the construct/clone records tracked through the
// cloning workflow, the error taxonomy, and rule evaluation primitives.
package domain

import (
	"encoding/json"
	"fmt"
)

// EntityType identifies the kind of record referenced by changes and violations.
type EntityType string

// Supported entity type identifiers.
const (
	EntityProject   EntityType = "project"
	EntityConstruct EntityType = "construct"
	EntityClone     EntityType = "clone"
)

// Stage names one workflow step with its own template/ingest/filter cycle.
type Stage string

// Workflow stages in processing order.
const (
	StageConstruct      Stage = "construct"
	StageTransformation Stage = "transformation"
	StagePCR            Stage = "pcr"
	StageSequencing     Stage = "sequencing"
	StageConjugation    Stage = "conjugation"
	StageGrowth         Stage = "growth"
	StageStorage        Stage = "storage"
)

// Outcome is the ternary result of a screening stage.
type Outcome string

// Screening outcomes. Pending means "not yet tested".
const (
	OutcomePending Outcome = "pending"
	OutcomeSuccess Outcome = "success"
	OutcomeFail    Outcome = "fail"
)

// Normalize maps the zero value to pending.
func (o Outcome) Normalize() Outcome {
	if o == "" {
		return OutcomePending
	}
	return o
}

// ParseOutcome decodes a bench result cell. Native booleans and the literal
// strings "y"/"n" are recognised; anything else carries no information.
func ParseOutcome(v Value) (Outcome, bool) {
	if b, ok := v.AsBool(); ok {
		if b {
			return OutcomeSuccess, true
		}
		return OutcomeFail, true
	}
	if s, ok := v.AsString(); ok {
		switch s {
		case "y":
			return OutcomeSuccess, true
		case "n":
			return OutcomeFail, true
		}
	}
	return "", false
}

// Location is a (plate number, position) pair recorded when a clone passes a stage.
type Location struct {
	Plate    int    `json:"plate"`
	Position string `json:"position"`
}

func (l *Location) String() string {
	if l == nil {
		return ""
	}
	return fmt.Sprintf("plate %d, well %s", l.Plate, l.Position)
}

func cloneLocation(l *Location) *Location {
	if l == nil {
		return nil
	}
	cp := *l
	return &cp
}

// Clone is one physical colony or isolate derived from a construct.
type Clone struct {
	ID          string    `json:"identifier"`
	Origin      string    `json:"origin,omitempty"`
	Agar        *Location `json:"agar,omitempty"`
	Conjugation *Location `json:"conjugation,omitempty"`
	Storage     *Location `json:"storage,omitempty"`
	PCR         Outcome   `json:"pcr_result,omitempty"`
	Seq         Outcome   `json:"seq_result,omitempty"`
	Growth      Outcome   `json:"growth_result,omitempty"`
}

// Outcome returns the clone's result for a screening stage.
func (c *Clone) Outcome(stage Stage) Outcome {
	switch stage {
	case StagePCR:
		return c.PCR.Normalize()
	case StageSequencing:
		return c.Seq.Normalize()
	case StageGrowth:
		return c.Growth.Normalize()
	default:
		return OutcomePending
	}
}

// SetOutcome records a screening result; re-recording overwrites.
func (c *Clone) SetOutcome(stage Stage, o Outcome) error {
	switch stage {
	case StagePCR:
		c.PCR = o
	case StageSequencing:
		c.Seq = o
	case StageGrowth:
		c.Growth = o
	default:
		return fmt.Errorf("stage %s records no outcome", stage)
	}
	return nil
}

func (c *Clone) copy() *Clone {
	cp := *c
	cp.Agar = cloneLocation(c.Agar)
	cp.Conjugation = cloneLocation(c.Conjugation)
	cp.Storage = cloneLocation(c.Storage)
	return &cp
}

// Construct is one designed genetic part; its clones keep insertion order.
type Construct struct {
	ID         string
	Properties Properties
	clones     []*Clone
}

// Clones returns the construct's clones in insertion order.
func (c *Construct) Clones() []*Clone {
	out := make([]*Clone, len(c.clones))
	copy(out, c.clones)
	return out
}

// CloneCount returns the number of clones derived so far.
func (c *Construct) CloneCount() int { return len(c.clones) }

// ProjectKind distinguishes the primary project from its conjugation variant.
type ProjectKind string

// Project kinds.
const (
	ProjectPrimary     ProjectKind = "primary"
	ProjectConjugation ProjectKind = "conjugation"
)

// ConjugationSuffix is appended to a parent project name to name its conjugation project.
const ConjugationSuffix = "_conjugation"

// Project is the aggregate root: an ordered set of constructs with an
// identifier index maintained alongside for constant-time lookups.
type Project struct {
	Name   string
	Kind   ProjectKind
	Parent string

	constructs   []*Construct
	constructIdx map[string]*Construct
	cloneIdx     map[string]*Clone
	cloneOwner   map[string]*Construct
}

// NewProject creates an empty primary project.
func NewProject(name string) *Project {
	return newProject(name, ProjectPrimary, "")
}

// NewConjugationProject creates the conjugation variant wrapping parent.
func NewConjugationProject(parent string) *Project {
	return newProject(parent+ConjugationSuffix, ProjectConjugation, parent)
}

func newProject(name string, kind ProjectKind, parent string) *Project {
	return &Project{
		Name:         name,
		Kind:         kind,
		Parent:       parent,
		constructIdx: make(map[string]*Construct),
		cloneIdx:     make(map[string]*Clone),
		cloneOwner:   make(map[string]*Construct),
	}
}

// Constructs returns constructs in insertion order.
func (p *Project) Constructs() []*Construct {
	out := make([]*Construct, len(p.constructs))
	copy(out, p.constructs)
	return out
}

// FindConstruct looks a construct up by identifier.
func (p *Project) FindConstruct(id string) (*Construct, bool) {
	c, ok := p.constructIdx[id]
	return c, ok
}

// FindClone looks a clone up by identifier across all constructs.
func (p *Project) FindClone(id string) (*Clone, bool) {
	c, ok := p.cloneIdx[id]
	return c, ok
}

// ConstructOf returns the construct owning the clone.
func (p *Project) ConstructOf(cloneID string) (*Construct, bool) {
	c, ok := p.cloneOwner[cloneID]
	return c, ok
}

// AddConstruct appends a construct. It returns false without changes when
// the identifier is already present.
func (p *Project) AddConstruct(id string, props Properties) (*Construct, bool) {
	if _, exists := p.constructIdx[id]; exists {
		return nil, false
	}
	c := &Construct{ID: id, Properties: props.Copy()}
	p.constructs = append(p.constructs, c)
	p.constructIdx[id] = c
	return c, true
}

// AddClone appends a clone to the named construct.
func (p *Project) AddClone(constructID string, clone Clone) (*Clone, error) {
	owner, ok := p.constructIdx[constructID]
	if !ok {
		return nil, UnknownConstructError{ID: constructID, Project: p.Name}
	}
	if _, dup := p.cloneIdx[clone.ID]; dup {
		return nil, DuplicateIdentifierError{Entity: EntityClone, ID: clone.ID}
	}
	stored := clone.copy()
	stored.PCR = stored.PCR.Normalize()
	stored.Seq = stored.Seq.Normalize()
	stored.Growth = stored.Growth.Normalize()
	owner.clones = append(owner.clones, stored)
	p.cloneIdx[stored.ID] = stored
	p.cloneOwner[stored.ID] = owner
	return stored, nil
}

// Clones returns every clone in construct order, then insertion order.
func (p *Project) Clones() []*Clone {
	out := make([]*Clone, 0, len(p.cloneIdx))
	for _, c := range p.constructs {
		out = append(out, c.clones...)
	}
	return out
}

// CloneCount returns the number of clones across all constructs.
func (p *Project) CloneCount() int { return len(p.cloneIdx) }

// Copy returns a deep copy with a rebuilt index.
func (p *Project) Copy() *Project {
	cp := newProject(p.Name, p.Kind, p.Parent)
	for _, c := range p.constructs {
		nc, _ := cp.AddConstruct(c.ID, c.Properties)
		for _, clone := range c.clones {
			stored := clone.copy()
			nc.clones = append(nc.clones, stored)
			cp.cloneIdx[stored.ID] = stored
			cp.cloneOwner[stored.ID] = nc
		}
	}
	return cp
}

type projectJSON struct {
	Name       string          `json:"name"`
	Kind       ProjectKind     `json:"kind"`
	Parent     string          `json:"parent,omitempty"`
	Constructs []constructJSON `json:"constructs"`
}

type constructJSON struct {
	ID         string     `json:"identifier"`
	Properties Properties `json:"properties"`
	Clones     []*Clone   `json:"clones"`
}

// MarshalJSON encodes constructs and clones in order.
func (p *Project) MarshalJSON() ([]byte, error) {
	out := projectJSON{Name: p.Name, Kind: p.Kind, Parent: p.Parent, Constructs: make([]constructJSON, 0, len(p.constructs))}
	for _, c := range p.constructs {
		clones := c.clones
		if clones == nil {
			clones = []*Clone{}
		}
		out.Constructs = append(out.Constructs, constructJSON{ID: c.ID, Properties: c.Properties, Clones: clones})
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a project and rebuilds the identifier index.
func (p *Project) UnmarshalJSON(data []byte) error {
	var in projectJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	kind := in.Kind
	if kind == "" {
		kind = ProjectPrimary
	}
	decoded := newProject(in.Name, kind, in.Parent)
	for _, c := range in.Constructs {
		if _, ok := decoded.AddConstruct(c.ID, c.Properties); !ok {
			return DuplicateIdentifierError{Entity: EntityConstruct, ID: c.ID}
		}
		for _, clone := range c.Clones {
			if clone == nil {
				continue
			}
			if _, err := decoded.AddClone(c.ID, *clone); err != nil {
				return err
			}
		}
	}
	*p = *decoded
	return nil
}
