// Package dag renders a project as a Graphviz digraph: construct properties
// feed constructs, which feed their stored clones.
package dag

import (
	"fmt"
	"slices"

	"github.com/emicklei/dot"

	"clonetrack/pkg/domain"
)

// Node colours.
const (
	HighlightColor = "chartreuse"
	DefaultColor   = "black"
)

// Options control what is drawn.
type Options struct {
	// Properties adds one node per listed construct property value.
	Properties []string
	// Constructs restricts the graph to these identifiers; empty keeps all.
	Constructs []string
	// Highlight selects clones whose trail is emphasised; nil means "has storage".
	Highlight func(*domain.Clone) bool
	// NoHighlight draws every node plainly.
	NoHighlight bool
}

func (o Options) highlight(c *domain.Clone) bool {
	if o.NoHighlight {
		return false
	}
	if o.Highlight != nil {
		return o.Highlight(c)
	}
	return c.Storage != nil
}

// ConjugationNodeID names the node linking a construct to its conjugation clones.
func ConjugationNodeID(construct string) string { return "Conjugation_" + construct }

type builder struct {
	g      *dot.Graph
	marked map[string]struct{}
}

func (b *builder) node(id, label string) dot.Node {
	n := b.g.Node(id).Label(label)
	if _, ok := b.marked[id]; ok {
		return n.Attr("penwidth", "4").Attr("color", HighlightColor)
	}
	return n.Attr("penwidth", "1").Attr("color", DefaultColor)
}

// Render draws p. For a conjugation project, parent supplies the property
// values; when nil the copies held by p are used.
func Render(p, parent *domain.Project, opts Options) *dot.Graph {
	b := &builder{g: dot.NewGraph(dot.Directed), marked: make(map[string]struct{})}
	b.g.Attr("rankdir", "LR")

	var constructs []*domain.Construct
	for _, c := range p.Constructs() {
		if len(opts.Constructs) == 0 || slices.Contains(opts.Constructs, c.ID) {
			constructs = append(constructs, c)
		}
	}
	conj := p.Kind == domain.ProjectConjugation

	for _, c := range constructs {
		for _, clone := range c.Clones() {
			if !opts.highlight(clone) {
				continue
			}
			b.marked[clone.ID] = struct{}{}
			b.marked[c.ID] = struct{}{}
			if conj {
				b.marked[ConjugationNodeID(c.ID)] = struct{}{}
			}
			for _, v := range propertyValues(source(c, parent), opts.Properties) {
				b.marked[v] = struct{}{}
			}
		}
	}

	for _, c := range constructs {
		clones := c.Clones()
		var cnode, attach dot.Node
		if conj {
			cnode = b.node(c.ID, c.ID)
			growth := count(clones, domain.StageGrowth)
			attach = b.node(ConjugationNodeID(c.ID), fmt.Sprintf("Conjugation\n%s\nClones: %d, Growth positive: %d", c.ID, len(clones), growth))
			b.g.Edge(cnode, attach)
		} else {
			cnode = b.node(c.ID, fmt.Sprintf("%s\nClones obtained: %d\nPCR positive: %d\nSEQ positive: %d",
				c.ID, len(clones), count(clones, domain.StagePCR), count(clones, domain.StageSequencing)))
			attach = cnode
		}
		for _, v := range propertyValues(source(c, parent), opts.Properties) {
			b.g.Edge(b.node(v, v), cnode)
		}
		for _, clone := range clones {
			if clone.Storage == nil {
				continue
			}
			label := fmt.Sprintf("%s\nStorage: Plate %d, Well %s", clone.ID, clone.Storage.Plate, clone.Storage.Position)
			b.g.Edge(attach, b.node(clone.ID, label))
		}
	}
	return b.g
}

// source returns the construct whose properties are drawn.
func source(c *domain.Construct, parent *domain.Project) *domain.Construct {
	if parent == nil {
		return c
	}
	if pc, ok := parent.FindConstruct(c.ID); ok {
		return pc
	}
	return c
}

func propertyValues(c *domain.Construct, keys []string) []string {
	var out []string
	for _, k := range keys {
		v, ok := c.Properties.Get(k)
		if !ok || v.IsAbsent() {
			continue
		}
		out = append(out, v.String())
	}
	return out
}

func count(clones []*domain.Clone, stage domain.Stage) int {
	n := 0
	for _, c := range clones {
		if c.Outcome(stage) == domain.OutcomeSuccess {
			n++
		}
	}
	return n
}
