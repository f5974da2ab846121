package core

import (
	"math/rand/v2"
	"slices"

	"clonetrack/internal/tabular"
	"clonetrack/pkg/domain"
)

// Sampler supplies random permutations for per-construct sampling.
// *rand.Rand from math/rand/v2 satisfies it.
type Sampler interface {
	Perm(n int) []int
}

type globalSampler struct{}

func (globalSampler) Perm(n int) []int { return rand.Perm(n) }

// Validated returns the clones satisfying preds in construct then clone
// order. With sampleSize > 0 each construct contributes exactly sampleSize
// clones drawn without replacement; constructs with no passing clone are left
// out and constructs with fewer than sampleSize fail the whole call.
func Validated(p *Project, preds Predicates, sampleSize int, sampler Sampler) ([]*Clone, error) {
	if sampler == nil {
		sampler = globalSampler{}
	}
	var out []*Clone
	for _, construct := range p.Constructs() {
		var passing []*Clone
		for _, clone := range construct.Clones() {
			if preds.Match(clone) {
				passing = append(passing, clone)
			}
		}
		if sampleSize <= 0 || len(passing) == 0 {
			out = append(out, passing...)
			continue
		}
		if sampleSize > len(passing) {
			return nil, domain.InsufficientSampleError{Construct: construct.ID, Requested: sampleSize, Available: len(passing)}
		}
		picked := sampler.Perm(len(passing))[:sampleSize]
		slices.Sort(picked)
		for _, idx := range picked {
			out = append(out, passing[idx])
		}
	}
	return out, nil
}

// ValidatedTable flattens the Validated selection.
func ValidatedTable(p *Project, preds Predicates, sampleSize int, sampler Sampler) (*tabular.Table, error) {
	clones, err := Validated(p, preds, sampleSize, sampler)
	if err != nil {
		return nil, err
	}
	keep := make(map[string]struct{}, len(clones))
	for _, c := range clones {
		keep[c.ID] = struct{}{}
	}
	return flatten(p, func(c *Clone) bool {
		_, ok := keep[c.ID]
		return ok
	}), nil
}
