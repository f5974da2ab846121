package core

import (
	"clonetrack/internal/tabular"
	"clonetrack/pkg/domain"
)

// PCRTemplate lists clones for colony PCR, optionally laid out on 96-well plates.
func PCRTemplate(p *Project, opts ScreeningOptions) (*tabular.Table, error) {
	return screeningTemplate(p, pcrColumns, opts)
}

// IngestPCR records pcr_result per clone.
func IngestPCR(p *Project, t *tabular.Table) (IngestSummary, error) {
	return ingestOutcomes(p, t, StagePCR, ColPCRResult)
}

// SequencingOptions configure the sequencing template.
type SequencingOptions struct {
	// MaxClones caps rows per construct; zero means no cap.
	MaxClones int
	// AllClones lists every clone instead of PCR-positive ones only.
	AllClones bool
}

// SequencingTemplate lists clones for sequencing, by default only those with
// a successful PCR.
func SequencingTemplate(p *Project, opts SequencingOptions) (*tabular.Table, error) {
	t := tabular.New(ColCloneIdentifier, ColAgarPlateNumber, ColAgarPlatePosition, ColSeqIdentifier, ColSeqResult)
	counter := 0
	for _, construct := range p.Constructs() {
		emitted := 0
		for _, clone := range construct.Clones() {
			if !opts.AllClones && clone.Outcome(StagePCR) != OutcomeSuccess {
				continue
			}
			if opts.MaxClones > 0 && emitted >= opts.MaxClones {
				break
			}
			counter++
			emitted++
			plateNo, well := locationCells(clone.Agar)
			t.Append(tabular.Row{
				ColCloneIdentifier:   domain.StringValue(clone.ID),
				ColAgarPlateNumber:   plateNo,
				ColAgarPlatePosition: well,
				ColSeqIdentifier:     domain.IntValue(counter),
			})
		}
	}
	if counter == 0 {
		return nil, domain.NoEligibleItemsError{Stage: StageSequencing, Project: p.Name}
	}
	return t, nil
}

// IngestSequencing records seq_result per clone.
func IngestSequencing(p *Project, t *tabular.Table) (IngestSummary, error) {
	return ingestOutcomes(p, t, StageSequencing, ColSeqResult)
}

// GrowthTemplate lists conjugation clones for the growth experiment.
func GrowthTemplate(p *Project, opts ScreeningOptions) (*tabular.Table, error) {
	if err := requireKind(p, domain.ProjectConjugation); err != nil {
		return nil, err
	}
	return screeningTemplate(p, growthColumns, opts)
}

// IngestGrowth records growth_result per conjugation clone.
func IngestGrowth(p *Project, t *tabular.Table) (IngestSummary, error) {
	if err := requireKind(p, domain.ProjectConjugation); err != nil {
		return IngestSummary{}, err
	}
	return ingestOutcomes(p, t, StageGrowth, ColGrowthResult)
}
