package core

import (
	"fmt"
	"strings"

	"clonetrack/internal/tabular"
	"clonetrack/pkg/domain"
	"clonetrack/pkg/plate"
)

// Column names shared by stage templates and result sheets.
const (
	ColIdentifier            = "identifier"
	ColConstruct             = "construct"
	ColClone                 = "clone"
	ColOrigin                = "origin"
	ColConstructIdentifier   = "construct_identifier"
	ColCloneIdentifier       = "clone_identifier"
	ColAgarPlateNumber       = "agar_plate_number"
	ColAgarPlatePosition     = "agar_plate_position"
	ColNumberOfClones        = "number_of_clones"
	ColPCRIdentifier         = "pcr_identifier"
	ColPCRPlate              = "pcr_plate"
	ColPCRPlatePosition      = "pcr_plate_position"
	ColPCRResult             = "pcr_result"
	ColSeqIdentifier         = "seq_identifier"
	ColSeqResult             = "seq_result"
	ColConjugationPlate      = "conjugation_plate_number"
	ColConjugationPosition   = "conjugation_position"
	ColGrowthIdentifier      = "growth_exp_identifier"
	ColGrowthPlate           = "growth_plate"
	ColGrowthPlatePosition   = "growth_plate_position"
	ColGrowthResult          = "growth_result"
	ColStoragePlateNumber    = "storage_plate_number"
	ColStoragePlatePosition  = "storage_plate_position"
	defaultPropertyKeyPrefix = "property_"
)

// IngestSummary reports what an ingestion call changed. Duplicates and
// unrecognised result encodings are counted here rather than returned as errors.
type IngestSummary struct {
	Created    int `json:"created"`
	Duplicates int `json:"duplicates"`
	Updated    int `json:"updated"`
	Unchanged  int `json:"unchanged"`
}

// Predicates is the conjunction of stage pass conditions used for filtering.
type Predicates struct {
	PCR    bool `json:"pcr"`
	Seq    bool `json:"seq"`
	Growth bool `json:"growth"`
}

// DefaultPredicates is the validation used when a caller names no stage:
// PCR and sequencing for primary projects, growth for conjugation projects.
func DefaultPredicates(kind ProjectKind) Predicates {
	if kind == domain.ProjectConjugation {
		return Predicates{Growth: true}
	}
	return Predicates{PCR: true, Seq: true}
}

// Match reports whether every requested stage outcome is success.
func (p Predicates) Match(c *Clone) bool {
	if p.PCR && c.Outcome(StagePCR) != OutcomeSuccess {
		return false
	}
	if p.Seq && c.Outcome(StageSequencing) != OutcomeSuccess {
		return false
	}
	if p.Growth && c.Outcome(StageGrowth) != OutcomeSuccess {
		return false
	}
	return true
}

func (p Predicates) String() string {
	var parts []string
	if p.PCR {
		parts = append(parts, "pcr")
	}
	if p.Seq {
		parts = append(parts, "seq")
	}
	if p.Growth {
		parts = append(parts, "growth")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

// ScreeningOptions configure PCR and growth templates.
type ScreeningOptions struct {
	// MaxClones caps rows per construct; zero means no cap.
	MaxClones int
	// UseMTP adds a row-major microtiter plate and well per row.
	UseMTP bool
}

func requireColumns(t *tabular.Table, cols ...string) error {
	for _, c := range cols {
		if !t.HasColumn(c) {
			return domain.InvalidRowError{Row: 0, Column: c, Reason: "missing column"}
		}
	}
	return nil
}

// rowNumber converts a 0-based data row index to the sheet row shown to users
// (header is row 1).
func rowNumber(i int) int { return i + 2 }

func cellText(row tabular.Row, col string) string {
	return strings.TrimSpace(row.Get(col).String())
}

func requiredText(row tabular.Row, i int, col string) (string, error) {
	s := cellText(row, col)
	if s == "" {
		return "", domain.InvalidRowError{Row: rowNumber(i), Column: col, Reason: "value is required"}
	}
	return s, nil
}

// optionalCount parses a non-negative integer; an empty cell counts as zero.
func optionalCount(row tabular.Row, i int, col string) (int, error) {
	v := row.Get(col)
	if v.IsAbsent() {
		return 0, nil
	}
	n, ok := v.AsInt()
	if !ok || n < 0 {
		return 0, domain.InvalidRowError{Row: rowNumber(i), Column: col, Reason: fmt.Sprintf("expected a non-negative integer, got %q", v.String())}
	}
	return n, nil
}

// optionalLocation parses a (plate number, well) pair. Both cells empty means unset.
func optionalLocation(row tabular.Row, i int, plateCol, wellCol string) (*Location, error) {
	pv := row.Get(plateCol)
	well := cellText(row, wellCol)
	if pv.IsAbsent() && well == "" {
		return nil, nil
	}
	n, ok := pv.AsInt()
	if !ok || n < 1 {
		return nil, domain.InvalidRowError{Row: rowNumber(i), Column: plateCol, Reason: fmt.Sprintf("expected a plate number >= 1, got %q", pv.String())}
	}
	return &Location{Plate: n, Position: well}, nil
}

func locationCells(l *Location) (domain.Value, domain.Value) {
	if l == nil {
		return domain.Absent(), domain.Absent()
	}
	return domain.IntValue(l.Plate), domain.StringValue(l.Position)
}

func outcomeCell(o Outcome) domain.Value {
	return domain.StringValue(string(o.Normalize()))
}

// ingestOutcomes writes the result column of a screening sheet back onto clones.
// Every row must name an existing clone; cells without a recognised encoding
// leave the clone untouched.
func ingestOutcomes(p *Project, t *tabular.Table, stage Stage, resultCol string) (IngestSummary, error) {
	var summary IngestSummary
	if err := requireColumns(t, ColCloneIdentifier, resultCol); err != nil {
		return summary, err
	}
	for i, row := range t.Rows() {
		id, err := requiredText(row, i, ColCloneIdentifier)
		if err != nil {
			return summary, err
		}
		clone, ok := p.FindClone(id)
		if !ok {
			return summary, domain.UnknownCloneError{ID: id, Project: p.Name}
		}
		outcome, ok := domain.ParseOutcome(row.Get(resultCol))
		if !ok {
			summary.Unchanged++
			continue
		}
		if err := clone.SetOutcome(stage, outcome); err != nil {
			return summary, err
		}
		summary.Updated++
	}
	return summary, nil
}

// screeningColumns describes one screening template layout.
type screeningColumns struct {
	stage      Stage
	plateCol   string
	wellCol    string
	location   func(*Clone) *Location
	counterCol string
	mtpPlate   string
	mtpWell    string
	resultCol  string
}

var pcrColumns = screeningColumns{
	stage:      StagePCR,
	plateCol:   ColAgarPlateNumber,
	wellCol:    ColAgarPlatePosition,
	location:   func(c *Clone) *Location { return c.Agar },
	counterCol: ColPCRIdentifier,
	mtpPlate:   ColPCRPlate,
	mtpWell:    ColPCRPlatePosition,
	resultCol:  ColPCRResult,
}

var growthColumns = screeningColumns{
	stage:      StageGrowth,
	plateCol:   ColConjugationPlate,
	wellCol:    ColConjugationPosition,
	location:   func(c *Clone) *Location { return c.Conjugation },
	counterCol: ColGrowthIdentifier,
	mtpPlate:   ColGrowthPlate,
	mtpWell:    ColGrowthPlatePosition,
	resultCol:  ColGrowthResult,
}

// screeningTemplate lists every clone construct by construct. The running
// identifier is global: a construct hitting MaxClones stops emitting while
// the next construct continues the count.
func screeningTemplate(p *Project, cols screeningColumns, opts ScreeningOptions) (*tabular.Table, error) {
	header := []string{ColConstructIdentifier, ColCloneIdentifier, cols.plateCol, cols.wellCol, cols.counterCol}
	if opts.UseMTP {
		header = append(header, cols.mtpPlate, cols.mtpWell)
	}
	header = append(header, cols.resultCol)
	t := tabular.New(header...)

	counter := 0
	for _, construct := range p.Constructs() {
		emitted := 0
		for _, clone := range construct.Clones() {
			if opts.MaxClones > 0 && emitted >= opts.MaxClones {
				break
			}
			counter++
			emitted++
			plateNo, well := locationCells(cols.location(clone))
			row := tabular.Row{
				ColConstructIdentifier: domain.StringValue(construct.ID),
				ColCloneIdentifier:     domain.StringValue(clone.ID),
				cols.plateCol:          plateNo,
				cols.wellCol:           well,
				cols.counterCol:        domain.IntValue(counter),
			}
			if opts.UseMTP {
				coord, err := plate.Assign(counter, plate.Capacity, plate.RowMajor)
				if err != nil {
					return nil, err
				}
				row[cols.mtpPlate] = domain.IntValue(coord.Plate)
				row[cols.mtpWell] = domain.StringValue(coord.Well)
			}
			t.Append(row)
		}
	}
	if counter == 0 {
		return nil, domain.NoEligibleItemsError{Stage: cols.stage, Project: p.Name}
	}
	return t, nil
}
