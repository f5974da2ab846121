// Package multina scores colony PCR from MultiNA capillary electrophoresis
// exports: a clone passes when any detected fragment lies within a window
// around its construct's expected fragment length.
package multina

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"clonetrack/internal/tabular"
	"clonetrack/pkg/domain"
)

// DefaultWindow is the accepted spread around the target length, in bp.
const DefaultWindow = 20

// DefaultResultName is the stem of the completed PCR sheet.
const DefaultResultName = "MultiNA_Result"

// Template and target sheet columns.
const (
	ColPCRPlate         = "pcr_plate"
	ColPCRPlatePosition = "pcr_plate_position"
	ColConstructID      = "construct_identifier"
	ColPCRResult        = "pcr_result"
	ColTargetConstruct  = "construct"
	ColFragmentLength   = "fragment_length"
)

// columns lists the fixed layout of a MultiNA export after its title line.
var columns = []string{
	"number", "well", "name", "comment", "peak_number", "time_s",
	"height_mv", "area_mvxsec", "size", "attribute", "concentration",
	"migration_index", "area_mv_um", "molarity", "start_index", "end_index",
}

const (
	colWell          = 1
	colName          = 2
	colPeakNumber    = 4
	colSize          = 8
	colConcentration = 10
)

// Peak is one detected fragment. Missing measurements are NaN.
type Peak struct {
	Well          string
	Name          string
	PeakNumber    int
	Size          float64
	Concentration float64
}

// HasSize reports whether the instrument reported a fragment size.
func (p Peak) HasSize() bool { return !math.IsNaN(p.Size) }

// ErrNoTarget is returned when a template row names a construct missing from the target sheet.
var ErrNoTarget = errors.New("multina: no target fragment length")

// Parse reads a MultiNA CSV export. The first line is a title and is
// skipped; '-' marks a missing value.
func Parse(r io.Reader) ([]Peak, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("multina: read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	peaks := make([]Peak, 0, len(records)-1)
	for i, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		if len(rec) < len(columns) {
			return nil, fmt.Errorf("multina: line %d has %d fields, want %d", i+2, len(rec), len(columns))
		}
		p := Peak{
			Well:          strings.TrimSpace(rec[colWell]),
			Name:          strings.TrimSpace(rec[colName]),
			Size:          number(rec[colSize]),
			Concentration: number(rec[colConcentration]),
		}
		if n := number(rec[colPeakNumber]); !math.IsNaN(n) {
			p.PeakNumber = int(n)
		}
		peaks = append(peaks, p)
	}
	return peaks, nil
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func number(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "-" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// Summary reports an analysis run.
type Summary struct {
	Analyzed int     `json:"analyzed"`
	InRange  int     `json:"in_range"`
	Window   float64 `json:"window"`
}

func (s Summary) String() string {
	return fmt.Sprintf("%d clones were analyzed. PCR from %d clones yielded a fragment within target length ± %g.", s.Analyzed, s.InRange, s.Window/2)
}

// Analyze fills pcr_result of a PCR template laid out on plates. data maps a
// PCR plate number to that plate's peaks. The template is not modified.
func Analyze(template, targets *tabular.Table, data map[int][]Peak, window float64) (*tabular.Table, Summary, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	summary := Summary{Window: window}
	for _, c := range []string{ColPCRPlate, ColPCRPlatePosition, ColConstructID} {
		if !template.HasColumn(c) {
			return nil, summary, domain.InvalidRowError{Column: c, Reason: "missing column"}
		}
	}
	lengths, err := targetLengths(targets)
	if err != nil {
		return nil, summary, err
	}
	index := make(map[int]map[string][]Peak, len(data))
	for plateNo, peaks := range data {
		byWell := make(map[string][]Peak)
		for _, p := range peaks {
			byWell[p.Well] = append(byWell[p.Well], p)
		}
		index[plateNo] = byWell
	}

	out := tabular.New(template.Columns()...)
	out.AddColumn(ColPCRResult)
	for i, row := range template.Rows() {
		plateNo, ok := row.Get(ColPCRPlate).AsInt()
		if !ok {
			return nil, summary, domain.InvalidRowError{Row: i + 2, Column: ColPCRPlate, Reason: "expected a plate number"}
		}
		wells, ok := index[plateNo]
		if !ok {
			return nil, summary, fmt.Errorf("multina: no data for pcr plate %d", plateNo)
		}
		construct := strings.TrimSpace(row.Get(ColConstructID).String())
		target, ok := lengths[construct]
		if !ok {
			return nil, summary, fmt.Errorf("%w for construct %s", ErrNoTarget, construct)
		}
		well := strings.TrimSpace(row.Get(ColPCRPlatePosition).String())
		hit := inRange(wells[well], target, window)

		filled := make(tabular.Row, len(row)+1)
		for k, v := range row {
			filled[k] = v
		}
		filled[ColPCRResult] = domain.BoolValue(hit)
		out.Append(filled)
		summary.Analyzed++
		if hit {
			summary.InRange++
		}
	}
	return out, summary, nil
}

func inRange(peaks []Peak, target, window float64) bool {
	half := window / 2
	for _, p := range peaks {
		if p.HasSize() && p.Size >= target-half && p.Size <= target+half {
			return true
		}
	}
	return false
}

func targetLengths(t *tabular.Table) (map[string]float64, error) {
	for _, c := range []string{ColTargetConstruct, ColFragmentLength} {
		if !t.HasColumn(c) {
			return nil, domain.InvalidRowError{Column: c, Reason: "missing column"}
		}
	}
	out := make(map[string]float64, t.Len())
	for i, row := range t.Rows() {
		id := strings.TrimSpace(row.Get(ColTargetConstruct).String())
		if id == "" {
			continue
		}
		n, ok := row.Get(ColFragmentLength).AsNumber()
		if !ok {
			return nil, domain.InvalidRowError{Row: i + 2, Column: ColFragmentLength, Reason: "expected a number"}
		}
		out[id] = n
	}
	return out, nil
}
