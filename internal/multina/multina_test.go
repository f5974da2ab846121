package multina

import (
	"errors"
	"math"
	"strings"
	"testing"

	"clonetrack/internal/tabular"
	"clonetrack/pkg/domain"
)

const export = `MultiNA Result Table,,,,,,,,,,,,,,,
1,A1,C1_1,,1,40.1,12.3,55.0,295,-,10.2,30,1,2,3,4
2,A1,C1_1,,2,52.0,3.1,11.0,812,-,1.1,60,1,2,3,4
3,A2,C1_2,,1,44.0,9.0,20.0,-,-,-,31,1,2,3,4
4,A3,C2_1,,1,45.0,9.0,20.0,515,-,4.0,31,1,2,3,4

`

func TestParseSkipsTitleAndMarksMissing(t *testing.T) {
	peaks, err := Parse(strings.NewReader(export))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(peaks) != 4 {
		t.Fatalf("expected 4 peaks, got %d", len(peaks))
	}
	if peaks[0].Well != "A1" || peaks[0].Size != 295 || peaks[0].PeakNumber != 1 || peaks[0].Name != "C1_1" {
		t.Fatalf("unexpected first peak %+v", peaks[0])
	}
	if peaks[2].HasSize() || !math.IsNaN(peaks[2].Concentration) {
		t.Fatalf("expected missing size and concentration, got %+v", peaks[2])
	}
}

func TestParseRejectsShortLines(t *testing.T) {
	_, err := Parse(strings.NewReader("title\n1,A1,x\n"))
	if err == nil {
		t.Fatalf("expected error for short line")
	}
}

func pcrTemplate() *tabular.Table {
	t := tabular.New(ColConstructID, "clone_identifier", ColPCRPlate, ColPCRPlatePosition, ColPCRResult)
	for _, r := range []struct {
		construct, clone, well string
	}{{"C1", "C1_1", "A1"}, {"C1", "C1_2", "A2"}, {"C2", "C2_1", "A3"}} {
		t.Append(tabular.Row{
			ColConstructID:      domain.StringValue(r.construct),
			"clone_identifier":  domain.StringValue(r.clone),
			ColPCRPlate:         domain.IntValue(1),
			ColPCRPlatePosition: domain.StringValue(r.well),
		})
	}
	return t
}

func targetSheet(lengths map[string]float64) *tabular.Table {
	t := tabular.New(ColTargetConstruct, ColFragmentLength)
	for _, id := range []string{"C1", "C2"} {
		if l, ok := lengths[id]; ok {
			t.Append(tabular.Row{ColTargetConstruct: domain.StringValue(id), ColFragmentLength: domain.NumberValue(l)})
		}
	}
	return t
}

func TestAnalyzeMarksFragmentsWithinWindow(t *testing.T) {
	peaks, err := Parse(strings.NewReader(export))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	tmpl := pcrTemplate()
	result, summary, err := Analyze(tmpl, targetSheet(map[string]float64{"C1": 300, "C2": 500}), map[int][]Peak{1: peaks}, 0)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	want := []bool{true, false, false}
	for i, w := range want {
		got, ok := result.Row(i).Get(ColPCRResult).AsBool()
		if !ok || got != w {
			t.Fatalf("row %d: got %v want %v", i, result.Row(i).Get(ColPCRResult), w)
		}
	}
	if summary.Analyzed != 3 || summary.InRange != 1 || summary.Window != DefaultWindow {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if !tmpl.Row(0).Get(ColPCRResult).IsAbsent() {
		t.Fatalf("template must not be modified")
	}

	wide, summary, err := Analyze(tmpl, targetSheet(map[string]float64{"C1": 300, "C2": 500}), map[int][]Peak{1: peaks}, 40)
	if err != nil {
		t.Fatalf("analyze wide: %v", err)
	}
	if got, _ := wide.Row(2).Get(ColPCRResult).AsBool(); !got || summary.InRange != 2 {
		t.Fatalf("expected 515 within 500 ± 20, got %+v", summary)
	}
	if !strings.Contains(summary.String(), "3 clones were analyzed") {
		t.Fatalf("unexpected summary text %q", summary.String())
	}
}

func TestAnalyzeErrors(t *testing.T) {
	peaks, _ := Parse(strings.NewReader(export))
	_, _, err := Analyze(pcrTemplate(), targetSheet(map[string]float64{"C1": 300}), map[int][]Peak{1: peaks}, 0)
	if !errors.Is(err, ErrNoTarget) {
		t.Fatalf("expected ErrNoTarget, got %v", err)
	}
	_, _, err = Analyze(pcrTemplate(), targetSheet(map[string]float64{"C1": 300, "C2": 500}), map[int][]Peak{2: peaks}, 0)
	if err == nil {
		t.Fatalf("expected missing plate error")
	}
	_, _, err = Analyze(tabular.New(ColConstructID), targetSheet(nil), nil, 0)
	var invalid domain.InvalidRowError
	if !errors.As(err, &invalid) || invalid.Column != ColPCRPlate {
		t.Fatalf("expected missing column error, got %v", err)
	}
}
