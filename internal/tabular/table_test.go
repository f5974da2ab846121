package tabular

import (
	"bytes"
	"strings"
	"testing"

	"clonetrack/pkg/domain"
)

func sampleTable() *Table {
	t := New("identifier", "agar_plate_number", "agar_plate_position", "number_of_clones", "verified")
	t.AppendValues(domain.StringValue("C1"), domain.IntValue(1), domain.StringValue("A1"), domain.IntValue(3), domain.BoolValue(true))
	t.AppendValues(domain.StringValue("C2"), domain.IntValue(1), domain.StringValue("A2"), domain.Absent(), domain.BoolValue(false))
	return t
}

func TestCodecRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatCSV, FormatXLSX} {
		data, err := Marshal(format, sampleTable())
		if err != nil {
			t.Fatalf("%s marshal: %v", format, err)
		}
		got, err := Unmarshal(format, data)
		if err != nil {
			t.Fatalf("%s unmarshal: %v", format, err)
		}
		cols := got.Columns()
		if len(cols) != 5 || cols[0] != "identifier" || cols[4] != "verified" {
			t.Fatalf("%s: unexpected columns %v", format, cols)
		}
		if got.Len() != 2 {
			t.Fatalf("%s: expected 2 rows got %d", format, got.Len())
		}
		first := got.Row(0)
		if n, ok := first.Get("number_of_clones").AsInt(); !ok || n != 3 {
			t.Fatalf("%s: expected 3 clones, got %v", format, first.Get("number_of_clones"))
		}
		if b, ok := first.Get("verified").AsBool(); !ok || !b {
			t.Fatalf("%s: expected verified=true, got %v", format, first.Get("verified"))
		}
		second := got.Row(1)
		if !second.Get("number_of_clones").IsAbsent() {
			t.Fatalf("%s: expected absent cell, got %v", format, second.Get("number_of_clones"))
		}
		if s, _ := second.Get("agar_plate_position").AsString(); s != "A2" {
			t.Fatalf("%s: unexpected position %q", format, s)
		}
	}
}

func TestXLSXKeepsLeadingZeroText(t *testing.T) {
	tbl := New("identifier")
	tbl.AppendValues(domain.ParseValue("007"))
	data, err := Marshal(FormatXLSX, tbl)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := Unmarshal(FormatXLSX, data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s := got.Row(0).Get("identifier").String(); s != "007" {
		t.Fatalf("expected 007 got %q", s)
	}
}

func TestCSVDecodeSkipsBlankRowsAndRaggedCells(t *testing.T) {
	input := "\ufeffclone_identifier,pcr_result\nC1_1,y\n,\nC1_2\n"
	got, err := CSVCodec{}.Decode(strings.NewReader(input))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.HasColumn("clone_identifier") {
		t.Fatalf("BOM not stripped from header: %v", got.Columns())
	}
	if got.Len() != 2 {
		t.Fatalf("expected 2 rows got %d", got.Len())
	}
	if !got.Row(1).Get("pcr_result").IsAbsent() {
		t.Fatalf("expected absent result for ragged row")
	}
}

func TestAppendDeclaresColumns(t *testing.T) {
	tbl := New("a")
	tbl.Append(Row{"a": domain.IntValue(1), "b": domain.StringValue("x")})
	if !tbl.HasColumn("b") {
		t.Fatalf("expected column b declared")
	}
	var buf bytes.Buffer
	if err := (CSVCodec{}).Encode(&buf, tbl); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if buf.String() != "a,b\n1,x\n" {
		t.Fatalf("unexpected csv %q", buf.String())
	}
}

func TestFormatFromName(t *testing.T) {
	if f, ok := FormatFromName("P1_pcr_results.XLSX"); !ok || f != FormatXLSX {
		t.Fatalf("expected xlsx")
	}
	if f, ok := FormatFromName("export.csv"); !ok || f != FormatCSV {
		t.Fatalf("expected csv")
	}
	if _, ok := FormatFromName("notes.txt"); ok {
		t.Fatalf("expected unknown format")
	}
	if _, err := CodecFor(Format("ods")); err == nil {
		t.Fatalf("expected error for unknown codec")
	}
}
