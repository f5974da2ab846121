package workbook

import (
	"context"
	"errors"
	"testing"

	"clonetrack/internal/blob"
	"clonetrack/internal/tabular"
	"clonetrack/pkg/domain"
)

func TestDefaultNames(t *testing.T) {
	w := New(blob.NewMemory(), "")
	cases := map[Kind]string{
		KindConstructs:         "P1_constructs.xlsx",
		KindTransformation:     "P1_transformation_results.xlsx",
		KindPCR:                "P1_pcr_results.xlsx",
		KindSequencing:         "P1_seq_results.xlsx",
		KindConjugation:        "P1_template.xlsx",
		KindConjugationResults: "P1_conjugation_results.xlsx",
		KindGrowth:             "P1_growth_results.xlsx",
		KindExport:             "P1.xlsx",
	}
	for kind, want := range cases {
		if got := w.DefaultName("P1", kind); got != want {
			t.Fatalf("kind %q: expected %s got %s", kind, want, got)
		}
	}
	if got := New(blob.NewMemory(), tabular.FormatCSV).Resolve("", "P1", KindPCR); got != "P1_pcr_results.csv" {
		t.Fatalf("unexpected csv name %s", got)
	}
	if got := w.Resolve("custom.csv", "P1", KindPCR); got != "custom.csv" {
		t.Fatalf("explicit name must win, got %s", got)
	}
}

func TestWriteIsWriteOnce(t *testing.T) {
	ctx := context.Background()
	w := New(blob.NewMemory(), tabular.FormatCSV)
	tbl := tabular.New("identifier")
	tbl.AppendValues(domain.StringValue("C1"))
	if _, err := w.Write(ctx, "P1_constructs.csv", tbl, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := w.Write(ctx, "P1_constructs.csv", tbl, nil)
	var exists domain.TemplateAlreadyExistsError
	if !errors.As(err, &exists) || exists.Name != "P1_constructs.csv" {
		t.Fatalf("expected TemplateAlreadyExistsError, got %v", err)
	}
	if ok, err := w.Remove(ctx, "P1_constructs.csv"); err != nil || !ok {
		t.Fatalf("remove: %v %v", ok, err)
	}
	if _, err := w.Write(ctx, "P1_constructs.csv", tbl, nil); err != nil {
		t.Fatalf("rewrite after remove: %v", err)
	}
}

func TestReadUsesExtensionCodec(t *testing.T) {
	ctx := context.Background()
	w := New(blob.NewMemory(), tabular.FormatCSV)
	tbl := tabular.New("clone_identifier", "pcr_result")
	tbl.AppendValues(domain.StringValue("C1_1"), domain.BoolValue(true))
	if _, err := w.Write(ctx, "P1_pcr_results.xlsx", tbl, map[string]string{"stage": "pcr"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := w.Read(ctx, "P1_pcr_results.xlsx")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Len() != 1 {
		t.Fatalf("expected 1 row got %d", got.Len())
	}
	if b, ok := got.Row(0).Get("pcr_result").AsBool(); !ok || !b {
		t.Fatalf("unexpected result cell %v", got.Row(0).Get("pcr_result"))
	}
	if ok, err := w.Exists(ctx, "P1_pcr_results.xlsx"); err != nil || !ok {
		t.Fatalf("exists: %v %v", ok, err)
	}
	if ok, err := w.Exists(ctx, "P1_seq_results.xlsx"); err != nil || ok {
		t.Fatalf("expected missing workbook: %v %v", ok, err)
	}
	if _, err := w.Read(ctx, "P1_seq_results.xlsx"); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWriteRaw(t *testing.T) {
	ctx := context.Background()
	w := New(blob.NewMemory(), "")
	if _, err := w.WriteRaw(ctx, "P1.dot", "text/vnd.graphviz", []byte("digraph {}")); err != nil {
		t.Fatalf("write raw: %v", err)
	}
	var exists domain.TemplateAlreadyExistsError
	if _, err := w.WriteRaw(ctx, "P1.dot", "text/vnd.graphviz", nil); !errors.As(err, &exists) {
		t.Fatalf("expected TemplateAlreadyExistsError, got %v", err)
	}
	list, err := w.List(ctx, "P1")
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %+v", err, list)
	}
}

func TestContentTypeOf(t *testing.T) {
	w := New(blob.NewMemory(), tabular.FormatCSV)
	cases := map[string]string{
		"P1_pcr_results.csv":  "text/csv",
		"P1_pcr_results.xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"P1.yaml":             "application/yaml",
		"notes":               "text/csv",
	}
	for name, want := range cases {
		if got := w.ContentTypeOf(name); got != want {
			t.Fatalf("%s: expected %s got %s", name, want, got)
		}
	}
}
