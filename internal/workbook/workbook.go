// Package workbook stores stage templates, bench results and exports as
// named tables in a write-once blob store.
package workbook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"clonetrack/internal/blob"
	"clonetrack/internal/tabular"
	"clonetrack/pkg/domain"
)

// Kind names a workbook role; its suffix derives the default file name.
type Kind string

// Workbook roles. A template and its filled-in results share one file, as
// technicians fill the generated sheet in place.
const (
	KindConstructs         Kind = "_constructs"
	KindTransformation     Kind = "_transformation_results"
	KindPCR                Kind = "_pcr_results"
	KindSequencing         Kind = "_seq_results"
	KindConjugation        Kind = "_template"
	KindConjugationResults Kind = "_conjugation_results"
	KindGrowth             Kind = "_growth_results"
	KindExport             Kind = ""
)

// Workbook binds a blob store to a table codec.
type Workbook struct {
	store  blob.Store
	format tabular.Format
}

// New returns a workbook writing new files in format (xlsx when empty).
func New(store blob.Store, format tabular.Format) *Workbook {
	if format == "" {
		format = tabular.FormatXLSX
	}
	return &Workbook{store: store, format: format}
}

// Format returns the default format for new files.
func (w *Workbook) Format() tabular.Format { return w.format }

// Store exposes the underlying blob store.
func (w *Workbook) Store() blob.Store { return w.store }

// DefaultName derives the file name for a project workbook.
func (w *Workbook) DefaultName(project string, kind Kind) string {
	return project + string(kind) + w.format.Extension()
}

// Resolve returns name when set, else the default for project and kind.
func (w *Workbook) Resolve(name, project string, kind Kind) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	return w.DefaultName(project, kind)
}

func (w *Workbook) formatOf(name string) tabular.Format {
	if f, ok := tabular.FormatFromName(name); ok {
		return f
	}
	return w.format
}

// Write encodes t under name. An existing file is never replaced; the caller
// gets a TemplateAlreadyExistsError and must Remove it first.
func (w *Workbook) Write(ctx context.Context, name string, t *tabular.Table, meta map[string]string) (blob.Info, error) {
	format := w.formatOf(name)
	data, err := tabular.Marshal(format, t)
	if err != nil {
		return blob.Info{}, fmt.Errorf("encode %s: %w", name, err)
	}
	info, err := w.store.Put(ctx, name, bytes.NewReader(data), blob.PutOptions{ContentType: contentType(format), Metadata: meta})
	if errors.Is(err, blob.ErrExists) {
		return blob.Info{}, domain.TemplateAlreadyExistsError{Name: name}
	}
	if err != nil {
		return blob.Info{}, fmt.Errorf("store %s: %w", name, err)
	}
	return info, nil
}

// WriteRaw stores pre-rendered bytes (e.g. DOT or YAML) under the same
// write-once policy.
func (w *Workbook) WriteRaw(ctx context.Context, name, contentType string, data []byte) (blob.Info, error) {
	info, err := w.store.Put(ctx, name, bytes.NewReader(data), blob.PutOptions{ContentType: contentType})
	if errors.Is(err, blob.ErrExists) {
		return blob.Info{}, domain.TemplateAlreadyExistsError{Name: name}
	}
	if err != nil {
		return blob.Info{}, fmt.Errorf("store %s: %w", name, err)
	}
	return info, nil
}

// Read decodes the table stored under name.
func (w *Workbook) Read(ctx context.Context, name string) (*tabular.Table, error) {
	_, rc, err := w.store.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer func() { _ = rc.Close() }()
	codec, err := tabular.CodecFor(w.formatOf(name))
	if err != nil {
		return nil, err
	}
	t, err := codec.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return t, nil
}

// Exists reports whether name is present.
func (w *Workbook) Exists(ctx context.Context, name string) (bool, error) {
	_, err := w.store.Head(ctx, name)
	if errors.Is(err, blob.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Remove deletes name, reporting whether it existed.
func (w *Workbook) Remove(ctx context.Context, name string) (bool, error) {
	return w.store.Delete(ctx, name)
}

// ContentTypeOf returns the MIME type matching the extension of name.
func (w *Workbook) ContentTypeOf(name string) string {
	if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
		return "application/yaml"
	}
	return contentType(w.formatOf(name))
}

// List returns stored workbooks whose name starts with prefix.
func (w *Workbook) List(ctx context.Context, prefix string) ([]blob.Info, error) {
	return w.store.List(ctx, prefix)
}

func contentType(f tabular.Format) string {
	switch f {
	case tabular.FormatCSV:
		return "text/csv"
	default:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
}
