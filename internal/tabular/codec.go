package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"clonetrack/pkg/domain"
)

// Codec moves tables to and from a byte stream.
type Codec interface {
	Format() Format
	Encode(w io.Writer, t *Table) error
	Decode(r io.Reader) (*Table, error)
}

// CodecFor returns the codec registered for format.
func CodecFor(format Format) (Codec, error) {
	switch format {
	case FormatCSV:
		return CSVCodec{}, nil
	case FormatXLSX, "":
		return XLSXCodec{}, nil
	default:
		return nil, fmt.Errorf("unsupported table format %q", format)
	}
}

// CSVCodec writes a single header row followed by one line per row.
type CSVCodec struct{}

// Format implements Codec.
func (CSVCodec) Format() Format { return FormatCSV }

// Encode implements Codec.
func (CSVCodec) Encode(w io.Writer, t *Table) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(t.Records()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// Decode implements Codec. Ragged rows are tolerated; missing cells read as absent.
func (CSVCodec) Decode(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return FromRecords(records), nil
}

// XLSXCodec stores the table on the first worksheet of a workbook.
type XLSXCodec struct {
	// Sheet names the worksheet written by Encode; empty keeps the default.
	Sheet string
}

// Format implements Codec.
func (XLSXCodec) Format() Format { return FormatXLSX }

// Encode implements Codec. Numbers and booleans become typed cells.
func (c XLSXCodec) Encode(w io.Writer, t *Table) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)
	if c.Sheet != "" && c.Sheet != sheet {
		if err := f.SetSheetName(sheet, c.Sheet); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
		sheet = c.Sheet
	}
	columns := t.Columns()
	header := make([]any, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, row := range t.Rows() {
		cells := make([]any, len(columns))
		for j, col := range columns {
			cells[j] = cellValue(row.Get(col))
		}
		if err := setRow(f, sheet, i+2, cells); err != nil {
			return err
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// Decode implements Codec, reading the first worksheet.
func (XLSXCodec) Decode(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return New(), nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return FromRecords(rows), nil
}

func setRow(f *excelize.File, sheet string, rowNum int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write row %d: %w", rowNum, err)
	}
	return nil
}

// cellValue keeps numbers typed unless their source text would not survive
// numeric formatting (leading zeros, exponents).
func cellValue(v domain.Value) any {
	switch v.Kind() {
	case domain.ValueNumber:
		n, _ := v.AsNumber()
		if strconv.FormatFloat(n, 'f', -1, 64) != v.String() {
			return v.String()
		}
		return n
	case domain.ValueBool:
		b, _ := v.AsBool()
		return b
	case domain.ValueString:
		return v.String()
	default:
		return nil
	}
}

// Marshal encodes t with the codec for format.
func Marshal(format Format, t *Table) ([]byte, error) {
	codec, err := CodecFor(format)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := codec.Encode(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes data with the codec for format.
func Unmarshal(format Format, data []byte) (*Table, error) {
	codec, err := CodecFor(format)
	if err != nil {
		return nil, err
	}
	return codec.Decode(bytes.NewReader(data))
}
