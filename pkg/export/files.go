package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"igrelations/pkg/models"
	"igrelations/pkg/storage"
)

// JSONSink writes the records as an indented JSON array
type JSONSink struct {
	store *storage.Manager
	name  string
}

// NewJSONSink writes name inside store
func NewJSONSink(store *storage.Manager, name string) *JSONSink {
	return &JSONSink{store: store, name: name}
}

func (s *JSONSink) Name() string     { return "json" }
func (s *JSONSink) Location() string { return s.store.Path(s.name) }

func (s *JSONSink) Write(ctx context.Context, records []models.EnrichedRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := models.MarshalRecords(records)
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	_, err = s.store.SaveFile(bytes.NewReader(data), s.name)
	return err
}

// CSVSink writes a header row and one row per record
type CSVSink struct {
	store *storage.Manager
	name  string
}

// NewCSVSink writes name inside store
func NewCSVSink(store *storage.Manager, name string) *CSVSink {
	return &CSVSink{store: store, name: name}
}

func (s *CSVSink) Name() string     { return "csv" }
func (s *CSVSink) Location() string { return s.store.Path(s.name) }

func (s *CSVSink) Write(ctx context.Context, records []models.EnrichedRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.store.WriteFile(s.name, func(w io.Writer) error {
		return WriteCSV(w, records)
	})
	return err
}

// WriteCSV encodes records with a models.Columns header
func WriteCSV(w io.Writer, records []models.EnrichedRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.Columns); err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.Write(rec.Strings()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// XLSXSink writes a workbook with one sheet
type XLSXSink struct {
	store *storage.Manager
	name  string
	sheet string
}

// NewXLSXSink writes name inside store with a sheet titled sheet
func NewXLSXSink(store *storage.Manager, name, sheet string) *XLSXSink {
	if sheet == "" {
		sheet = "Sheet1"
	}
	return &XLSXSink{store: store, name: name, sheet: sheet}
}

func (s *XLSXSink) Name() string     { return "xlsx" }
func (s *XLSXSink) Location() string { return s.store.Path(s.name) }

func (s *XLSXSink) Write(ctx context.Context, records []models.EnrichedRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.store.WriteFile(s.name, func(w io.Writer) error {
		return WriteXLSX(w, s.sheet, records)
	})
	return err
}

// WriteXLSX encodes records as a workbook. Absent values are empty cells.
func WriteXLSX(w io.Writer, sheet string, records []models.EnrichedRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(models.Columns))
	for i, col := range models.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := rec.Values()
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	return f.Write(w)
}
