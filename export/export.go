package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kjk/patients/atomicfile"
	"github.com/kjk/patients/patient"
	"github.com/kjk/patients/render"
	"github.com/xuri/excelize/v2"
)

// Header is the first row of xlsx and csv exports
var Header = []string{
	"Name",
	"Age",
	"Disease",
	"Contact",
	"Admission Date",
}

// SheetName is the name of the only sheet in xlsx exports
const SheetName = "Patients"

var columnWidths = []float64{
	25, // Name
	8,  // Age
	25, // Disease
	25, // Contact
	16, // Admission Date
}

// Marshal serializes recs in a format based on extension of path (.xlsx, .json or .csv)
func Marshal(path string, recs []*patient.Patient) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xlsx":
		return marshalXLSX(recs)
	case ".json":
		return render.JSON(recs)
	case ".csv":
		return marshalCSV(recs)
	}
	return nil, fmt.Errorf("unsupported export format '%s', must be .xlsx, .json or .csv", ext)
}

// Write exports recs to a file at path, atomically
func Write(path string, recs []*patient.Patient) error {
	d, err := Marshal(path, recs)
	if err != nil {
		return err
	}
	return atomicfile.WriteFile(path, d)
}

func marshalCSV(recs []*patient.Patient) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Header); err != nil {
		return nil, err
	}
	for _, p := range recs {
		if err := w.Write(p.Fields()); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalXLSX(recs []*patient.Patient) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err = f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(Header))
	if err != nil {
		return nil, err
	}
	if err = f.SetCellStyle(SheetName, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}
	for i, w := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err = f.SetColWidth(SheetName, col, col, w); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, p := range recs {
		// row 1 is the header
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{p.Name, p.Age, p.Disease, p.Contact, p.AdmissionDate}
		if err = f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if _, err = f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
