package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jkemboi/maziwa-backend/internal/farmers"
	"github.com/jkemboi/maziwa-backend/internal/milk"
	"github.com/jkemboi/maziwa-backend/pkg/db/models"
	pkgerrors "github.com/jkemboi/maziwa-backend/pkg/errors"
)

const sheetName = "Sheet1"

var (
	farmerHeaders = []string{"Name", "Phone", "Region"}
	milkHeaders   = []string{"Farmer ID", "Date", "Session", "Litres"}
)

// RowError records why one spreadsheet row was skipped.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// writeHeaders fills row 1 of the sheet.
func writeHeaders(f *excelize.File, headers []string) error {
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return err
		}
	}
	return nil
}

// FarmerTemplate renders the blank farmer upload sheet with one example row.
func FarmerTemplate() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := writeHeaders(f, farmerHeaders); err != nil {
		return nil, err
	}
	example := []any{"John Kamau", "0712000001", "North"}
	for i, value := range example {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, value); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// MilkTemplate renders the blank intake upload sheet with one example row.
func MilkTemplate() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := writeHeaders(f, milkHeaders); err != nil {
		return nil, err
	}
	example := []any{"F001", "2026-06-01", "morning", 12.5}
	for i, value := range example {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, value); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// ParseFarmers reads an upload sheet into farmer inputs. Rows without a name
// are reported, never fatal: a half-good sheet still imports its good half.
func ParseFarmers(r io.Reader) ([]farmers.CreateInput, []RowError, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, nil, err
	}

	var (
		inputs  []farmers.CreateInput
		skipped []RowError
	)
	for i, row := range rows {
		if i == 0 {
			continue
		}
		name := cellAt(row, 0)
		if name == "" {
			if !rowEmpty(row) {
				skipped = append(skipped, RowError{Row: i + 1, Reason: "missing name"})
			}
			continue
		}
		inputs = append(inputs, farmers.CreateInput{
			Name:   name,
			Phone:  cellAt(row, 1),
			Region: cellAt(row, 2),
		})
	}
	return inputs, skipped, nil
}

// ParseMilk reads an upload sheet into intake inputs. Malformed rows are
// reported and skipped.
func ParseMilk(r io.Reader) ([]milk.CreateInput, []RowError, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, nil, err
	}

	var (
		inputs  []milk.CreateInput
		skipped []RowError
	)
	for i, row := range rows {
		if i == 0 || rowEmpty(row) {
			continue
		}
		farmerID := cellAt(row, 0)
		if farmerID == "" {
			skipped = append(skipped, RowError{Row: i + 1, Reason: "missing farmer id"})
			continue
		}
		litres, err := strconv.ParseFloat(cellAt(row, 3), 64)
		if err != nil || litres <= 0 {
			skipped = append(skipped, RowError{Row: i + 1, Reason: "invalid litres"})
			continue
		}
		inputs = append(inputs, milk.CreateInput{
			FarmerID: farmerID,
			Date:     cellAt(row, 1),
			Session:  cellAt(row, 2),
			Litres:   litres,
		})
	}
	return inputs, skipped, nil
}

// ExportFarmers renders the farmer roster for download.
func ExportFarmers(roster []models.Farmer) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := writeHeaders(f, []string{"ID", "Name", "Phone", "Region", "Active"}); err != nil {
		return nil, err
	}
	for i, farmer := range roster {
		values := []any{farmer.ID, farmer.Name, farmer.Phone, farmer.Region, farmer.IsActive}
		for j, value := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

// ExportMilk renders intake records for download.
func ExportMilk(records []models.MilkRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := writeHeaders(f, []string{"ID", "Farmer ID", "Date", "Session", "Litres", "Region", "Recorded By"}); err != nil {
		return nil, err
	}
	for i, record := range records {
		values := []any{record.ID, record.FarmerID, record.Date, string(record.Session), record.Litres, record.Region, record.CreatedBy}
		for j, value := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}

func readRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "not a readable xlsx file")
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		sheet = sheetName
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("read sheet %q", sheet))
	}
	return rows, nil
}

func cellAt(row []string, index int) string {
	if index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
