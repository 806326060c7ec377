package importer

import (
	"bytes"
	"context"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/jkemboi/maziwa-backend/internal/farmers"
	"github.com/jkemboi/maziwa-backend/internal/milk"
	"github.com/jkemboi/maziwa-backend/pkg/db/models"
	pkgerrors "github.com/jkemboi/maziwa-backend/pkg/errors"
)

func buildSheet(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue("Sheet1", cell, value); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write sheet: %v", err)
	}
	return &buf
}

type stubFarmerCreator struct {
	created []farmers.CreateInput
	failOn  string
}

func (s *stubFarmerCreator) Create(_ context.Context, _ string, input farmers.CreateInput) (*farmers.Created, error) {
	if input.Name == s.failOn {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "username already exists")
	}
	s.created = append(s.created, input)
	return &farmers.Created{Farmer: &models.Farmer{ID: "F001", Name: input.Name}}, nil
}

type stubMilkCreator struct {
	created []milk.CreateInput
	failOn  string
}

func (s *stubMilkCreator) Create(_ context.Context, _, _ string, input milk.CreateInput) (*models.MilkRecord, error) {
	if input.FarmerID == s.failOn {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "intake already recorded")
	}
	s.created = append(s.created, input)
	return &models.MilkRecord{ID: "M0001", FarmerID: input.FarmerID}, nil
}

func newTestService(t *testing.T, farmerCreator *stubFarmerCreator, milkCreator *stubMilkCreator) *Service {
	t.Helper()
	svc, err := NewService(farmerCreator, milkCreator)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestImportFarmersSkipsBadRows(t *testing.T) {
	upload := buildSheet(t, [][]any{
		{"Name", "Phone", "Region"},
		{"John Kamau", "0712000001", "North"},
		{"", "0712000002", "South"},
		{"Grace Wanjiru", "", ""},
	})
	creator := &stubFarmerCreator{}
	svc := newTestService(t, creator, &stubMilkCreator{})

	result, err := svc.ImportFarmers(context.Background(), "b1", upload)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Imported != 2 {
		t.Fatalf("expected 2 imported, got %d", result.Imported)
	}
	if result.Skipped != 1 || len(result.Failures) != 1 {
		t.Fatalf("expected one skipped row, got %+v", result)
	}
	if result.Failures[0].Row != 3 || result.Failures[0].Reason != "missing name" {
		t.Fatalf("unexpected failure %+v", result.Failures[0])
	}
	if creator.created[1].Name != "Grace Wanjiru" || creator.created[1].Region != "" {
		t.Fatalf("unexpected parsed input %+v", creator.created[1])
	}
}

func TestImportFarmersSurfacesCreateErrors(t *testing.T) {
	upload := buildSheet(t, [][]any{
		{"Name", "Phone", "Region"},
		{"John", "1", "North"},
		{"Grace", "2", "South"},
	})
	creator := &stubFarmerCreator{failOn: "John"}
	svc := newTestService(t, creator, &stubMilkCreator{})

	result, err := svc.ImportFarmers(context.Background(), "b1", upload)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Imported != 1 || result.Skipped != 1 {
		t.Fatalf("expected partial import, got %+v", result)
	}
}

func TestImportMilkSkipsInvalidRows(t *testing.T) {
	upload := buildSheet(t, [][]any{
		{"Farmer ID", "Date", "Session", "Litres"},
		{"F001", "2026-06-01", "Morning", 12.5},
		{"F002", "2026-06-01", "evening", "not-a-number"},
		{"", "2026-06-01", "morning", 5},
		{"F003", "2026-06-01", "morning", -2},
	})
	milkCreator := &stubMilkCreator{}
	svc := newTestService(t, &stubFarmerCreator{}, milkCreator)

	result, err := svc.ImportMilk(context.Background(), "b1", "staff-1", upload)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Imported != 1 {
		t.Fatalf("expected 1 imported, got %d", result.Imported)
	}
	if result.Skipped != 3 {
		t.Fatalf("expected 3 skipped, got %+v", result)
	}
	if milkCreator.created[0].Litres != 12.5 || milkCreator.created[0].Session != "Morning" {
		t.Fatalf("unexpected parsed input %+v", milkCreator.created[0])
	}
}

func TestImportRejectsNonXlsx(t *testing.T) {
	svc := newTestService(t, &stubFarmerCreator{}, &stubMilkCreator{})
	_, err := svc.ImportFarmers(context.Background(), "b1", bytes.NewBufferString("name,phone\nJohn,1"))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for csv upload, got %v", err)
	}
}

func TestTemplatesRoundTrip(t *testing.T) {
	farmerTemplate, err := FarmerTemplate()
	if err != nil {
		t.Fatalf("farmer template: %v", err)
	}
	var buf bytes.Buffer
	if err := farmerTemplate.Write(&buf); err != nil {
		t.Fatalf("write template: %v", err)
	}
	inputs, skipped, err := ParseFarmers(&buf)
	if err != nil {
		t.Fatalf("parse template: %v", err)
	}
	if len(skipped) != 0 || len(inputs) != 1 || inputs[0].Name != "John Kamau" {
		t.Fatalf("template example row should parse, got %+v %+v", inputs, skipped)
	}

	milkTemplate, err := MilkTemplate()
	if err != nil {
		t.Fatalf("milk template: %v", err)
	}
	buf.Reset()
	if err := milkTemplate.Write(&buf); err != nil {
		t.Fatalf("write template: %v", err)
	}
	milkInputs, skipped, err := ParseMilk(&buf)
	if err != nil {
		t.Fatalf("parse template: %v", err)
	}
	if len(skipped) != 0 || len(milkInputs) != 1 || milkInputs[0].FarmerID != "F001" {
		t.Fatalf("template example row should parse, got %+v %+v", milkInputs, skipped)
	}
}

func TestExportFarmers(t *testing.T) {
	file, err := ExportFarmers([]models.Farmer{
		{BusinessID: "b1", ID: "F001", Name: "John", Phone: "0712", Region: "North", IsActive: true},
		{BusinessID: "b1", ID: "F002", Name: "Grace", Region: "South", IsActive: false},
	})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	rows, err := file.GetRows("Sheet1")
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[1][0] != "F001" || rows[2][1] != "Grace" {
		t.Fatalf("unexpected export content %+v", rows)
	}
}
