package importer

import (
	"context"
	"fmt"
	"io"

	"github.com/jkemboi/maziwa-backend/internal/farmers"
	"github.com/jkemboi/maziwa-backend/internal/milk"
	"github.com/jkemboi/maziwa-backend/pkg/db/models"
	pkgerrors "github.com/jkemboi/maziwa-backend/pkg/errors"
)

// FarmerCreator registers farmers one by one.
type FarmerCreator interface {
	Create(ctx context.Context, businessID string, input farmers.CreateInput) (*farmers.Created, error)
}

// MilkCreator records intake one row at a time.
type MilkCreator interface {
	Create(ctx context.Context, businessID, createdBy string, input milk.CreateInput) (*models.MilkRecord, error)
}

// Result summarizes a bulk upload: what landed and what was skipped, with a
// per-row reason for everything that didn't.
type Result struct {
	Imported int        `json:"imported"`
	Skipped  int        `json:"skipped"`
	Failures []RowError `json:"failures,omitempty"`
}

// Service runs bulk uploads through the regular create paths so every row
// gets the same validation, ids and side effects as a one-off request.
type Service struct {
	farmers FarmerCreator
	milk    MilkCreator
}

// NewService wires the importer.
func NewService(farmerCreator FarmerCreator, milkCreator MilkCreator) (*Service, error) {
	if farmerCreator == nil || milkCreator == nil {
		return nil, fmt.Errorf("importer requires farmer and milk creators")
	}
	return &Service{farmers: farmerCreator, milk: milkCreator}, nil
}

// ImportFarmers loads a farmer sheet. Row failures never abort the run.
func (s *Service) ImportFarmers(ctx context.Context, businessID string, upload io.Reader) (*Result, error) {
	inputs, skipped, err := ParseFarmers(upload)
	if err != nil {
		return nil, err
	}
	return s.BulkFarmers(ctx, businessID, inputs, skipped), nil
}

// BulkFarmers registers farmer rows one by one, collecting per-row failures.
// JSON bulk uploads enter here directly.
func (s *Service) BulkFarmers(ctx context.Context, businessID string, inputs []farmers.CreateInput, skipped []RowError) *Result {
	result := &Result{Failures: skipped}
	for _, input := range inputs {
		if _, err := s.farmers.Create(ctx, businessID, input); err != nil {
			result.Failures = append(result.Failures, RowError{Reason: rowReason(input.Name, err)})
			continue
		}
		result.Imported++
	}
	result.Skipped = len(result.Failures)
	return result
}

// ImportMilk loads an intake sheet. Duplicate sessions surface as skipped
// rows, not as a failed upload.
func (s *Service) ImportMilk(ctx context.Context, businessID, createdBy string, upload io.Reader) (*Result, error) {
	inputs, skipped, err := ParseMilk(upload)
	if err != nil {
		return nil, err
	}
	return s.BulkMilk(ctx, businessID, createdBy, inputs, skipped), nil
}

// BulkMilk records intake rows one by one, collecting per-row failures.
func (s *Service) BulkMilk(ctx context.Context, businessID, createdBy string, inputs []milk.CreateInput, skipped []RowError) *Result {
	result := &Result{Failures: skipped}
	for _, input := range inputs {
		if _, err := s.milk.Create(ctx, businessID, createdBy, input); err != nil {
			result.Failures = append(result.Failures, RowError{Reason: rowReason(input.FarmerID, err)})
			continue
		}
		result.Imported++
	}
	result.Skipped = len(result.Failures)
	return result
}

func rowReason(key string, err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return fmt.Sprintf("%s: %s", key, typed.Message())
	}
	return fmt.Sprintf("%s: %v", key, err)
}
