package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jkemboi/maziwa-backend/internal/advances"
	"github.com/jkemboi/maziwa-backend/internal/milk"
	"github.com/jkemboi/maziwa-backend/pkg/db/models"
	pkgerrors "github.com/jkemboi/maziwa-backend/pkg/errors"
)

// MilkSource reads intake records for aggregation.
type MilkSource interface {
	List(ctx context.Context, businessID string, filter milk.ListFilter) ([]models.MilkRecord, error)
}

// AdvanceSource reads the payout ledger for aggregation.
type AdvanceSource interface {
	List(ctx context.Context, businessID string, filter advances.ListFilter) ([]models.Advance, error)
}

// FarmerSource resolves farmer names for the payout sheet.
type FarmerSource interface {
	ListNames(ctx context.Context, businessID string) (map[string]string, error)
}

// Service assembles reporting views over the raw stores.
type Service struct {
	milk     MilkSource
	advances AdvanceSource
	farmers  FarmerSource
}

// NewService wires the reports service.
func NewService(milkSource MilkSource, advanceSource AdvanceSource, farmerSource FarmerSource) (*Service, error) {
	if milkSource == nil || advanceSource == nil || farmerSource == nil {
		return nil, fmt.Errorf("reports service requires milk, advance and farmer sources")
	}
	return &Service{milk: milkSource, advances: advanceSource, farmers: farmerSource}, nil
}

// Daily reports collections for one day; date defaults to today.
func (s *Service) Daily(ctx context.Context, businessID, date string) (*CollectionsReport, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		date = time.Now().UTC().Format(milk.DateLayout)
	} else if _, err := time.Parse(milk.DateLayout, date); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid date %q, want YYYY-MM-DD", date))
	}

	records, err := s.milk.List(ctx, businessID, milk.ListFilter{Date: date})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load daily records")
	}
	report := Collections(date, records)
	return &report, nil
}

// Monthly reports collections for one month; month defaults to the current
// one.
func (s *Service) Monthly(ctx context.Context, businessID, month string) (*CollectionsReport, error) {
	month, err := normalizeMonth(month)
	if err != nil {
		return nil, err
	}

	records, err := s.milk.List(ctx, businessID, milk.ListFilter{Month: month})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load monthly records")
	}
	report := Collections(month, records)
	return &report, nil
}

// FarmerWise reports per-farmer delivery totals for a month.
func (s *Service) FarmerWise(ctx context.Context, businessID, month string) ([]FarmerTotal, error) {
	month, err := normalizeMonth(month)
	if err != nil {
		return nil, err
	}

	records, err := s.milk.List(ctx, businessID, milk.ListFilter{Month: month})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load monthly records")
	}
	return FarmerTotals(records), nil
}

// Statement gathers one farmer's deliveries and advances for a month.
func (s *Service) Statement(ctx context.Context, businessID, farmerID, month string) (*FarmerStatement, error) {
	farmerID = strings.TrimSpace(farmerID)
	if farmerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "farmer id is required")
	}
	month, err := normalizeMonth(month)
	if err != nil {
		return nil, err
	}

	records, err := s.milk.List(ctx, businessID, milk.ListFilter{FarmerID: farmerID, Month: month})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load farmer records")
	}
	drawn, err := s.advances.List(ctx, businessID, advances.ListFilter{FarmerID: farmerID, Month: month})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load farmer advances")
	}

	statement := Statement(farmerID, month, records, drawn)
	return &statement, nil
}

// RegionSummary reports litres collected per region for a month.
func (s *Service) RegionSummary(ctx context.Context, businessID, month string) ([]RegionTotal, error) {
	month, err := normalizeMonth(month)
	if err != nil {
		return nil, err
	}

	records, err := s.milk.List(ctx, businessID, milk.ListFilter{Month: month})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load monthly records")
	}
	report := Collections(month, records)
	return report.ByRegion, nil
}

// Summary builds the monthly payout sheet. Rate is KES per litre; when nil
// the sheet carries litres and advances only.
func (s *Service) Summary(ctx context.Context, businessID, month string, rate *decimal.Decimal) ([]SummaryRow, error) {
	month, err := normalizeMonth(month)
	if err != nil {
		return nil, err
	}
	if rate != nil && rate.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rate cannot be negative")
	}

	records, err := s.milk.List(ctx, businessID, milk.ListFilter{Month: month})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load monthly records")
	}
	drawn, err := s.advances.List(ctx, businessID, advances.ListFilter{Month: month})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load monthly advances")
	}
	names, err := s.farmers.ListNames(ctx, businessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load farmer names")
	}

	return MonthlySummary(records, drawn, names, rate), nil
}

func normalizeMonth(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Now().UTC().Format("2006-01"), nil
	}
	if _, err := time.Parse("2006-01", raw); err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid month %q, want YYYY-MM", raw))
	}
	return raw, nil
}
