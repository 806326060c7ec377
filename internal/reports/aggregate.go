package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jkemboi/maziwa-backend/pkg/db/models"
	"github.com/jkemboi/maziwa-backend/pkg/enums"
)

// StaffTotal is litres collected per recording account.
type StaffTotal struct {
	CreatedBy string  `json:"createdBy"`
	Litres    float64 `json:"litres"`
}

// RegionTotal is litres collected per region.
type RegionTotal struct {
	Region string  `json:"region"`
	Litres float64 `json:"litres"`
}

// FarmerTotal is litres delivered per farmer.
type FarmerTotal struct {
	FarmerID string  `json:"farmerId"`
	Litres   float64 `json:"litres"`
	Records  int     `json:"records"`
}

// CollectionsReport aggregates intake over a window: one day or one month.
type CollectionsReport struct {
	Period      string        `json:"period"`
	TotalLitres float64       `json:"totalLitres"`
	Records     int           `json:"records"`
	ByStaff     []StaffTotal  `json:"byStaff"`
	ByRegion    []RegionTotal `json:"byRegion"`
}

// Collections folds records into totals keyed by staff and region. Output
// slices are sorted by key so reports render deterministically.
func Collections(period string, records []models.MilkRecord) CollectionsReport {
	report := CollectionsReport{Period: period, Records: len(records)}
	staff := map[string]float64{}
	regions := map[string]float64{}
	for _, record := range records {
		report.TotalLitres += record.Litres
		staff[record.CreatedBy] += record.Litres
		regions[record.Region] += record.Litres
	}

	for name, litres := range staff {
		report.ByStaff = append(report.ByStaff, StaffTotal{CreatedBy: name, Litres: litres})
	}
	sort.Slice(report.ByStaff, func(i, j int) bool {
		return report.ByStaff[i].CreatedBy < report.ByStaff[j].CreatedBy
	})

	for name, litres := range regions {
		report.ByRegion = append(report.ByRegion, RegionTotal{Region: name, Litres: litres})
	}
	sort.Slice(report.ByRegion, func(i, j int) bool {
		return report.ByRegion[i].Region < report.ByRegion[j].Region
	})
	return report
}

// FarmerTotals folds records into per-farmer delivery totals, sorted by
// farmer id.
func FarmerTotals(records []models.MilkRecord) []FarmerTotal {
	byFarmer := map[string]*FarmerTotal{}
	for _, record := range records {
		total, ok := byFarmer[record.FarmerID]
		if !ok {
			total = &FarmerTotal{FarmerID: record.FarmerID}
			byFarmer[record.FarmerID] = total
		}
		total.Litres += record.Litres
		total.Records++
	}

	result := make([]FarmerTotal, 0, len(byFarmer))
	for _, total := range byFarmer {
		result = append(result, *total)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].FarmerID < result[j].FarmerID
	})
	return result
}

// FarmerStatement is one farmer's month: every delivery and advance, with
// running totals.
type FarmerStatement struct {
	FarmerID      string              `json:"farmerId"`
	Month         string              `json:"month"`
	TotalLitres   float64             `json:"totalLitres"`
	TotalAdvances decimal.Decimal     `json:"totalAdvances"`
	Records       []models.MilkRecord `json:"records"`
	Advances      []models.Advance    `json:"advances"`
}

// Statement folds a farmer's records and advances into their monthly
// statement.
func Statement(farmerID, month string, records []models.MilkRecord, drawn []models.Advance) FarmerStatement {
	statement := FarmerStatement{
		FarmerID:      farmerID,
		Month:         month,
		TotalAdvances: decimal.Zero,
		Records:       records,
		Advances:      drawn,
	}
	for _, record := range records {
		statement.TotalLitres += record.Litres
	}
	for _, advance := range drawn {
		statement.TotalAdvances = statement.TotalAdvances.Add(advance.Amount)
	}
	return statement
}

// SummaryRow is one farmer's line in the monthly payout summary. Gross and
// Net are only populated when a rate is supplied; Net subtracts the farmer's
// advances for the month.
type SummaryRow struct {
	FarmerID      string           `json:"farmerId"`
	FarmerName    string           `json:"farmerName,omitempty"`
	MorningLitres float64          `json:"morningLitres"`
	EveningLitres float64          `json:"eveningLitres"`
	TotalLitres   float64          `json:"totalLitres"`
	Advances      decimal.Decimal  `json:"advances"`
	Gross         *decimal.Decimal `json:"gross,omitempty"`
	Net           *decimal.Decimal `json:"net,omitempty"`
}

// MonthlySummary builds the per-farmer payout sheet: morning/evening split,
// advances drawn, and gross/net pay when a per-litre rate is given.
func MonthlySummary(records []models.MilkRecord, advances []models.Advance, names map[string]string, rate *decimal.Decimal) []SummaryRow {
	byFarmer := map[string]*SummaryRow{}
	rowFor := func(farmerID string) *SummaryRow {
		row, ok := byFarmer[farmerID]
		if !ok {
			row = &SummaryRow{FarmerID: farmerID, Advances: decimal.Zero}
			byFarmer[farmerID] = row
		}
		return row
	}

	for _, record := range records {
		row := rowFor(record.FarmerID)
		switch record.Session {
		case enums.MilkSessionMorning:
			row.MorningLitres += record.Litres
		case enums.MilkSessionEvening:
			row.EveningLitres += record.Litres
		}
		row.TotalLitres += record.Litres
	}
	for _, advance := range advances {
		row := rowFor(advance.FarmerID)
		row.Advances = row.Advances.Add(advance.Amount)
	}

	result := make([]SummaryRow, 0, len(byFarmer))
	for _, row := range byFarmer {
		if name, ok := names[row.FarmerID]; ok {
			row.FarmerName = name
		}
		if rate != nil {
			gross := rate.Mul(decimal.NewFromFloat(row.TotalLitres)).Round(2)
			net := gross.Sub(row.Advances)
			row.Gross = &gross
			row.Net = &net
		}
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].FarmerID < result[j].FarmerID
	})
	return result
}
