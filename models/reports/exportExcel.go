package reports

import (
	"fmt"
	"net/http"

	"github.com/xuri/excelize/v2"
)

// WriteRevenueIntelligenceExcel streams the tenant summaries as an xlsx
// attachment. One row per revenue-share tenant, flagged tenants last column.
func WriteRevenueIntelligenceExcel(w http.ResponseWriter, response *RevenueIntelligenceResponse) error {

	f := excelize.NewFile()
	_, err := f.NewSheet("Sheet1")
	if err != nil {
		return err
	}

	// Add headers
	headers := []string{"Tenant", "Unit", "Floor", "Category", "GrossSales", "Transactions", "AvgDailySales", "SharePct", "ShareDue", "TrendPct", "Anomaly"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue("Sheet1", cell, h)
	}

	// Add data
	for i, s := range response.Tenants {
		row := i + 2
		f.SetCellValue("Sheet1", "A"+fmt.Sprint(row), s.TenantName)
		f.SetCellValue("Sheet1", "B"+fmt.Sprint(row), s.UnitNumber)
		f.SetCellValue("Sheet1", "C"+fmt.Sprint(row), s.Floor)
		f.SetCellValue("Sheet1", "D"+fmt.Sprint(row), s.TenantCategory)
		f.SetCellValue("Sheet1", "E"+fmt.Sprint(row), s.GrossSales.InexactFloat64())
		f.SetCellValue("Sheet1", "F"+fmt.Sprint(row), s.TotalTransactions)
		f.SetCellValue("Sheet1", "G"+fmt.Sprint(row), s.AvgDailySales.InexactFloat64())
		f.SetCellValue("Sheet1", "H"+fmt.Sprint(row), s.RevenueSharePct.InexactFloat64())
		f.SetCellValue("Sheet1", "I"+fmt.Sprint(row), s.RevenueShareDue.InexactFloat64())
		f.SetCellValue("Sheet1", "J"+fmt.Sprint(row), s.Trend.InexactFloat64())
		if s.Anomaly != nil {
			f.SetCellValue("Sheet1", "K"+fmt.Sprint(row), string(s.Anomaly.Type))
		}
	}

	filename := fmt.Sprintf("revenue-intelligence-%s.xlsx", response.Period.End.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	if err := f.Write(w); err != nil {
		return err
	}
	return nil
}
