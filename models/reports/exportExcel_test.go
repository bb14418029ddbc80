package reports

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/mallops_backend/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func TestWriteRevenueIntelligenceExcel_OneRowPerTenant(t *testing.T) {
	response := &RevenueIntelligenceResponse{
		Tenants: []*TenantRevenueSummary{
			{
				TenantName:        "Alpha Mart",
				UnitNumber:        "G-01",
				Floor:             "G",
				TenantCategory:    "Grocery",
				GrossSales:        decimal.NewFromInt(950000),
				TotalTransactions: 1200,
				AvgDailySales:     decimal.NewFromInt(47500),
				RevenueSharePct:   decimal.NewFromInt(10),
				RevenueShareDue:   decimal.NewFromInt(95000),
				Trend:             decimal.NewFromInt(-5),
			},
			{
				TenantName:        "Beta Cafe",
				UnitNumber:        "1-07",
				Floor:             "1",
				TenantCategory:    "F&B",
				GrossSales:        decimal.NewFromInt(400000),
				TotalTransactions: 800,
				AvgDailySales:     decimal.NewFromInt(40000),
				RevenueSharePct:   decimal.NewFromInt(12),
				RevenueShareDue:   decimal.NewFromInt(48000),
				Trend:             decimal.NewFromInt(-60),
				Anomaly: &Anomaly{
					Type:     models.AnomalyTypeUnderReport,
					Severity: models.AnomalySeverityHigh,
				},
			},
		},
		Period: NewReportingPeriod(time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC), 30),
	}

	rec := httptest.NewRecorder()
	if err := WriteRevenueIntelligenceExcel(rec, response); err != nil {
		t.Fatalf("WriteRevenueIntelligenceExcel: %v", err)
	}

	disposition := rec.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, "revenue-intelligence-2026-08-28.xlsx") {
		t.Fatalf("Content-Disposition = %q, want period-end filename", disposition)
	}

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("reopening written workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + one per tenant = 3", len(rows))
	}

	wantHeaders := []string{"Tenant", "Unit", "Floor", "Category", "GrossSales", "Transactions", "AvgDailySales", "SharePct", "ShareDue", "TrendPct", "Anomaly"}
	for i, want := range wantHeaders {
		if i >= len(rows[0]) || rows[0][i] != want {
			t.Fatalf("header column %d = %q, want %q (row: %v)", i, rows[0], want, rows[0])
		}
	}

	if rows[1][0] != "Alpha Mart" || rows[2][0] != "Beta Cafe" {
		t.Fatalf("tenant rows out of order: %q, %q", rows[1][0], rows[2][0])
	}
	if rows[1][4] != "950000" {
		t.Fatalf("gross sales cell = %q, want 950000", rows[1][4])
	}
	// Clean tenant has no anomaly cell; GetRows trims the trailing empty column.
	if len(rows[1]) > 10 && rows[1][10] != "" {
		t.Fatalf("clean tenant has anomaly cell %q", rows[1][10])
	}
	if len(rows[2]) < 11 || rows[2][10] != string(models.AnomalyTypeUnderReport) {
		t.Fatalf("flagged tenant anomaly cell = %v, want %s", rows[2], models.AnomalyTypeUnderReport)
	}
}
