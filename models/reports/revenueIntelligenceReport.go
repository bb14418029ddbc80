package reports

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bitbucket.org/mmdatafocus/mallops_backend/config"
	"bitbucket.org/mmdatafocus/mallops_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type NotConnectedTenant struct {
	LeaseId        string `json:"lease_id"`
	TenantId       string `json:"tenant_id"`
	TenantName     string `json:"tenant_name"`
	TenantCategory string `json:"tenant_category"`
	UnitNumber     string `json:"unit_number"`
	Floor          string `json:"floor"`
}

type TenantAnomaly struct {
	LeaseId    string `json:"lease_id"`
	TenantName string `json:"tenant_name"`
	UnitNumber string `json:"unit_number"`
	Anomaly
}

type RevenueIntelligenceResponse struct {
	Stats        *PortfolioStats         `json:"stats"`
	Tenants      []*TenantRevenueSummary `json:"tenants"`
	NotConnected []*NotConnectedTenant   `json:"notConnected"`
	DailyChart   []DailyChartPoint       `json:"dailyChart"`
	Anomalies    []*TenantAnomaly        `json:"anomalies"`
	Period       ReportingPeriod         `json:"period"`
}

func reconciliationConfigFromEnv() ReconciliationConfig {
	return ReconciliationConfig{
		MinSampleDays:    config.AnomalyMinSampleDays(),
		FlatCVThreshold:  config.FlatPatternCVThreshold(),
		FlatMinDays:      config.FlatPatternMinDays(),
		UnderReportRatio: config.UnderReportRatio(),
	}
}

// GetRevenueIntelligence runs the full reconciliation report for one
// property (or the whole portfolio when propertyId is empty) over the
// [asOf - periodDays, asOf] window.
//
// Per-tenant summaries are independent, so they are computed concurrently;
// aggregation joins on all of them before summing.
func GetRevenueIntelligence(ctx context.Context, propertyId string, periodDays int, asOf time.Time) (*RevenueIntelligenceResponse, error) {
	started := time.Now()
	defer logSlowReport(ctx, "revenue_intelligence", started, map[string]any{"property_id": propertyId, "period": periodDays})

	period := NewReportingPeriod(asOf, periodDays)
	previous := period.Previous()

	cacheKey := fmt.Sprintf("report:revint:%s:%d:%s", propertyId, periodDays, period.End.Format("2006-01-02"))
	if reportCacheEnabled() {
		var cached RevenueIntelligenceResponse
		if ok, err := cacheGet(cacheKey, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	leases, err := models.GetActiveRevenueShareLeases(ctx, propertyId)
	if err != nil {
		return nil, err
	}

	logger := config.GetLogger()

	connected := make([]*models.RevenueShareLease, 0, len(leases))
	notConnected := make([]*NotConnectedTenant, 0)
	for _, lease := range leases {
		// Missing revenue-share percentage is defaulted to 0 by the engine;
		// surface it here as a data-quality concern, not an error.
		if lease.RevenueSharePct == nil {
			logger.WithFields(logrus.Fields{
				"module":   "revenueIntelligenceReport",
				"lease_id": lease.ID,
				"tenant":   lease.TenantName,
			}).Warn("revenue-share lease has no percentage; treating as 0")
		}
		if lease.PosStatus == models.PosConnectionStatusConnected {
			connected = append(connected, lease)
			continue
		}
		notConnected = append(notConnected, &NotConnectedTenant{
			LeaseId:        lease.ID,
			TenantId:       lease.TenantId,
			TenantName:     lease.TenantName,
			TenantCategory: lease.TenantCategory,
			UnitNumber:     lease.UnitNumber,
			Floor:          lease.Floor,
		})
	}

	leaseIds := make([]string, len(connected))
	for i, lease := range connected {
		leaseIds[i] = lease.ID
	}

	salesByLease, err := models.GetDailySalesForLeases(ctx, leaseIds, period.Start, period.End)
	if err != nil {
		return nil, err
	}
	previousTotals, err := models.GetGrossTotalsByLease(ctx, leaseIds, previous.Start, previous.End)
	if err != nil {
		return nil, err
	}

	cfg := reconciliationConfigFromEnv()

	// Embarrassingly parallel map over tenants; the indexed slice keeps the
	// lease-directory order deterministic.
	summaries := make([]*TenantRevenueSummary, len(connected))
	var wg sync.WaitGroup
	for i, lease := range connected {
		wg.Add(1)
		go func(i int, lease *models.RevenueShareLease) {
			defer wg.Done()
			summaries[i] = ComputeTenantRevenue(cfg, lease, salesByLease[lease.ID], previousTotals[lease.ID])
		}(i, lease)
	}
	wg.Wait()

	previousPortfolioTotal := decimal.Zero
	for _, id := range leaseIds {
		previousPortfolioTotal = previousPortfolioTotal.Add(previousTotals[id])
	}

	anomalies := make([]*TenantAnomaly, 0)
	for _, s := range summaries {
		if s.Anomaly == nil {
			continue
		}
		anomalies = append(anomalies, &TenantAnomaly{
			LeaseId:    s.LeaseId,
			TenantName: s.TenantName,
			UnitNumber: s.UnitNumber,
			Anomaly:    *s.Anomaly,
		})
	}

	response := &RevenueIntelligenceResponse{
		Stats:        AggregatePortfolio(summaries, previousPortfolioTotal, len(connected), len(notConnected)),
		Tenants:      summaries,
		NotConnected: notConnected,
		DailyChart:   BuildDailyChart(salesByLease),
		Anomalies:    anomalies,
		Period:       period,
	}

	if reportCacheEnabled() {
		if err := cacheSet(cacheKey, response, reportCacheTTL()); err != nil {
			config.LogError(logger, "revenueIntelligenceReport", "GetRevenueIntelligence", "cacheSet", cacheKey, err)
		}
	}

	return response, nil
}
