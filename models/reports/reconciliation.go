package reports

import (
	"fmt"
	"math"
	"sort"

	"bitbucket.org/mmdatafocus/mallops_backend/models"
	"bitbucket.org/mmdatafocus/mallops_backend/utils"
	"github.com/shopspring/decimal"
)

// ReconciliationConfig holds the anomaly-detection thresholds. Defaults are
// the calibrated production values; see config.AnomalyMinSampleDays and
// friends for env overrides.
type ReconciliationConfig struct {
	// MinSampleDays gates anomaly evaluation entirely. Below a week of
	// reported days the statistics are unreliable, so nothing is flagged.
	MinSampleDays int
	// FlatCVThreshold: a coefficient of variation below this over
	// FlatMinDays+ reported days is treated as placeholder data rather than
	// genuine register feeds.
	FlatCVThreshold float64
	FlatMinDays     int
	// UnderReportRatio: current gross below previous * ratio flags a
	// suspicious drop.
	UnderReportRatio float64
}

func DefaultReconciliationConfig() ReconciliationConfig {
	return ReconciliationConfig{
		MinSampleDays:    7,
		FlatCVThreshold:  0.05,
		FlatMinDays:      14,
		UnderReportRatio: 0.6,
	}
}

type Anomaly struct {
	Type           models.AnomalyType     `json:"type"`
	Severity       models.AnomalySeverity `json:"severity"`
	Description    string                 `json:"description"`
	Recommendation string                 `json:"recommendation"`
}

// TenantRevenueSummary is computed fresh per request and never persisted.
type TenantRevenueSummary struct {
	LeaseId        string `json:"lease_id"`
	TenantId       string `json:"tenant_id"`
	TenantName     string `json:"tenant_name"`
	TenantCategory string `json:"tenant_category"`
	UnitNumber     string `json:"unit_number"`
	Floor          string `json:"floor"`
	PosProvider    string `json:"pos_provider,omitempty"`

	GrossSales        decimal.Decimal `json:"gross_sales"`
	TotalTransactions int             `json:"total_transactions"`

	// AvgDailySales divides by days with a recorded row, not calendar days:
	// a sparsely reporting tenant averages over reported days only.
	AvgDailySales   decimal.Decimal `json:"avg_daily_sales"`
	RevenueSharePct decimal.Decimal `json:"revenue_share_pct"`
	RevenueShareDue decimal.Decimal `json:"revenue_share_due"`
	Trend           decimal.Decimal `json:"trend"`
	Anomaly         *Anomaly        `json:"anomaly,omitempty"`
}

type PortfolioStats struct {
	TotalPosRevenue      decimal.Decimal `json:"total_pos_revenue"`
	RevenueTrend         decimal.Decimal `json:"revenue_trend"`
	RevenueShareDue      decimal.Decimal `json:"revenue_share_due"`
	ConnectedStores      int             `json:"connected_stores"`
	TotalRevShareTenants int             `json:"total_rev_share_tenants"`
	NotConnectedCount    int             `json:"not_connected_count"`
}

type DailyChartPoint struct {
	Date             string          `json:"date"`
	GrossSales       decimal.Decimal `json:"gross_sales"`
	TransactionCount int             `json:"transaction_count"`
}

// ComputeTenantRevenue reconciles one lease's current-period POS rows against
// its revenue-share terms and the previous period's gross total.
//
// sales must be the current period's rows ordered by date; it may be empty
// (no POS data yet), which yields a zero-valued summary with no anomaly.
// previousGross is the pre-aggregated gross total of the equal-length
// immediately-preceding window (zero if none).
func ComputeTenantRevenue(cfg ReconciliationConfig, lease *models.RevenueShareLease, sales []*models.PosDailySale, previousGross decimal.Decimal) *TenantRevenueSummary {
	summary := &TenantRevenueSummary{
		LeaseId:         lease.ID,
		TenantId:        lease.TenantId,
		TenantName:      lease.TenantName,
		TenantCategory:  lease.TenantCategory,
		UnitNumber:      lease.UnitNumber,
		Floor:           lease.Floor,
		PosProvider:     utils.DereferencePtr(lease.PosProvider, ""),
		RevenueSharePct: lease.EffectiveRevenueSharePct(),
		GrossSales:      decimal.Zero,
		AvgDailySales:   decimal.Zero,
		RevenueShareDue: decimal.Zero,
		Trend:           decimal.Zero,
	}

	gross := decimal.Zero
	for _, row := range sales {
		gross = gross.Add(row.GrossSales)
		summary.TotalTransactions += row.TransactionCount
	}
	summary.GrossSales = utils.Round2(gross)

	if len(sales) > 0 {
		summary.AvgDailySales = utils.Round2(summary.GrossSales.Div(decimal.NewFromInt(int64(len(sales)))))
	}

	summary.RevenueShareDue = utils.Round2(utils.Percentage(summary.GrossSales, summary.RevenueSharePct))
	summary.Trend = trendPct(summary.GrossSales, previousGross)
	summary.Anomaly = evaluateAnomalies(cfg, sales, summary.GrossSales, previousGross)

	return summary
}

// trendPct is the period-over-period change in percent, one decimal place.
// Zero previous total yields 0 by policy: a tenant going from nothing to
// something shows 0% rather than an infinite trend.
func trendPct(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		return decimal.Zero
	}
	return utils.Round1(current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)))
}

type anomalyInput struct {
	sampleDays    int
	cv            float64
	grossSales    decimal.Decimal
	previousGross decimal.Decimal
}

// anomalyRule yields a flag or nil. Rules are folded in order with
// "last non-nil wins", so a later rule overrides an earlier one when both
// fire. That ordering is load-bearing: under-reporting must win over the
// flat-pattern flag.
type anomalyRule func(cfg ReconciliationConfig, in anomalyInput) *Anomaly

var anomalyRules = []anomalyRule{
	flatPatternRule,
	underReportRule,
}

func evaluateAnomalies(cfg ReconciliationConfig, sales []*models.PosDailySale, grossSales, previousGross decimal.Decimal) *Anomaly {
	if len(sales) < cfg.MinSampleDays {
		return nil
	}

	in := anomalyInput{
		sampleDays:    len(sales),
		cv:            coefficientOfVariation(sales),
		grossSales:    grossSales,
		previousGross: previousGross,
	}

	var flag *Anomaly
	for _, rule := range anomalyRules {
		if a := rule(cfg, in); a != nil {
			flag = a
		}
	}
	return flag
}

// flatPatternRule flags suspiciously uniform reporting. Real retail sales
// fluctuate day to day (weekday/weekend effects, promotions); near-zero
// variance across two-plus weeks suggests manually entered placeholder
// numbers rather than a live POS feed.
func flatPatternRule(cfg ReconciliationConfig, in anomalyInput) *Anomaly {
	if in.sampleDays <= cfg.FlatMinDays {
		return nil
	}
	if in.cv >= cfg.FlatCVThreshold {
		return nil
	}
	return &Anomaly{
		Type:     models.AnomalyTypeFlat,
		Severity: models.AnomalySeverityMedium,
		Description: fmt.Sprintf(
			"Daily sales are nearly identical across %d reported days (coefficient of variation %.3f); genuine retail traffic varies day to day.",
			in.sampleDays, in.cv),
		Recommendation: "Verify the POS integration is live and streaming register data; uniform figures usually mean manually keyed placeholders.",
	}
}

// underReportRule flags a period-over-period drop beyond the configured
// ratio. Strict less-than: a drop to exactly previous*ratio is not flagged.
func underReportRule(cfg ReconciliationConfig, in anomalyInput) *Anomaly {
	if !in.previousGross.IsPositive() {
		return nil
	}
	threshold := in.previousGross.Mul(decimal.NewFromFloat(cfg.UnderReportRatio))
	if in.grossSales.Cmp(threshold) >= 0 {
		return nil
	}
	dropPct := (1 - cfg.UnderReportRatio) * 100
	return &Anomaly{
		Type:     models.AnomalyTypeUnderReport,
		Severity: models.AnomalySeverityHigh,
		Description: fmt.Sprintf(
			"Reported sales fell more than %.0f%% against the previous period (current %s vs previous %s).",
			dropPct, in.grossSales.StringFixed(2), in.previousGross.StringFixed(2)),
		Recommendation: "Schedule a sales audit and cross-check reported totals against bank settlement records for the period.",
	}
}

// coefficientOfVariation is population stddev / mean of the daily gross
// values. Computed in float64: the CV is a dimensionless gate, not money,
// and decimal has no square root.
func coefficientOfVariation(sales []*models.PosDailySale) float64 {
	n := float64(len(sales))
	if n == 0 {
		return 0
	}

	var sum float64
	for _, row := range sales {
		sum += row.GrossSales.InexactFloat64()
	}
	mean := sum / n
	if mean == 0 {
		return 0
	}

	var sqDiff float64
	for _, row := range sales {
		d := row.GrossSales.InexactFloat64() - mean
		sqDiff += d * d
	}
	// Population variance (divide by N, not N-1).
	return math.Sqrt(sqDiff/n) / mean
}

// AggregatePortfolio rolls tenant summaries up to portfolio level.
// previousTotal is the previous-period gross across the same tenants; the
// trend zero-guard matches the per-tenant rule.
func AggregatePortfolio(summaries []*TenantRevenueSummary, previousTotal decimal.Decimal, connected, notConnected int) *PortfolioStats {
	totalRevenue := decimal.Zero
	totalShareDue := decimal.Zero
	for _, s := range summaries {
		totalRevenue = totalRevenue.Add(s.GrossSales)
		totalShareDue = totalShareDue.Add(s.RevenueShareDue)
	}

	return &PortfolioStats{
		TotalPosRevenue:      utils.Round2(totalRevenue),
		RevenueTrend:         trendPct(utils.Round2(totalRevenue), previousTotal),
		RevenueShareDue:      utils.Round2(totalShareDue),
		ConnectedStores:      connected,
		TotalRevShareTenants: connected + notConnected,
		NotConnectedCount:    notConnected,
	}
}

// BuildDailyChart groups every tenant's rows by calendar date and sums gross
// sales and transactions per date, ordered by date. Dates with no
// contributing tenant are absent, not zero-filled; the payload carries the
// period bounds so renderers can densify client-side.
func BuildDailyChart(salesByLease map[string][]*models.PosDailySale) []DailyChartPoint {
	byDate := make(map[string]*DailyChartPoint)
	for _, rows := range salesByLease {
		for _, row := range rows {
			key := row.SaleDate.UTC().Format("2006-01-02")
			point, ok := byDate[key]
			if !ok {
				point = &DailyChartPoint{Date: key, GrossSales: decimal.Zero}
				byDate[key] = point
			}
			point.GrossSales = point.GrossSales.Add(row.GrossSales)
			point.TransactionCount += row.TransactionCount
		}
	}

	chart := make([]DailyChartPoint, 0, len(byDate))
	for _, point := range byDate {
		point.GrossSales = utils.Round2(point.GrossSales)
		chart = append(chart, *point)
	}
	sort.Slice(chart, func(i, j int) bool { return chart[i].Date < chart[j].Date })
	return chart
}
