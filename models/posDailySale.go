package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/mallops_backend/config"
	"bitbucket.org/mmdatafocus/mallops_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// PosDailySale is one synced POS row per (lease, calendar date).
//
// Grain: (lease_id, sale_date). Rows are immutable once recorded; the sync
// workflow upserts the same grain on re-delivery rather than appending.
// Amounts are guaranteed non-negative at ingestion (NewPosDailySale.Validate);
// the reporting engine does not re-check.
type PosDailySale struct {
	LeaseId          string          `gorm:"primaryKey;size:64;index:idx_pds_lease_date,priority:1" json:"lease_id"`
	SaleDate         time.Time       `gorm:"primaryKey;index:idx_pds_lease_date,priority:2" json:"sale_date"`
	GrossSales       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"gross_sales"`
	NetSales         decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"net_sales"`
	TransactionCount int             `gorm:"not null;default:0" json:"transaction_count"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPosDailySale struct {
	SaleDate         time.Time       `json:"sale_date" binding:"required"`
	GrossSales       decimal.Decimal `json:"gross_sales"`
	NetSales         decimal.Decimal `json:"net_sales"`
	TransactionCount int             `json:"transaction_count"`
}

// Validate enforces the domain invariant (sales >= 0) at ingestion.
// Downstream arithmetic is total for any input, so this is the only gate.
func (input *NewPosDailySale) Validate() error {
	if input.GrossSales.IsNegative() || input.NetSales.IsNegative() || input.TransactionCount < 0 {
		return utils.ErrorInvalidSalesAmount
	}
	return nil
}

// UpsertPosDailySales writes a batch of synced rows for one lease.
// Re-delivered rows overwrite the same (lease_id, sale_date) grain.
func UpsertPosDailySales(ctx context.Context, leaseId string, rows []*PosDailySale) error {
	if len(rows) == 0 {
		return nil
	}
	stampLeaseId(leaseId, rows)
	db := config.GetDB()
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "lease_id"}, {Name: "sale_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"gross_sales", "net_sales", "transaction_count", "updated_at"}),
		}).
		Create(&rows).Error
}

// stampLeaseId forces every row onto the batch's lease: the caller addresses
// the batch by lease id, so a stray LeaseId inside a row never wins.
func stampLeaseId(leaseId string, rows []*PosDailySale) {
	for _, row := range rows {
		row.LeaseId = leaseId
	}
}

// GetDailySalesForLeases returns rows within [start, end] for a set of
// leases, keyed by lease and ordered by date within each lease.
func GetDailySalesForLeases(ctx context.Context, leaseIds []string, start, end time.Time) (map[string][]*PosDailySale, error) {
	byLease := make(map[string][]*PosDailySale, len(leaseIds))
	if len(leaseIds) == 0 {
		return byLease, nil
	}

	db := config.GetDB()

	var rows []*PosDailySale
	if err := db.WithContext(ctx).
		Where("lease_id IN ?", leaseIds).
		Where("sale_date >= ? AND sale_date <= ?", start, end).
		Order("lease_id, sale_date").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		byLease[row.LeaseId] = append(byLease[row.LeaseId], row)
	}
	return byLease, nil
}

// GetGrossTotalsByLease pre-aggregates gross sales per lease for a window.
// One GROUP BY instead of a query per tenant; leases with no rows are simply
// absent from the result.
func GetGrossTotalsByLease(ctx context.Context, leaseIds []string, start, end time.Time) (map[string]decimal.Decimal, error) {
	totals := make(map[string]decimal.Decimal, len(leaseIds))
	if len(leaseIds) == 0 {
		return totals, nil
	}

	db := config.GetDB()

	query := `
    SELECT
        lease_id,
        SUM(gross_sales) AS total
    FROM
        pos_daily_sales
    WHERE
        lease_id IN ?
        AND sale_date >= ?
        AND sale_date <= ?
    GROUP BY
        lease_id;`

	rows, err := db.WithContext(ctx).Raw(query, leaseIds, start, end).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var leaseId string
		var total decimal.Decimal
		if err := rows.Scan(&leaseId, &total); err != nil {
			return nil, err
		}
		totals[leaseId] = total
	}
	return totals, rows.Err()
}
