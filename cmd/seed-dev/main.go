// seed-dev populates a development database with one property, a handful of
// revenue-share leases, and synthetic POS daily sales covering the last 90
// days (one deliberately flat feed, one with a current-period drop, so the
// revenue-intelligence anomaly flags have something to find).
//
// Usage:
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-dev
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/mallops_backend/config"
	"bitbucket.org/mmdatafocus/mallops_backend/models"
	"bitbucket.org/mmdatafocus/mallops_backend/utils"
	"github.com/shopspring/decimal"
)

const propertyId = "dev-mall-1"

type seedLease struct {
	id       string
	tenant   string
	category string
	unit     string
	floor    string
	pct      float64
	status   models.PosConnectionStatus
	// daily gross generator
	base   float64
	spread float64
	// dropAfter scales sales in the most recent 30 days (1 = no drop).
	dropAfter float64
}

var seedLeases = []seedLease{
	{id: "dev-lease-anchor", tenant: "North Anchor Department Store", category: "Department Store", unit: "G-01", floor: "G", pct: 4, status: models.PosConnectionStatusConnected, base: 220000, spread: 60000, dropAfter: 1},
	{id: "dev-lease-coffee", tenant: "Daily Grind Coffee", category: "F&B", unit: "G-14", floor: "G", pct: 12, status: models.PosConnectionStatusConnected, base: 42000, spread: 15000, dropAfter: 1},
	{id: "dev-lease-flat", tenant: "Placeholder Fashion", category: "Apparel", unit: "1-07", floor: "1", pct: 10, status: models.PosConnectionStatusConnected, base: 50000, spread: 0, dropAfter: 1},
	{id: "dev-lease-drop", tenant: "Vanishing Electronics", category: "Electronics", unit: "2-03", floor: "2", pct: 8, status: models.PosConnectionStatusConnected, base: 90000, spread: 25000, dropAfter: 0.5},
	{id: "dev-lease-offline", tenant: "Paper Kiosk", category: "Convenience", unit: "G-22", floor: "G", pct: 15, status: models.PosConnectionStatusNotConnected, base: 0, spread: 0, dropAfter: 1},
}

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	if err := db.WithContext(ctx).AutoMigrate(
		&models.Property{},
		&models.RevenueShareLease{},
		&models.PosDailySale{},
		&models.IdempotencyKey{},
	); err != nil {
		fmt.Fprintf(os.Stderr, "migrate failed: %v\n", err)
		os.Exit(1)
	}

	property := models.Property{
		ID:       propertyId,
		Name:     "Riverside Mall (dev)",
		Code:     "RVM",
		City:     "Yangon",
		IsActive: utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Save(&property).Error; err != nil {
		fmt.Fprintf(os.Stderr, "seed property failed: %v\n", err)
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(42))
	today := time.Now().UTC().Truncate(24 * time.Hour)

	for _, sl := range seedLeases {
		pct := decimal.NewFromFloat(sl.pct)
		lease := models.RevenueShareLease{
			ID:              sl.id,
			PropertyId:      propertyId,
			TenantId:        sl.id + "-tenant",
			TenantName:      sl.tenant,
			TenantCategory:  sl.category,
			UnitNumber:      sl.unit,
			Floor:           sl.floor,
			RevenueSharePct: &pct,
			PosStatus:       sl.status,
			IsActive:        utils.NewTrue(),
		}
		if err := db.WithContext(ctx).Save(&lease).Error; err != nil {
			fmt.Fprintf(os.Stderr, "seed lease %s failed: %v\n", sl.id, err)
			os.Exit(1)
		}

		if sl.status != models.PosConnectionStatusConnected {
			continue
		}

		var rows []*models.PosDailySale
		for d := 90; d >= 1; d-- {
			date := today.AddDate(0, 0, -d)
			gross := sl.base
			if sl.spread > 0 {
				gross += (rng.Float64()*2 - 1) * sl.spread
			}
			if d <= 30 {
				gross *= sl.dropAfter
			}
			if gross < 0 {
				gross = 0
			}
			rows = append(rows, &models.PosDailySale{
				LeaseId:          sl.id,
				SaleDate:         date,
				GrossSales:       decimal.NewFromFloat(gross).Round(2),
				NetSales:         decimal.NewFromFloat(gross * 0.95).Round(2),
				TransactionCount: 20 + rng.Intn(180),
			})
		}
		if err := models.UpsertPosDailySales(ctx, sl.id, rows); err != nil {
			fmt.Fprintf(os.Stderr, "seed sales for %s failed: %v\n", sl.id, err)
			os.Exit(1)
		}
		fmt.Printf("seeded %s: %d sales rows\n", sl.id, len(rows))
	}

	fmt.Println("dev seed complete")
}
