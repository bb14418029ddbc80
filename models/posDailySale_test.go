package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewPosDailySale_ValidateBoundaries(t *testing.T) {
	valid := NewPosDailySale{SaleDate: time.Now(), GrossSales: decimal.Zero, NetSales: decimal.Zero}
	if err := valid.Validate(); err != nil {
		t.Fatalf("zero amounts must be valid: %v", err)
	}

	negative := NewPosDailySale{SaleDate: time.Now(), GrossSales: decimal.NewFromInt(-1)}
	if err := negative.Validate(); err == nil {
		t.Fatal("negative gross must be rejected")
	}
}

func TestStampLeaseId_OverridesStrayRowValues(t *testing.T) {
	rows := []*PosDailySale{
		{SaleDate: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), GrossSales: decimal.NewFromInt(100)},
		{LeaseId: "some-other-lease", SaleDate: time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC), GrossSales: decimal.NewFromInt(200)},
	}

	stampLeaseId("lease-1", rows)

	for i, row := range rows {
		if row.LeaseId != "lease-1" {
			t.Fatalf("row %d lease id = %q, want lease-1", i, row.LeaseId)
		}
	}
}
