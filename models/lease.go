package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/mallops_backend/config"
	"bitbucket.org/mmdatafocus/mallops_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RevenueShareLease is one leased unit billed on a percentage of reported
// sales. The revenue-share percentage is fixed for a reporting window;
// mid-period proration is not modeled.
type RevenueShareLease struct {
	ID              string              `gorm:"primary_key;size:64" json:"id"`
	PropertyId      string              `gorm:"index;size:64;not null" json:"property_id"`
	TenantId        string              `gorm:"index;size:64;not null" json:"tenant_id"`
	TenantName      string              `gorm:"size:255;not null" json:"tenant_name"`
	TenantCategory  string              `gorm:"size:100" json:"tenant_category"`
	UnitNumber      string              `gorm:"size:50;not null" json:"unit_number"`
	Floor           string              `gorm:"size:50" json:"floor"`
	RevenueSharePct *decimal.Decimal    `gorm:"type:decimal(5,2)" json:"revenue_share_pct"`
	PosStatus       PosConnectionStatus `gorm:"type:enum('connected','not_connected');not null;default:'not_connected'" json:"pos_status"`
	PosProvider     *string             `gorm:"size:100" json:"pos_provider"`
	IsActive        *bool               `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewRevenueShareLease struct {
	PropertyId      string           `json:"property_id" binding:"required"`
	TenantId        string           `json:"tenant_id" binding:"required"`
	TenantName      string           `json:"tenant_name" binding:"required"`
	TenantCategory  string           `json:"tenant_category"`
	UnitNumber      string           `json:"unit_number" binding:"required"`
	Floor           string           `json:"floor"`
	RevenueSharePct *decimal.Decimal `json:"revenue_share_pct"`
	PosProvider     *string          `json:"pos_provider"`
}

// EffectiveRevenueSharePct treats a missing percentage as 0 rather than an
// error. The caller logs it as a data-quality concern.
func (l *RevenueShareLease) EffectiveRevenueSharePct() decimal.Decimal {
	if l.RevenueSharePct == nil {
		return decimal.Zero
	}
	return *l.RevenueSharePct
}

func (input *NewRevenueShareLease) validate(ctx context.Context) error {
	if _, err := GetPropertyById(ctx, input.PropertyId); err != nil {
		return errors.New("property not found")
	}
	if input.RevenueSharePct != nil {
		pct := *input.RevenueSharePct
		if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
			return errors.New("revenue share percentage must be between 0 and 100")
		}
	}
	return nil
}

func CreateRevenueShareLease(ctx context.Context, input *NewRevenueShareLease) (*RevenueShareLease, error) {

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	lease := RevenueShareLease{
		ID:              uuid.NewString(),
		PropertyId:      input.PropertyId,
		TenantId:        input.TenantId,
		TenantName:      input.TenantName,
		TenantCategory:  input.TenantCategory,
		UnitNumber:      input.UnitNumber,
		Floor:           input.Floor,
		RevenueSharePct: input.RevenueSharePct,
		PosStatus:       PosConnectionStatusNotConnected,
		PosProvider:     input.PosProvider,
		IsActive:        utils.NewTrue(),
	}

	// db action
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&lease).Error; err != nil {
		return nil, err
	}

	return &lease, nil
}

// GetActiveRevenueShareLeases returns the lease directory the reconciliation
// report runs over. propertyId is an optional filter; empty means the whole
// portfolio.
func GetActiveRevenueShareLeases(ctx context.Context, propertyId string) ([]*RevenueShareLease, error) {
	db := config.GetDB()

	q := db.WithContext(ctx).
		Model(&RevenueShareLease{}).
		Where("is_active = ?", true)
	if propertyId != "" {
		q = q.Where("property_id = ?", propertyId)
	}

	var leases []*RevenueShareLease
	if err := q.Order("unit_number").Find(&leases).Error; err != nil {
		return nil, err
	}
	return leases, nil
}
