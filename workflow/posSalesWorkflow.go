package workflow

import (
	"context"
	"errors"
	"fmt"

	"bitbucket.org/mmdatafocus/mallops_backend/config"
	"bitbucket.org/mmdatafocus/mallops_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const HandlerPosSalesSync = "POS_SALES_SYNC"

// ErrPoisonSalesMessage marks a message that will never succeed on retry
// (unknown lease, invalid rows in strict mode). The push handler acks these
// instead of letting the broker redeliver forever.
var ErrPoisonSalesMessage = errors.New("sales sync message rejected")

// PosSalesSyncMessage is the payload the POS providers push, one message per
// lease per sync run. MessageId comes from the push envelope and drives
// dedupe.
type PosSalesSyncMessage struct {
	MessageId     string                   `json:"-"`
	LeaseId       string                   `json:"lease_id"`
	Provider      string                   `json:"provider"`
	Rows          []models.NewPosDailySale `json:"rows"`
	CorrelationId string                   `json:"correlation_id"`
}

// ProcessSalesSyncMessage ingests one sync batch with at-least-once safety:
// durable idempotency on (handler, message_id), validation of the sales >= 0
// invariant, and grain-level upsert so re-delivery cannot double-count.
func ProcessSalesSyncMessage(ctx context.Context, logger *logrus.Logger, msg PosSalesSyncMessage) error {
	if msg.LeaseId == "" || msg.MessageId == "" {
		return fmt.Errorf("%w: lease_id and message id are required", ErrPoisonSalesMessage)
	}

	db := config.GetDB()

	var lease models.RevenueShareLease
	if err := db.WithContext(ctx).Where("id = ?", msg.LeaseId).First(&lease).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: unknown lease %s", ErrPoisonSalesMessage, msg.LeaseId)
		}
		return err
	}

	rows, rejected := validateRows(logger, msg)
	if rejected > 0 && config.StrictSalesIngestion() {
		return fmt.Errorf("%w: %d invalid row(s) in batch for lease %s", ErrPoisonSalesMessage, rejected, msg.LeaseId)
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skip, err := BeginIdempotency(tx, HandlerPosSalesSync, msg.MessageId)
		if err != nil {
			return err
		}
		if skip {
			return nil
		}

		if len(rows) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "lease_id"}, {Name: "sale_date"}},
				DoUpdates: clause.AssignmentColumns([]string{"gross_sales", "net_sales", "transaction_count", "updated_at"}),
			}).Create(&rows).Error; err != nil {
				return err
			}
		}

		return MarkIdempotencySucceeded(tx, HandlerPosSalesSync, msg.MessageId)
	})
	if err != nil {
		if markErr := MarkIdempotencyFailed(db.WithContext(ctx), HandlerPosSalesSync, msg.MessageId, err); markErr != nil {
			config.LogError(logger, "posSalesWorkflow", "ProcessSalesSyncMessage", "MarkIdempotencyFailed", msg.MessageId, markErr)
		}
		return err
	}

	logger.WithFields(logrus.Fields{
		"module":         "posSalesWorkflow",
		"lease_id":       msg.LeaseId,
		"provider":       msg.Provider,
		"rows":           len(rows),
		"rejected":       rejected,
		"correlation_id": msg.CorrelationId,
	}).Info("pos sales batch ingested")

	return nil
}

// validateRows enforces the ingestion invariant (sales >= 0). Invalid rows
// are skipped (and counted) unless strict mode fails the whole batch.
func validateRows(logger *logrus.Logger, msg PosSalesSyncMessage) (rows []*models.PosDailySale, rejected int) {
	for _, input := range msg.Rows {
		if err := input.Validate(); err != nil {
			rejected++
			logger.WithFields(logrus.Fields{
				"module":    "posSalesWorkflow",
				"lease_id":  msg.LeaseId,
				"sale_date": input.SaleDate.Format("2006-01-02"),
			}).Warn("skipping invalid sales row: " + err.Error())
			continue
		}
		rows = append(rows, &models.PosDailySale{
			LeaseId:          msg.LeaseId,
			SaleDate:         input.SaleDate,
			GrossSales:       input.GrossSales,
			NetSales:         input.NetSales,
			TransactionCount: input.TransactionCount,
		})
	}
	return rows, rejected
}
