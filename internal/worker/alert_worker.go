package worker

// alert_worker.go
// Processes stock-level evaluation jobs from QueueStockAlerts.
// The adjustment service enqueues a job after every committed adjustment;
// the worker decides whether to open or resolve alerts based on the item's
// quantity relative to its minimum. At most one unresolved alert exists per
// item and level.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"clinicflow/internal/metrics"
	"clinicflow/internal/model"
	"clinicflow/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// StockAlertJobPayload is the job envelope sent to QueueStockAlerts.
type StockAlertJobPayload struct {
	ItemID   string `json:"item_id"`
	ClinicID string `json:"clinic_id"`
}

type AlertWorker struct {
	alertRepo repository.StockAlertRepository
	itemRepo  repository.InventoryItemRepository
	rdb       *redis.Client
}

func NewAlertWorker(
	alertRepo repository.StockAlertRepository,
	itemRepo repository.InventoryItemRepository,
	rdb *redis.Client,
) *AlertWorker {
	return &AlertWorker{alertRepo: alertRepo, itemRepo: itemRepo, rdb: rdb}
}

// Process handles a single stock-alert job:
//  1. Parse StockAlertJobPayload from the job envelope
//  2. Re-read the item — the quantity at enqueue time may be stale
//  3. Open the alert matching the current level, resolve stale ones
//
// DB writes are retried with backoff; a job that still fails goes to the DLQ.
func (w *AlertWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload StockAlertJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("alert_worker: invalid payload")
		metrics.JobsProcessedTotal.WithLabelValues(QueueStockAlerts, "invalid").Inc()
		return
	}

	itemID, err := uuid.Parse(payload.ItemID)
	if err != nil {
		log.Error().Str("item_id", payload.ItemID).Msg("alert_worker: invalid item_id")
		metrics.JobsProcessedTotal.WithLabelValues(QueueStockAlerts, "invalid").Inc()
		return
	}
	clinicID, err := uuid.Parse(payload.ClinicID)
	if err != nil {
		log.Error().Str("clinic_id", payload.ClinicID).Msg("alert_worker: invalid clinic_id")
		metrics.JobsProcessedTotal.WithLabelValues(QueueStockAlerts, "invalid").Inc()
		return
	}

	item, err := w.itemRepo.FindByID(ctx, clinicID, itemID)
	if err != nil {
		log.Error().Err(err).Str("item_id", payload.ItemID).Msg("alert_worker: item not found")
		metrics.JobsProcessedTotal.WithLabelValues(QueueStockAlerts, "failed").Inc()
		return
	}

	retryErr := withRetry(ctx, 3, func(attempt int) error {
		if attempt > 0 {
			log.Warn().
				Int("attempt", attempt+1).
				Str("item_id", payload.ItemID).
				Msg("alert_worker: retrying alert sync")
		}
		return w.syncAlerts(ctx, item)
	})
	if retryErr != nil {
		log.Error().Err(retryErr).Str("item_id", payload.ItemID).Msg("alert_worker: failed after all retries")
		SendToDLQ(ctx, w.rdb, QueueStockAlerts, "stock_alert", raw,
			fmt.Sprintf("alert sync failed after 3 retries: %v", retryErr), 3)
		metrics.JobsProcessedTotal.WithLabelValues(QueueStockAlerts, "dead_lettered").Inc()
		return
	}

	metrics.JobsProcessedTotal.WithLabelValues(QueueStockAlerts, "ok").Inc()
}

// syncAlerts reconciles the item's open alerts with its current quantity.
func (w *AlertWorker) syncAlerts(ctx context.Context, item *model.InventoryItem) error {
	var level string
	switch {
	case item.Quantity == 0:
		level = model.AlertOut
	case item.Quantity <= item.MinQuantity:
		level = model.AlertLow
	}

	// Stock recovered above the minimum — close everything.
	if level == "" {
		return w.alertRepo.ResolveForItem(ctx, item.ID)
	}

	// Close the alert for the level the item is no longer at.
	other := model.AlertLow
	if level == model.AlertLow {
		other = model.AlertOut
	}
	if stale, err := w.alertRepo.FindUnresolved(ctx, item.ID, other); err == nil {
		if rerr := w.alertRepo.Resolve(ctx, item.ClinicID, stale.ID); rerr != nil {
			return rerr
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	// Open the current level's alert unless one is already open.
	_, err := w.alertRepo.FindUnresolved(ctx, item.ID, level)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	alert := &model.StockAlert{
		ClinicID: item.ClinicID,
		ItemID:   item.ID,
		Level:    level,
		Quantity: item.Quantity,
	}
	if err := w.alertRepo.Create(ctx, alert); err != nil {
		return err
	}

	log.Info().
		Str("item_id", item.ID.String()).
		Str("level", level).
		Int("quantity", item.Quantity).
		Msg("alert_worker: stock alert opened")
	return nil
}
