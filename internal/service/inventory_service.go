package service

import (
	"context"
	"errors"
	"time"

	"clinicflow/internal/apperr"
	"clinicflow/internal/dto"
	"clinicflow/internal/infra"
	"clinicflow/internal/metrics"
	"clinicflow/internal/model"
	"clinicflow/internal/repository"
	"clinicflow/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type InventoryService interface {
	CreateItem(ctx context.Context, actor Actor, req dto.CreateItemRequest) (*dto.ItemResponse, error)
	GetItem(ctx context.Context, actor Actor, id uuid.UUID) (*dto.ItemResponse, error)
	ListItems(ctx context.Context, actor Actor, filter dto.ItemFilter) (*dto.ItemListResponse, error)
	UpdateItem(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateItemRequest) (*dto.ItemResponse, error)

	// Adjust applies a stock adjustment atomically: the item's quantity update
	// and the ledger entry commit in one transaction, with the item row locked
	// for the duration.
	Adjust(ctx context.Context, actor Actor, itemID uuid.UUID, req dto.AdjustStockRequest) (*dto.TransactionResponse, error)
	// AdjustInTx is Adjust's core for callers that already hold a transaction
	// (e.g. dispensing a prescription). Side effects are deferred: call
	// PublishAdjusted after the surrounding transaction commits.
	AdjustInTx(tx *gorm.DB, actor Actor, clinicID, itemID uuid.UUID, req dto.AdjustStockRequest, reference *uuid.UUID) (*model.InventoryTransaction, error)
	// PublishAdjusted invalidates the stats cache and queues alert evaluation.
	PublishAdjusted(ctx context.Context, clinicID, itemID uuid.UUID)

	ListTransactions(ctx context.Context, actor Actor, filter dto.TransactionFilter) (*dto.TransactionListResponse, error)
	Stats(ctx context.Context, actor Actor) (*dto.InventoryStatsResponse, error)
	ListAlerts(ctx context.Context, actor Actor) ([]dto.StockAlertResponse, error)
	ResolveAlert(ctx context.Context, actor Actor, id uuid.UUID) error
}

type inventoryService struct {
	itemRepo   repository.InventoryItemRepository
	txnRepo    repository.InventoryTxnRepository
	alertRepo  repository.StockAlertRepository
	cache      *infra.Cache
	dispatcher *worker.Dispatcher
	statsTTL   time.Duration
}

func NewInventoryService(
	itemRepo repository.InventoryItemRepository,
	txnRepo repository.InventoryTxnRepository,
	alertRepo repository.StockAlertRepository,
	cache *infra.Cache,
	dispatcher *worker.Dispatcher,
	statsTTL time.Duration,
) InventoryService {
	return &inventoryService{
		itemRepo:   itemRepo,
		txnRepo:    txnRepo,
		alertRepo:  alertRepo,
		cache:      cache,
		dispatcher: dispatcher,
		statsTTL:   statsTTL,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

func statsCacheKey(clinicID uuid.UUID) string {
	return "stats:inventory:" + clinicID.String()
}

// ── Items ─────────────────────────────────────────────────────────────────────

func (s *inventoryService) CreateItem(ctx context.Context, actor Actor, req dto.CreateItemRequest) (*dto.ItemResponse, error) {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return nil, err
	}

	if _, err := s.itemRepo.FindBySKU(ctx, clinicID, req.SKU); err == nil {
		return nil, apperr.Conflict("an item with SKU %q already exists", req.SKU)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Persistence("could not check SKU uniqueness", err)
	}

	item := &model.InventoryItem{
		ClinicID:        clinicID,
		SKU:             req.SKU,
		Name:            req.Name,
		Category:        req.Category,
		Quantity:        req.Quantity,
		MinQuantity:     req.MinQuantity,
		MaxQuantity:     req.MaxQuantity,
		UnitPrice:       req.UnitPrice,
		Status:          model.ItemActive,
		SupplierName:    req.SupplierName,
		SupplierContact: req.SupplierContact,
		BatchNumber:     req.BatchNumber,
		CreatedBy:       actor.ID,
	}
	if req.ExpiryDate != nil {
		t, perr := time.Parse("2006-01-02", *req.ExpiryDate)
		if perr != nil {
			return nil, apperr.Validation("expiry_date must be YYYY-MM-DD")
		}
		item.ExpiryDate = &t
	}

	// The item row and its opening-stock ledger row commit together so the
	// quantity always equals the ledger's running total.
	txErr := runTx(ctx, s.itemRepo.DB(), func(tx *gorm.DB) error {
		if err := s.itemRepo.CreateTx(tx, item); err != nil {
			return apperr.Persistence("could not create inventory item", err)
		}
		if item.Quantity > 0 {
			txn := &model.InventoryTransaction{
				ClinicID:         clinicID,
				ItemID:           item.ID,
				Type:             model.TxnIn,
				Quantity:         item.Quantity,
				PreviousQuantity: 0,
				NewQuantity:      item.Quantity,
				Reason:           "initial stock",
				PerformedBy:      actor.ID,
			}
			if err := s.txnRepo.CreateTx(tx, txn); err != nil {
				return apperr.Persistence("could not record opening stock", err)
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.cache.Delete(ctx, statsCacheKey(clinicID))
	return itemToResponse(item), nil
}

func (s *inventoryService) GetItem(ctx context.Context, actor Actor, id uuid.UUID) (*dto.ItemResponse, error) {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return nil, err
	}
	item, err := s.itemRepo.FindByID(ctx, clinicID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("inventory item not found")
		}
		return nil, apperr.Persistence("could not load inventory item", err)
	}
	return itemToResponse(item), nil
}

func (s *inventoryService) ListItems(ctx context.Context, actor Actor, filter dto.ItemFilter) (*dto.ItemListResponse, error) {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return nil, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	items, total, err := s.itemRepo.List(ctx, clinicID, filter)
	if err != nil {
		return nil, apperr.Persistence("could not list inventory items", err)
	}
	data := make([]dto.ItemResponse, 0, len(items))
	for i := range items {
		data = append(data, *itemToResponse(&items[i]))
	}
	return &dto.ItemListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *inventoryService) UpdateItem(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateItemRequest) (*dto.ItemResponse, error) {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return nil, err
	}
	item, err := s.itemRepo.FindByID(ctx, clinicID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("inventory item not found")
		}
		return nil, apperr.Persistence("could not load inventory item", err)
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.MinQuantity != nil {
		item.MinQuantity = *req.MinQuantity
	}
	if req.MaxQuantity != nil {
		item.MaxQuantity = req.MaxQuantity
	}
	if req.UnitPrice != nil {
		item.UnitPrice = *req.UnitPrice
	}
	if req.Status != nil {
		item.Status = *req.Status
	}
	if req.SupplierName != nil {
		item.SupplierName = req.SupplierName
	}
	if req.SupplierContact != nil {
		item.SupplierContact = req.SupplierContact
	}
	if req.BatchNumber != nil {
		item.BatchNumber = req.BatchNumber
	}
	if req.ExpiryDate != nil {
		t, perr := time.Parse("2006-01-02", *req.ExpiryDate)
		if perr != nil {
			return nil, apperr.Validation("expiry_date must be YYYY-MM-DD")
		}
		item.ExpiryDate = &t
	}
	updatedBy := actor.ID
	item.UpdatedBy = &updatedBy

	if err := s.itemRepo.Update(ctx, item); err != nil {
		return nil, apperr.Persistence("could not update inventory item", err)
	}

	s.cache.Delete(ctx, statsCacheKey(clinicID))
	return itemToResponse(item), nil
}

// ── Adjustments ───────────────────────────────────────────────────────────────

// signedDelta normalizes the request delta per adjustment type: "in" always
// adds, "out" always subtracts, "adjustment" applies the delta as given.
func signedDelta(adjType string, delta int) int {
	abs := delta
	if abs < 0 {
		abs = -abs
	}
	switch adjType {
	case model.TxnIn:
		return abs
	case model.TxnOut:
		return -abs
	default:
		return delta
	}
}

func (s *inventoryService) Adjust(ctx context.Context, actor Actor, itemID uuid.UUID, req dto.AdjustStockRequest) (*dto.TransactionResponse, error) {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return nil, err
	}

	var txn *model.InventoryTransaction
	txErr := runTx(ctx, s.itemRepo.DB(), func(tx *gorm.DB) error {
		var err error
		txn, err = s.AdjustInTx(tx, actor, clinicID, itemID, req, nil)
		return err
	})
	if txErr != nil {
		outcome := "failed"
		if apperr.IsKind(txErr, apperr.KindInvalidOperation) {
			outcome = "rejected"
		}
		metrics.StockAdjustmentsTotal.WithLabelValues(req.Type, outcome).Inc()
		return nil, txErr
	}

	metrics.StockAdjustmentsTotal.WithLabelValues(req.Type, "ok").Inc()
	s.PublishAdjusted(ctx, clinicID, itemID)
	return txnToResponse(txn), nil
}

func (s *inventoryService) AdjustInTx(tx *gorm.DB, actor Actor, clinicID, itemID uuid.UUID, req dto.AdjustStockRequest, reference *uuid.UUID) (*model.InventoryTransaction, error) {
	delta := signedDelta(req.Type, req.Delta)
	if delta == 0 {
		return nil, apperr.Validation("delta must be non-zero")
	}

	item, err := s.itemRepo.FindByIDTxLocked(tx, clinicID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("inventory item not found")
		}
		return nil, apperr.Persistence("could not load inventory item", err)
	}

	newQuantity := item.Quantity + delta
	if newQuantity < 0 {
		return nil, apperr.InvalidOperation(
			"adjustment would drive stock negative: %d on hand, %+d requested", item.Quantity, delta)
	}

	txn := &model.InventoryTransaction{
		ClinicID:         clinicID,
		ItemID:           item.ID,
		Type:             req.Type,
		Quantity:         delta,
		PreviousQuantity: item.Quantity,
		NewQuantity:      newQuantity,
		Reason:           req.Reason,
		Notes:            req.Notes,
		Reference:        reference,
		PerformedBy:      actor.ID,
	}
	if err := s.txnRepo.CreateTx(tx, txn); err != nil {
		return nil, apperr.Persistence("could not record stock movement", err)
	}
	if err := s.itemRepo.UpdateQuantityTx(tx, item.ID, newQuantity, actor.ID); err != nil {
		return nil, apperr.Persistence("could not update item quantity", err)
	}
	txn.Item = item
	return txn, nil
}

func (s *inventoryService) PublishAdjusted(ctx context.Context, clinicID, itemID uuid.UUID) {
	s.cache.Delete(ctx, statsCacheKey(clinicID))
	if s.dispatcher == nil {
		return
	}
	payload := worker.StockAlertJobPayload{
		ItemID:   itemID.String(),
		ClinicID: clinicID.String(),
	}
	if err := s.dispatcher.EnqueueStockAlert(ctx, payload); err != nil {
		// Best effort: a missed alert job never fails the adjustment.
		log.Warn().Err(err).Str("item_id", itemID.String()).Msg("inventory: failed to enqueue stock alert job")
	}
}

func (s *inventoryService) ListTransactions(ctx context.Context, actor Actor, filter dto.TransactionFilter) (*dto.TransactionListResponse, error) {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return nil, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 100
	}
	txns, total, err := s.txnRepo.List(ctx, clinicID, filter)
	if err != nil {
		return nil, apperr.Persistence("could not list stock movements", err)
	}
	data := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		data = append(data, *txnToResponse(&txns[i]))
	}
	return &dto.TransactionListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// ── Stats ─────────────────────────────────────────────────────────────────────

// Stats serves the inventory aggregate through the Redis read-through cache.
// A cold cache, a tripped breaker or any Redis failure falls back to the DB.
func (s *inventoryService) Stats(ctx context.Context, actor Actor) (*dto.InventoryStatsResponse, error) {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return nil, err
	}

	key := statsCacheKey(clinicID)
	var cached dto.InventoryStatsResponse
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	stats, err := s.itemRepo.Stats(ctx, clinicID)
	if err != nil {
		return nil, apperr.Persistence("could not aggregate inventory stats", err)
	}
	s.cache.SetJSON(ctx, key, stats, s.statsTTL)
	return stats, nil
}

// ── Alerts ────────────────────────────────────────────────────────────────────

func (s *inventoryService) ListAlerts(ctx context.Context, actor Actor) ([]dto.StockAlertResponse, error) {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return nil, err
	}
	alerts, err := s.alertRepo.ListUnresolved(ctx, clinicID)
	if err != nil {
		return nil, apperr.Persistence("could not list stock alerts", err)
	}
	resp := make([]dto.StockAlertResponse, 0, len(alerts))
	for _, a := range alerts {
		item := ""
		if a.Item != nil {
			item = a.Item.Name
		}
		resp = append(resp, dto.StockAlertResponse{
			ID:        a.ID.String(),
			ItemID:    a.ItemID.String(),
			ItemName:  item,
			Level:     a.Level,
			Quantity:  a.Quantity,
			Resolved:  a.Resolved,
			CreatedAt: a.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp, nil
}

func (s *inventoryService) ResolveAlert(ctx context.Context, actor Actor, id uuid.UUID) error {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return err
	}
	if err := s.alertRepo.Resolve(ctx, clinicID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("stock alert not found")
		}
		return apperr.Persistence("could not resolve stock alert", err)
	}
	return nil
}

// ── Mappers ───────────────────────────────────────────────────────────────────

func itemToResponse(item *model.InventoryItem) *dto.ItemResponse {
	var expiry *string
	if item.ExpiryDate != nil {
		e := item.ExpiryDate.Format("2006-01-02")
		expiry = &e
	}
	return &dto.ItemResponse{
		ID:              item.ID.String(),
		SKU:             item.SKU,
		Name:            item.Name,
		Category:        item.Category,
		Quantity:        item.Quantity,
		MinQuantity:     item.MinQuantity,
		MaxQuantity:     item.MaxQuantity,
		UnitPrice:       item.UnitPrice,
		Status:          item.Status,
		SupplierName:    item.SupplierName,
		SupplierContact: item.SupplierContact,
		BatchNumber:     item.BatchNumber,
		ExpiryDate:      expiry,
	}
}

func txnToResponse(txn *model.InventoryTransaction) *dto.TransactionResponse {
	name := ""
	if txn.Item != nil {
		name = txn.Item.Name
	}
	return &dto.TransactionResponse{
		ID:               txn.ID.String(),
		ItemID:           txn.ItemID.String(),
		ItemName:         name,
		Type:             txn.Type,
		Quantity:         txn.Quantity,
		PreviousQuantity: txn.PreviousQuantity,
		NewQuantity:      txn.NewQuantity,
		Reason:           txn.Reason,
		Notes:            txn.Notes,
		Reference:        refString(txn.Reference),
		PerformedBy:      txn.PerformedBy.String(),
		CreatedAt:        txn.CreatedAt.Format(time.RFC3339),
	}
}

func refString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
