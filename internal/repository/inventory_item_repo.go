package repository

import (
	"context"

	"clinicflow/internal/dto"
	"clinicflow/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryItemRepository interface {
	// CreateTx inserts the item inside the caller's transaction so the
	// opening-stock ledger row commits or rolls back with it.
	CreateTx(tx *gorm.DB, item *model.InventoryItem) error
	FindByID(ctx context.Context, clinicID, id uuid.UUID) (*model.InventoryItem, error)
	// FindByIDTxLocked loads the item with a FOR UPDATE row lock; adjustments
	// call this inside their transaction so concurrent writers serialize.
	FindByIDTxLocked(tx *gorm.DB, clinicID, id uuid.UUID) (*model.InventoryItem, error)
	FindBySKU(ctx context.Context, clinicID uuid.UUID, sku string) (*model.InventoryItem, error)
	List(ctx context.Context, clinicID uuid.UUID, filter dto.ItemFilter) ([]model.InventoryItem, int64, error)
	Update(ctx context.Context, item *model.InventoryItem) error
	// UpdateQuantityTx sets the cached quantity (and audit field) inside the
	// adjustment transaction.
	UpdateQuantityTx(tx *gorm.DB, id uuid.UUID, quantity int, updatedBy uuid.UUID) error
	Stats(ctx context.Context, clinicID uuid.UUID) (*dto.InventoryStatsResponse, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type inventoryItemRepo struct{ db *gorm.DB }

func NewInventoryItemRepository(db *gorm.DB) InventoryItemRepository {
	return &inventoryItemRepo{db: db}
}

func (r *inventoryItemRepo) DB() *gorm.DB { return r.db }

func (r *inventoryItemRepo) CreateTx(tx *gorm.DB, item *model.InventoryItem) error {
	return tx.Create(item).Error
}

func (r *inventoryItemRepo) FindByID(ctx context.Context, clinicID, id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := r.db.WithContext(ctx).Where("clinic_id = ?", clinicID).First(&item, id).Error
	return &item, err
}

func (r *inventoryItemRepo) FindByIDTxLocked(tx *gorm.DB, clinicID, id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("clinic_id = ?", clinicID).First(&item, id).Error
	return &item, err
}

func (r *inventoryItemRepo) FindBySKU(ctx context.Context, clinicID uuid.UUID, sku string) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := r.db.WithContext(ctx).Where("clinic_id = ? AND sku = ?", clinicID, sku).First(&item).Error
	return &item, err
}

func (r *inventoryItemRepo) List(ctx context.Context, clinicID uuid.UUID, filter dto.ItemFilter) ([]model.InventoryItem, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.InventoryItem{}).Where("clinic_id = ?", clinicID)

	switch filter.Status {
	case "all":
		// no filter
	case "":
		q = q.Where("status = ?", model.ItemActive)
	default:
		q = q.Where("status = ?", filter.Status)
	}
	if filter.SKU != "" {
		q = q.Where("sku = ?", filter.SKU)
	}
	if filter.Name != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Name+"%")
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.LowStock {
		q = q.Where("quantity > 0 AND quantity <= min_quantity")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	var items []model.InventoryItem
	err := q.Order("name ASC").Offset(offset).Limit(filter.Limit).Find(&items).Error
	return items, total, err
}

func (r *inventoryItemRepo) Update(ctx context.Context, item *model.InventoryItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *inventoryItemRepo) UpdateQuantityTx(tx *gorm.DB, id uuid.UUID, quantity int, updatedBy uuid.UUID) error {
	return tx.Model(&model.InventoryItem{}).Where("id = ?", id).Updates(map[string]interface{}{
		"quantity":   quantity,
		"updated_by": updatedBy,
	}).Error
}

// Stats aggregates the whole clinic inventory in two queries: one for the
// headline numbers, one grouped by category. Empty inventories return zeros.
func (r *inventoryItemRepo) Stats(ctx context.Context, clinicID uuid.UUID) (*dto.InventoryStatsResponse, error) {
	stats := &dto.InventoryStatsResponse{Categories: []dto.CategoryStats{}}

	var totals struct {
		TotalItems      int64
		LowStockItems   int64
		OutOfStockItems int64
		TotalValue      decimal.Decimal
	}

	err := r.db.WithContext(ctx).Model(&model.InventoryItem{}).
		Select(`COUNT(*) AS total_items,
			COALESCE(SUM(CASE WHEN quantity > 0 AND quantity <= min_quantity THEN 1 ELSE 0 END), 0) AS low_stock_items,
			COALESCE(SUM(CASE WHEN quantity = 0 THEN 1 ELSE 0 END), 0) AS out_of_stock_items,
			COALESCE(SUM(quantity * unit_price), 0) AS total_value`).
		Where("clinic_id = ?", clinicID).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	stats.TotalItems = totals.TotalItems
	stats.LowStockItems = totals.LowStockItems
	stats.OutOfStockItems = totals.OutOfStockItems
	stats.TotalValue = totals.TotalValue

	var categories []dto.CategoryStats
	err = r.db.WithContext(ctx).Model(&model.InventoryItem{}).
		Select(`category,
			COUNT(*) AS count,
			COALESCE(SUM(quantity), 0) AS total_quantity,
			COALESCE(SUM(quantity * unit_price), 0) AS total_value`).
		Where("clinic_id = ?", clinicID).
		Group("category").
		Order("category ASC").
		Scan(&categories).Error
	if err != nil {
		return nil, err
	}
	if categories != nil {
		stats.Categories = categories
	}
	return stats, nil
}
