package repository

import (
	"context"

	"clinicflow/internal/dto"
	"clinicflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryTxnRepository writes and reads the append-only movement ledger.
// Rows are only ever inserted; there is no update or delete path.
type InventoryTxnRepository interface {
	CreateTx(tx *gorm.DB, txn *model.InventoryTransaction) error
	List(ctx context.Context, clinicID uuid.UUID, filter dto.TransactionFilter) ([]model.InventoryTransaction, int64, error)
}

type inventoryTxnRepo struct{ db *gorm.DB }

func NewInventoryTxnRepository(db *gorm.DB) InventoryTxnRepository {
	return &inventoryTxnRepo{db: db}
}

func (r *inventoryTxnRepo) CreateTx(tx *gorm.DB, txn *model.InventoryTransaction) error {
	return tx.Create(txn).Error
}

func (r *inventoryTxnRepo) List(ctx context.Context, clinicID uuid.UUID, filter dto.TransactionFilter) ([]model.InventoryTransaction, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.InventoryTransaction{}).Where("clinic_id = ?", clinicID)

	if filter.ItemID != "" {
		q = q.Where("item_id = ?", filter.ItemID)
	}
	if filter.Type != "" && filter.Type != "all" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.From != "" {
		q = q.Where("created_at >= ?", filter.From)
	}
	if filter.To != "" {
		q = q.Where("created_at <= ?", filter.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	var txns []model.InventoryTransaction
	err := q.Preload("Item").
		Order("created_at DESC").Offset(offset).Limit(filter.Limit).
		Find(&txns).Error
	return txns, total, err
}
