package repository

import (
	"context"

	"clinicflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StockAlertRepository interface {
	Create(ctx context.Context, alert *model.StockAlert) error
	// FindUnresolved returns the open alert for an item at a given level, if
	// any. Used by the worker to avoid stacking duplicates.
	FindUnresolved(ctx context.Context, itemID uuid.UUID, level string) (*model.StockAlert, error)
	ListUnresolved(ctx context.Context, clinicID uuid.UUID) ([]model.StockAlert, error)
	// Resolve marks an alert resolved. The clinic_id predicate keeps one
	// clinic from resolving another's alerts; zero rows means not found.
	Resolve(ctx context.Context, clinicID, id uuid.UUID) error
	ResolveForItem(ctx context.Context, itemID uuid.UUID) error
	CountUnresolved(ctx context.Context, clinicID uuid.UUID) (int64, error)
}

type stockAlertRepo struct{ db *gorm.DB }

func NewStockAlertRepository(db *gorm.DB) StockAlertRepository {
	return &stockAlertRepo{db: db}
}

func (r *stockAlertRepo) Create(ctx context.Context, alert *model.StockAlert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *stockAlertRepo) FindUnresolved(ctx context.Context, itemID uuid.UUID, level string) (*model.StockAlert, error) {
	var alert model.StockAlert
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND level = ? AND resolved = false", itemID, level).
		First(&alert).Error
	return &alert, err
}

func (r *stockAlertRepo) ListUnresolved(ctx context.Context, clinicID uuid.UUID) ([]model.StockAlert, error) {
	var alerts []model.StockAlert
	err := r.db.WithContext(ctx).Preload("Item").
		Where("clinic_id = ? AND resolved = false", clinicID).
		Order("created_at DESC").
		Find(&alerts).Error
	return alerts, err
}

func (r *stockAlertRepo) Resolve(ctx context.Context, clinicID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.StockAlert{}).
		Where("id = ? AND clinic_id = ?", id, clinicID).
		Update("resolved", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *stockAlertRepo) ResolveForItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.StockAlert{}).
		Where("item_id = ? AND resolved = false", itemID).
		Update("resolved", true).Error
}

func (r *stockAlertRepo) CountUnresolved(ctx context.Context, clinicID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.StockAlert{}).
		Where("clinic_id = ? AND resolved = false", clinicID).
		Count(&count).Error
	return count, err
}
