package repository

import (
	"context"

	"clinicflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ClinicRepository interface {
	Create(ctx context.Context, c *model.Clinic) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Clinic, error)
	List(ctx context.Context) ([]model.Clinic, error)
	Update(ctx context.Context, c *model.Clinic) error
	// LockTx takes a row lock on the clinic, serializing per-clinic sequences
	// (invoice numbering) within the surrounding transaction.
	LockTx(tx *gorm.DB, id uuid.UUID) error
}

type clinicRepo struct{ db *gorm.DB }

func NewClinicRepository(db *gorm.DB) ClinicRepository { return &clinicRepo{db: db} }

func (r *clinicRepo) Create(ctx context.Context, c *model.Clinic) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *clinicRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	var c model.Clinic
	err := r.db.WithContext(ctx).First(&c, id).Error
	return &c, err
}

func (r *clinicRepo) List(ctx context.Context) ([]model.Clinic, error) {
	var clinics []model.Clinic
	err := r.db.WithContext(ctx).Order("name ASC").Find(&clinics).Error
	return clinics, err
}

func (r *clinicRepo) Update(ctx context.Context, c *model.Clinic) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *clinicRepo) LockTx(tx *gorm.DB, id uuid.UUID) error {
	var c model.Clinic
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, id).Error
}
