package repository

import (
	"context"
	"time"

	"go-pos-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SaleRepository interface {
	Create(tx *gorm.DB, sale *model.Sale) error
	FindAll(ctx context.Context) ([]model.Sale, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	// FindBetween returns sales with from <= sale_date < to, newest first.
	FindBetween(ctx context.Context, from, to time.Time) ([]model.Sale, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]model.Sale, error)
	CountByProduct(tx *gorm.DB, productID uuid.UUID) (int64, error)
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Sale, error)
	Save(tx *gorm.DB, sale *model.Sale) error
	Delete(tx *gorm.DB, id uuid.UUID) error
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

func (r *saleRepo) Create(tx *gorm.DB, sale *model.Sale) error {
	return tx.Omit("Product", "User").Create(sale).Error
}

func (r *saleRepo) FindAll(ctx context.Context) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).Preload("User").Order("sale_date DESC").Find(&sales).Error
	return sales, err
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := r.db.WithContext(ctx).Preload("User").First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepo) FindBetween(ctx context.Context, from, to time.Time) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("sale_date >= ? AND sale_date < ?", from, to).
		Order("sale_date DESC").
		Find(&sales).Error
	return sales, err
}

func (r *saleRepo) FindByUser(ctx context.Context, userID uuid.UUID) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("sale_date DESC").
		Find(&sales).Error
	return sales, err
}

func (r *saleRepo) CountByProduct(tx *gorm.DB, productID uuid.UUID) (int64, error) {
	var n int64
	err := tx.Model(&model.Sale{}).Where("product_id = ?", productID).Count(&n).Error
	return n, err
}

func (r *saleRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := tx.Clauses(lockForUpdate).First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepo) Save(tx *gorm.DB, sale *model.Sale) error {
	return tx.Omit("Product", "User").Save(sale).Error
}

func (r *saleRepo) Delete(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.Sale{}, "id = ?", id).Error
}
