package repository

import (
	"context"
	"strings"
	"time"

	"go-pos-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(tx *gorm.DB, product *model.Product) error
	FindAll(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Search(ctx context.Context, term string) ([]model.Product, error)
	FindLowStock(ctx context.Context) ([]model.Product, error)
	Save(tx *gorm.DB, product *model.Product) error
	Delete(tx *gorm.DB, id uuid.UUID) error

	// LockByID reads the product with an exclusive row lock held until tx ends.
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	// AdjustStock adds delta (negative for a sale) to the stock of a locked row.
	AdjustStock(tx *gorm.DB, id uuid.UUID, delta int, updatedBy string) error
}

// lockForUpdate renders SELECT ... FOR UPDATE on Postgres.
var lockForUpdate = clause.Locking{Strength: "UPDATE"}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(tx *gorm.DB, product *model.Product) error {
	return tx.Create(product).Error
}

func (r *productRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) Search(ctx context.Context, term string) ([]model.Product, error) {
	var products []model.Product
	pattern := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
	err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ?", pattern).
		Order("name ASC").
		Find(&products).Error
	return products, err
}

// FindLowStock lists restock candidates, out of stock items included, emptiest first.
func (r *productRepo) FindLowStock(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("stock_quantity <= threshold_value").
		Order("stock_quantity ASC, name ASC").
		Find(&products).Error
	return products, err
}

func (r *productRepo) Save(tx *gorm.DB, product *model.Product) error {
	return tx.Save(product).Error
}

func (r *productRepo) Delete(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.Product{}, "id = ?", id).Error
}

func (r *productRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := tx.Clauses(lockForUpdate).First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// AdjustStock menerima tx agar berjalan di bawah row lock yang sama
func (r *productRepo) AdjustStock(tx *gorm.DB, id uuid.UUID, delta int, updatedBy string) error {
	return tx.Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock_quantity": gorm.Expr("stock_quantity + ?", delta),
			"updated_by":     updatedBy,
			"updated_at":     time.Now().UTC(),
		}).Error
}
