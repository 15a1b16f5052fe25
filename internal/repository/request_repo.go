package repository

import (
	"context"

	"go-pos-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestFilter narrows a request listing. Zero values match everything.
type RequestFilter struct {
	Status      model.RequestStatus
	RequestedBy *uuid.UUID
	ProductID   *uuid.UUID
}

type RequestRepository interface {
	Create(tx *gorm.DB, req *model.Request) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error)
	Find(ctx context.Context, filter RequestFilter) ([]model.Request, error)
	CountByStatus(ctx context.Context, status model.RequestStatus) (int64, error)
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Request, error)
	UpdateDecision(tx *gorm.DB, req *model.Request) error
	Delete(tx *gorm.DB, id uuid.UUID) error
	DeleteByProduct(tx *gorm.DB, productID uuid.UUID) error
}

type requestRepo struct {
	db *gorm.DB
}

func NewRequestRepo(db *gorm.DB) RequestRepository {
	return &requestRepo{db}
}

func (r *requestRepo) Create(tx *gorm.DB, req *model.Request) error {
	return tx.Omit("Product", "RequestedByUser").Create(req).Error
}

func (r *requestRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var req model.Request
	if err := r.db.WithContext(ctx).Preload("RequestedByUser").First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepo) Find(ctx context.Context, filter RequestFilter) ([]model.Request, error) {
	var requests []model.Request
	q := r.db.WithContext(ctx).Preload("RequestedByUser")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.RequestedBy != nil {
		q = q.Where("requested_by_user_id = ?", *filter.RequestedBy)
	}
	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	err := q.Order("request_date DESC").Find(&requests).Error
	return requests, err
}

func (r *requestRepo) CountByStatus(ctx context.Context, status model.RequestStatus) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Request{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

func (r *requestRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Request, error) {
	var req model.Request
	if err := tx.Clauses(lockForUpdate).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// UpdateDecision writes the status columns only; the snapshot fields of a
// request never change after creation.
func (r *requestRepo) UpdateDecision(tx *gorm.DB, req *model.Request) error {
	return tx.Model(&model.Request{}).
		Where("id = ?", req.ID).
		Updates(map[string]interface{}{
			"status":             req.Status,
			"decided_by_user_id": req.DecidedByUserID,
			"decided_at":         req.DecidedAt,
			"note":               req.Note,
			"updated_by":         req.UpdatedBy,
			"updated_at":         req.UpdatedAt,
		}).Error
}

func (r *requestRepo) Delete(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.Request{}, "id = ?", id).Error
}

func (r *requestRepo) DeleteByProduct(tx *gorm.DB, productID uuid.UUID) error {
	return tx.Where("product_id = ?", productID).Delete(&model.Request{}).Error
}
