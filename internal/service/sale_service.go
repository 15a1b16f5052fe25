package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-pos-inventory/internal/events"
	"go-pos-inventory/internal/model"
	"go-pos-inventory/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RecordSaleRequest asks to sell Quantity units of a product. UnitPrice, when
// positive, overrides the catalog selling price; ProductName, when set,
// overrides the name snapshot.
type RecordSaleRequest struct {
	ProductID   uuid.UUID        `json:"product_id"`
	Quantity    int              `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	ProductName string           `json:"product_name,omitempty"`
}

// SaleResult is a committed sale and the stock it left behind.
type SaleResult struct {
	Sale           *model.Sale        `json:"sale"`
	RemainingStock int                `json:"remaining_stock"`
	Availability   model.Availability `json:"availability"`
	LowStock       bool               `json:"low_stock"`
}

// UpdateSaleRequest is an administrative correction of a recorded sale.
type UpdateSaleRequest struct {
	Quantity  int              `json:"quantity" validate:"gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

type SaleService interface {
	RecordSale(ctx context.Context, req RecordSaleRequest, actor model.Actor) (*SaleResult, error)
	GetAll(ctx context.Context) ([]model.Sale, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	// GetBetween lists sales on the calendar days from..to inclusive.
	GetBetween(ctx context.Context, from, to time.Time) ([]model.Sale, error)
	GetByUser(ctx context.Context, userID uuid.UUID) ([]model.Sale, error)
	// UpdateSale and DeleteSale are overrides: neither reconciles stock.
	UpdateSale(ctx context.Context, id uuid.UUID, req UpdateSaleRequest, actor model.Actor) (*model.Sale, error)
	DeleteSale(ctx context.Context, id uuid.UUID, actor model.Actor) error
}

type saleService struct {
	env         Env
	productRepo repository.ProductRepository
	saleRepo    repository.SaleRepository
}

func NewSaleService(env Env, pRepo repository.ProductRepository, sRepo repository.SaleRepository) SaleService {
	return &saleService{
		env:         env.withDefaults(),
		productRepo: pRepo,
		saleRepo:    sRepo,
	}
}

// RecordSale checks stock, records the sale and decrements stock as one
// transaction under the product row lock. Concurrent sales of one product
// queue on that lock; sales of different products do not block each other.
func (s *saleService) RecordSale(ctx context.Context, req RecordSaleRequest, actor model.Actor) (*SaleResult, error) {
	start := time.Now()
	var (
		sale    *model.Sale
		product *model.Product
	)

	err := s.env.runInTx(ctx, func(tx *gorm.DB) error {
		locked, err := s.productRepo.LockByID(tx, req.ProductID)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrProductNotFound
			}
			return err
		}

		unitPrice := locked.SellingPrice
		if req.UnitPrice != nil && req.UnitPrice.IsPositive() {
			unitPrice = *req.UnitPrice
		}
		unitPrice = unitPrice.Round(2)

		name := locked.Name
		if req.ProductName != "" {
			name = req.ProductName
		}

		if req.Quantity <= 0 || locked.IsOutOfStock() || req.Quantity > locked.StockQuantity {
			return &InsufficientStockError{
				ProductID:   locked.ID,
				ProductName: name,
				Requested:   req.Quantity,
				Available:   locked.StockQuantity,
			}
		}

		sale = &model.Sale{
			ProductID:   locked.ID,
			ProductName: name,
			Quantity:    req.Quantity,
			UnitPrice:   unitPrice,
			TotalPrice:  model.LineTotal(req.Quantity, unitPrice),
			UserID:      actor.UserRef(),
			SaleDate:    time.Now().UTC(),
		}
		sale.CreatedBy = actor.Audit()
		sale.UpdatedBy = actor.Audit()
		if err := s.saleRepo.Create(tx, sale); err != nil {
			return err
		}

		// Guarded above under the same lock
		if err := s.productRepo.AdjustStock(tx, locked.ID, -req.Quantity, actor.Audit()); err != nil {
			return err
		}
		locked.StockQuantity -= req.Quantity
		product = locked
		return nil
	})
	elapsed := time.Since(start)

	if err != nil {
		err = classify(err)
		s.logSaleFailure(req, actor, err, elapsed)
		return nil, err
	}

	s.env.Metrics.RecordSale(sale.Quantity, elapsed)
	s.env.Log.Info("sale recorded",
		zap.String("sale_id", sale.ID.String()),
		zap.String("product_id", product.ID.String()),
		zap.Int("quantity", sale.Quantity),
		zap.String("total", sale.TotalPrice.StringFixed(2)),
		zap.Int("remaining_stock", product.StockQuantity),
		zap.String("user", actor.Audit()),
	)

	data := productData(product)
	data["sale_id"] = sale.ID
	data["quantity"] = sale.Quantity
	data["total_price"] = sale.TotalPrice
	s.env.publish(ctx, events.Event{
		Type:        events.StockUpdate,
		Action:      events.ActionSaleRecorded,
		AggregateID: product.ID.String(),
		Data:        data,
		User:        eventUser(actor),
		Message:     fmt.Sprintf("%s sold %d x %s", displayName(actor), sale.Quantity, sale.ProductName),
	})
	if product.IsLowStock() {
		s.env.publish(ctx, events.Event{
			Type:        events.StockUpdate,
			Action:      events.ActionLowStock,
			AggregateID: product.ID.String(),
			Data:        productData(product),
			User:        eventUser(actor),
			Message:     fmt.Sprintf("%s is %s (%d left)", product.Name, product.Availability(), product.StockQuantity),
		})
	}

	return &SaleResult{
		Sale:           sale,
		RemainingStock: product.StockQuantity,
		Availability:   product.Availability(),
		LowStock:       product.IsLowStock(),
	}, nil
}

func (s *saleService) logSaleFailure(req RecordSaleRequest, actor model.Actor, err error, elapsed time.Duration) {
	fields := []zap.Field{
		zap.String("product_id", req.ProductID.String()),
		zap.Int("quantity", req.Quantity),
		zap.String("user", actor.Audit()),
		zap.Error(err),
	}

	switch {
	case errors.Is(err, ErrInsufficientStock):
		s.env.Metrics.RecordSaleFailure("insufficient_stock", elapsed)
		s.env.Log.Info("sale refused", fields...)
	case errors.Is(err, ErrProductNotFound):
		s.env.Metrics.RecordSaleFailure("not_found", elapsed)
		s.env.Log.Info("sale refused", fields...)
	case errors.Is(err, ErrTransientStore):
		s.env.Metrics.RecordSaleFailure("transient", elapsed)
		s.env.Log.Warn("sale rolled back", fields...)
	default:
		s.env.Metrics.RecordSaleFailure("unexpected", elapsed)
		s.env.Log.Error("sale rolled back", fields...)
	}
}

func (s *saleService) GetAll(ctx context.Context) ([]model.Sale, error) {
	sales, err := s.saleRepo.FindAll(ctx)
	return sales, classify(err)
}

func (s *saleService) GetByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	sale, err := s.saleRepo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrSaleNotFound
		}
		return nil, classify(err)
	}
	return sale, nil
}

func (s *saleService) GetBetween(ctx context.Context, from, to time.Time) ([]model.Sale, error) {
	start, end, err := dayRange(from, to, time.UTC)
	if err != nil {
		return nil, err
	}
	sales, err := s.saleRepo.FindBetween(ctx, start, end)
	return sales, classify(err)
}

func (s *saleService) GetByUser(ctx context.Context, userID uuid.UUID) ([]model.Sale, error) {
	sales, err := s.saleRepo.FindByUser(ctx, userID)
	return sales, classify(err)
}

func (s *saleService) UpdateSale(ctx context.Context, id uuid.UUID, req UpdateSaleRequest, actor model.Actor) (*model.Sale, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}
	if req.UnitPrice != nil && req.UnitPrice.IsNegative() {
		return nil, invalid("unit_price", "must not be negative")
	}

	var updated *model.Sale
	err := s.env.runInTx(ctx, func(tx *gorm.DB) error {
		sale, err := s.saleRepo.LockByID(tx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrSaleNotFound
			}
			return err
		}

		if req.UnitPrice != nil {
			sale.UnitPrice = req.UnitPrice.Round(2)
		}
		sale.Quantity = req.Quantity
		sale.TotalPrice = model.LineTotal(sale.Quantity, sale.UnitPrice)
		sale.UpdatedBy = actor.Audit()
		if err := s.saleRepo.Save(tx, sale); err != nil {
			return err
		}
		updated = sale
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	s.env.Log.Info("sale overridden, stock not reconciled",
		zap.String("sale_id", id.String()),
		zap.Int("quantity", updated.Quantity),
		zap.String("user", actor.Audit()),
	)
	return updated, nil
}

func (s *saleService) DeleteSale(ctx context.Context, id uuid.UUID, actor model.Actor) error {
	err := s.env.runInTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.saleRepo.LockByID(tx, id); err != nil {
			if repository.IsNotFound(err) {
				return ErrSaleNotFound
			}
			return err
		}
		return s.saleRepo.Delete(tx, id)
	})
	if err != nil {
		return classify(err)
	}

	s.env.Log.Info("sale deleted, stock not reconciled",
		zap.String("sale_id", id.String()),
		zap.String("user", actor.Audit()),
	)
	return nil
}
