package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-pos-inventory/internal/events"
	"go-pos-inventory/internal/model"
	"go-pos-inventory/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProductInput is the administrative view of a product. A nil ThresholdValue
// means the configured default on create and "unchanged" on update.
type ProductInput struct {
	Name           string          `json:"name" validate:"required,max=255"`
	BuyingPrice    decimal.Decimal `json:"buying_price"`
	SellingPrice   decimal.Decimal `json:"selling_price"`
	StockQuantity  int             `json:"stock_quantity" validate:"gte=0"`
	ThresholdValue *int            `json:"threshold_value" validate:"omitempty,gte=0"`
	ExpiryDate     string          `json:"expiry_date,omitempty"`
}

type RestockRequest struct {
	Quantity int `json:"quantity" validate:"gt=0"`
	// RequestID optionally names the approved request this restock fulfils.
	RequestID *uuid.UUID `json:"request_id,omitempty"`
}

type ProductService interface {
	Create(ctx context.Context, in ProductInput, actor model.Actor) (*model.Product, error)
	Update(ctx context.Context, id uuid.UUID, in ProductInput, actor model.Actor) (*model.Product, error)
	Delete(ctx context.Context, id uuid.UUID, actor model.Actor) error
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context) ([]model.Product, error)
	Search(ctx context.Context, term string) ([]model.Product, error)
	LowStock(ctx context.Context) ([]model.Product, error)
	Restock(ctx context.Context, id uuid.UUID, req RestockRequest, actor model.Actor) (*model.Product, error)
}

type productService struct {
	env              Env
	productRepo      repository.ProductRepository
	saleRepo         repository.SaleRepository
	requestRepo      repository.RequestRepository
	defaultThreshold int
}

func NewProductService(env Env, pRepo repository.ProductRepository, sRepo repository.SaleRepository, rRepo repository.RequestRepository, defaultThreshold int) ProductService {
	return &productService{
		env:              env.withDefaults(),
		productRepo:      pRepo,
		saleRepo:         sRepo,
		requestRepo:      rRepo,
		defaultThreshold: defaultThreshold,
	}
}

// normalize validates in and returns the parsed expiry date.
func (in *ProductInput) normalize() (*time.Time, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate(in); err != nil {
		return nil, err
	}
	if in.BuyingPrice.IsNegative() {
		return nil, invalid("buying_price", "must not be negative")
	}
	if in.SellingPrice.IsNegative() {
		return nil, invalid("selling_price", "must not be negative")
	}
	if in.ExpiryDate == "" {
		return nil, nil
	}
	d, err := ParseDate("expiry_date", in.ExpiryDate)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *productService) Create(ctx context.Context, in ProductInput, actor model.Actor) (*model.Product, error) {
	expiry, err := in.normalize()
	if err != nil {
		return nil, err
	}

	threshold := s.defaultThreshold
	if in.ThresholdValue != nil {
		threshold = *in.ThresholdValue
	}

	product := &model.Product{
		Name:           in.Name,
		BuyingPrice:    in.BuyingPrice.Round(2),
		SellingPrice:   in.SellingPrice.Round(2),
		StockQuantity:  in.StockQuantity,
		ThresholdValue: threshold,
		ExpiryDate:     expiry,
	}
	product.CreatedBy = actor.Audit()
	product.UpdatedBy = actor.Audit()

	if err := s.productRepo.Create(s.env.DB.WithContext(ctx), product); err != nil {
		return nil, classify(err)
	}

	s.env.publish(ctx, events.Event{
		Type:        events.StockUpdate,
		Action:      events.ActionProductCreated,
		AggregateID: product.ID.String(),
		Data:        productData(product),
		User:        eventUser(actor),
		Message:     fmt.Sprintf("%s created product '%s'", displayName(actor), product.Name),
	})
	return product, nil
}

// Update is the direct administrative edit. It takes the row lock so it
// cannot interleave with a sale of the same product.
func (s *productService) Update(ctx context.Context, id uuid.UUID, in ProductInput, actor model.Actor) (*model.Product, error) {
	expiry, err := in.normalize()
	if err != nil {
		return nil, err
	}

	var (
		updated  *model.Product
		oldStock int
	)
	err = s.env.runInTx(ctx, func(tx *gorm.DB) error {
		existing, err := s.productRepo.LockByID(tx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrProductNotFound
			}
			return err
		}
		oldStock = existing.StockQuantity

		existing.Name = in.Name
		existing.BuyingPrice = in.BuyingPrice.Round(2)
		existing.SellingPrice = in.SellingPrice.Round(2)
		existing.StockQuantity = in.StockQuantity
		if in.ThresholdValue != nil {
			existing.ThresholdValue = *in.ThresholdValue
		}
		existing.ExpiryDate = expiry
		existing.UpdatedBy = actor.Audit()

		if err := s.productRepo.Save(tx, existing); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	data := productData(updated)
	data["old_stock"] = oldStock
	s.env.publish(ctx, events.Event{
		Type:        events.StockUpdate,
		Action:      events.ActionProductUpdated,
		AggregateID: updated.ID.String(),
		Data:        data,
		User:        eventUser(actor),
		Message:     fmt.Sprintf("%s updated product '%s'", displayName(actor), updated.Name),
	})
	return updated, nil
}

// Delete removes a product and its restock requests. Products with recorded
// sales are kept: the sales history references them.
func (s *productService) Delete(ctx context.Context, id uuid.UUID, actor model.Actor) error {
	var deleted *model.Product
	err := s.env.runInTx(ctx, func(tx *gorm.DB) error {
		product, err := s.productRepo.LockByID(tx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrProductNotFound
			}
			return err
		}

		n, err := s.saleRepo.CountByProduct(tx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrProductInUse
		}

		if err := s.requestRepo.DeleteByProduct(tx, id); err != nil {
			return err
		}
		if err := s.productRepo.Delete(tx, id); err != nil {
			if repository.IsForeignKeyViolation(err) {
				return ErrProductInUse
			}
			return err
		}
		deleted = product
		return nil
	})
	if err != nil {
		return classify(err)
	}

	s.env.publish(ctx, events.Event{
		Type:        events.StockUpdate,
		Action:      events.ActionProductDeleted,
		AggregateID: deleted.ID.String(),
		Data:        map[string]interface{}{"id": deleted.ID, "name": deleted.Name},
		User:        eventUser(actor),
		Message:     fmt.Sprintf("%s deleted product '%s'", displayName(actor), deleted.Name),
	})
	return nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrProductNotFound
		}
		return nil, classify(err)
	}
	return product, nil
}

func (s *productService) List(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.FindAll(ctx)
	return products, classify(err)
}

func (s *productService) Search(ctx context.Context, term string) ([]model.Product, error) {
	if strings.TrimSpace(term) == "" {
		return s.List(ctx)
	}
	products, err := s.productRepo.Search(ctx, term)
	return products, classify(err)
}

func (s *productService) LowStock(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.FindLowStock(ctx)
	return products, classify(err)
}

// Restock is the manual stock increase that follows an approved request.
// It never changes the request itself.
func (s *productService) Restock(ctx context.Context, id uuid.UUID, req RestockRequest, actor model.Actor) (*model.Product, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}

	var restocked *model.Product
	err := s.env.runInTx(ctx, func(tx *gorm.DB) error {
		product, err := s.productRepo.LockByID(tx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrProductNotFound
			}
			return err
		}
		if err := s.productRepo.AdjustStock(tx, id, req.Quantity, actor.Audit()); err != nil {
			return err
		}
		product.StockQuantity += req.Quantity
		restocked = product
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	s.env.Metrics.RecordRestock(req.Quantity)
	s.env.Log.Info("product restocked",
		zap.String("product_id", id.String()),
		zap.Int("quantity", req.Quantity),
		zap.Int("stock", restocked.StockQuantity),
		zap.String("user", actor.Audit()),
	)

	data := productData(restocked)
	data["quantity"] = req.Quantity
	if req.RequestID != nil {
		data["request_id"] = *req.RequestID
	}
	s.env.publish(ctx, events.Event{
		Type:        events.StockUpdate,
		Action:      events.ActionStockRestocked,
		AggregateID: restocked.ID.String(),
		Data:        data,
		User:        eventUser(actor),
		Message:     fmt.Sprintf("%s restocked %d x %s", displayName(actor), req.Quantity, restocked.Name),
	})
	return restocked, nil
}
