package repository

import (
	"context"
	"time"

	"go-pos-inventory/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DashboardStats untuk overview stats
type DashboardStats struct {
	TotalProducts   int64           `json:"total_products"`
	LowStockCount   int64           `json:"low_stock_count"`
	OutOfStockCount int64           `json:"out_of_stock_count"`
	PendingRequests int64           `json:"pending_requests"`
	StockValuation  decimal.Decimal `json:"stock_valuation"`
}

// SalesSummary is revenue and sale count over an interval.
type SalesSummary struct {
	Revenue   decimal.Decimal `json:"revenue"`
	SaleCount int64           `json:"sale_count"`
}

// TopProduct is one row of the best sellers ranking.
type TopProduct struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	QuantitySold int64           `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

type ReportRepository interface {
	GetDashboardStats(ctx context.Context) (*DashboardStats, error)
	// GetSalesSummary aggregates sales with from <= sale_date < to.
	GetSalesSummary(ctx context.Context, from, to time.Time) (*SalesSummary, error)
	GetTopProducts(ctx context.Context, since time.Time, limit int) ([]TopProduct, error)
}

type reportRepo struct {
	db *gorm.DB
}

func NewReportRepo(db *gorm.DB) ReportRepository {
	return &reportRepo{db}
}

func (r *reportRepo) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}

	// Low stock as displayed: above zero but not above the threshold
	if err := db.Model(&model.Product{}).
		Where("stock_quantity > 0 AND stock_quantity <= threshold_value").
		Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&model.Product{}).
		Where("stock_quantity <= 0").
		Count(&stats.OutOfStockCount).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&model.Request{}).
		Where("status = ?", model.RequestPending).
		Count(&stats.PendingRequests).Error; err != nil {
		return nil, err
	}

	var valuation struct{ Total decimal.Decimal }
	if err := db.Model(&model.Product{}).
		Select("COALESCE(SUM(stock_quantity * buying_price), 0) AS total").
		Scan(&valuation).Error; err != nil {
		return nil, err
	}
	stats.StockValuation = valuation.Total.Round(2)

	return &stats, nil
}

func (r *reportRepo) GetSalesSummary(ctx context.Context, from, to time.Time) (*SalesSummary, error) {
	var row struct {
		Revenue   decimal.Decimal
		SaleCount int64
	}
	err := r.db.WithContext(ctx).Model(&model.Sale{}).
		Select("COALESCE(SUM(total_price), 0) AS revenue, COUNT(*) AS sale_count").
		Where("sale_date >= ? AND sale_date < ?", from, to).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &SalesSummary{Revenue: row.Revenue.Round(2), SaleCount: row.SaleCount}, nil
}

func (r *reportRepo) GetTopProducts(ctx context.Context, since time.Time, limit int) ([]TopProduct, error) {
	results := []TopProduct{}
	err := r.db.WithContext(ctx).Model(&model.Sale{}).
		Select(`product_id,
			MAX(product_name) AS product_name,
			SUM(quantity) AS quantity_sold,
			COALESCE(SUM(total_price), 0) AS revenue`).
		Where("sale_date >= ?", since).
		Group("product_id").
		Order("quantity_sold DESC, product_name ASC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].Revenue = results[i].Revenue.Round(2)
	}
	return results, nil
}
