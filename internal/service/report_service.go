package service

import (
	"context"
	"time"

	"go-pos-inventory/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	DefaultTopProducts = 5
	DefaultTopDays     = 30
)

// SalesSummary is revenue and sale count on the calendar days From..To.
type SalesSummary struct {
	From      string          `json:"from"`
	To        string          `json:"to"`
	Revenue   decimal.Decimal `json:"revenue"`
	SaleCount int64           `json:"sale_count"`
}

// ReportService exposes read-only aggregates for dashboards. Reads run at the
// store's default isolation and take no locks.
type ReportService interface {
	Dashboard(ctx context.Context) (*repository.DashboardStats, error)
	SalesSummary(ctx context.Context, from, to time.Time) (*SalesSummary, error)
	TodaySummary(ctx context.Context) (*SalesSummary, error)
	// TopProducts ranks products by quantity sold in the trailing window.
	// Non-positive n or days fall back to the defaults.
	TopProducts(ctx context.Context, n, days int) ([]repository.TopProduct, error)
}

type reportService struct {
	reportRepo repository.ReportRepository
	now        func() time.Time
}

func NewReportService(rRepo repository.ReportRepository) ReportService {
	return &reportService{
		reportRepo: rRepo,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *reportService) Dashboard(ctx context.Context) (*repository.DashboardStats, error) {
	stats, err := s.reportRepo.GetDashboardStats(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return stats, nil
}

func (s *reportService) SalesSummary(ctx context.Context, from, to time.Time) (*SalesSummary, error) {
	start, end, err := dayRange(from, to, time.UTC)
	if err != nil {
		return nil, err
	}
	sum, err := s.reportRepo.GetSalesSummary(ctx, start, end)
	if err != nil {
		return nil, classify(err)
	}
	return &SalesSummary{
		From:      start.Format(dateLayout),
		To:        end.AddDate(0, 0, -1).Format(dateLayout),
		Revenue:   sum.Revenue,
		SaleCount: sum.SaleCount,
	}, nil
}

func (s *reportService) TodaySummary(ctx context.Context) (*SalesSummary, error) {
	today := s.now()
	return s.SalesSummary(ctx, today, today)
}

func (s *reportService) TopProducts(ctx context.Context, n, days int) ([]repository.TopProduct, error) {
	if n <= 0 {
		n = DefaultTopProducts
	}
	if days <= 0 {
		days = DefaultTopDays
	}
	since := s.now().AddDate(0, 0, -days)
	top, err := s.reportRepo.GetTopProducts(ctx, since, n)
	if err != nil {
		return nil, classify(err)
	}
	return top, nil
}
