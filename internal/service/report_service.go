package service

import (
	"context"
	"fmt"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/repository/repoargs"
	"github.com/fsdevblog/cafe-pos/pkg/uow"
)

const (
	DefaultRevenueTrendDays = 30
	MaxRevenueTrendDays     = 366
)

// Имена отчетов, доступных через Report.
const (
	ReportOverview           = "overview"
	ReportPeakHours          = "peak-hours"
	ReportStorePerformance   = "store-performance"
	ReportTopSpendingMembers = "top-spending-members"
	ReportPopularItems       = "popular-items"
	ReportCategorySales      = "category-sales"
	ReportRevenueTrend       = "revenue-trend"
	ReportTopCustomers       = "top-customers"
	ReportNoteCategories     = "note-categories"
)

type ReportService struct {
	reportRepo ReportRepository
}

func NewReportService(u uow.UOW) (*ReportService, error) {
	reportRepo, err := uow.GetRepositoryAs[ReportRepository](u, uow.RepositoryName(repoargs.ReportRepoName))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &ReportService{reportRepo: reportRepo}, nil
}

// Report возвращает строки отчета name как есть. days учитывается только отчетом revenue-trend,
// значения вне [1, MaxRevenueTrendDays] заменяются на DefaultRevenueTrendDays.
func (r *ReportService) Report(ctx context.Context, name string, days int) (any, error) {
	var res any
	var err error
	switch name {
	case ReportOverview:
		res, err = r.reportRepo.BusinessOverview(ctx)
	case ReportPeakHours:
		res, err = r.reportRepo.PeakTransactionHours(ctx)
	case ReportStorePerformance:
		res, err = r.reportRepo.StorePerformance(ctx)
	case ReportTopSpendingMembers:
		res, err = r.reportRepo.TopSpendingMembers(ctx)
	case ReportPopularItems:
		res, err = r.reportRepo.PopularItems(ctx)
	case ReportCategorySales:
		res, err = r.reportRepo.CategorySales(ctx)
	case ReportRevenueTrend:
		if days < 1 || days > MaxRevenueTrendDays {
			days = DefaultRevenueTrendDays
		}
		res, err = r.reportRepo.RevenueTrend(ctx, days)
	case ReportTopCustomers:
		res, err = r.reportRepo.TopCustomers(ctx)
	case ReportNoteCategories:
		res, err = r.reportRepo.NoteCategoryStats(ctx)
	default:
		return nil, fmt.Errorf("%w: `%s`", domain.ErrUnknownReport, name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading report `%s`: %w", name, err)
	}
	return res, nil
}
