package pricechanges

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Spok95/order-planner/internal/domain/catalog"
)

type Service struct {
	catalog       *catalog.Repo
	repo          *Repo
	tolerance     float64
	costThreshold float64
	log           *slog.Logger
}

func NewService(cat *catalog.Repo, repo *Repo, tolerance, costThreshold float64, log *slog.Logger) *Service {
	return &Service{catalog: cat, repo: repo, tolerance: tolerance, costThreshold: costThreshold, log: log}
}

// Refresh пересобирает таблицу изменений цен по текущему снимку накладных и справочника.
// Повторный запуск на тех же данных даёт тот же набор.
func (s *Service) Refresh(ctx context.Context) ([]Change, int, error) {
	lines, err := s.catalog.LatestInvoiceLines(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("load invoices: %w", err)
	}
	costs, err := s.catalog.ListCatalogCosts(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("load catalog costs: %w", err)
	}

	changes := Detect(catalog.LatestInvoices(lines), catalog.NewCostIndex(costs, s.costThreshold), s.tolerance)
	n, err := s.repo.Rebuild(ctx, changes)
	if err != nil {
		return nil, 0, fmt.Errorf("rebuild price changes: %w", err)
	}
	s.log.Info("price changes rebuilt", "invoices", len(lines), "costs", len(costs), "detected", len(changes), "stored", n)
	return changes, n, nil
}

func (s *Service) List(ctx context.Context, reviewed *bool) ([]Change, error) {
	return s.repo.List(ctx, reviewed)
}

func (s *Service) MarkReviewed(ctx context.Context, id int64) error { return s.repo.MarkReviewed(ctx, id) }

func (s *Service) Delete(ctx context.Context, id int64) error { return s.repo.Delete(ctx, id) }
