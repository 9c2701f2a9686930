package planning

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Spok95/order-planner/internal/domain/catalog"
	"github.com/Spok95/order-planner/internal/domain/inventory"
	"github.com/Spok95/order-planner/internal/domain/sales"
	"github.com/Spok95/order-planner/internal/domain/suppliers"
)

// Options: настройки загрузки истории и сопоставления.
type Options struct {
	SalesWindowDays int
	Location        *time.Location
	ReliableFrom    time.Time
	ReliableTo      time.Time
	Thresholds      catalog.Thresholds
}

type Service struct {
	catalog     *catalog.Repo
	sales       *sales.Repo
	suppliers   *suppliers.Repo
	inventory   *inventory.Repo
	repo        *Repo
	planner     Planner
	recommender Recommender
	opts        Options
	log         *slog.Logger
}

func NewService(
	cat *catalog.Repo,
	sl *sales.Repo,
	sup *suppliers.Repo,
	inv *inventory.Repo,
	repo *Repo,
	planner Planner,
	recommender Recommender,
	opts Options,
	log *slog.Logger,
) *Service {
	return &Service{
		catalog: cat, sales: sl, suppliers: sup, inventory: inv, repo: repo,
		planner: planner, recommender: recommender, opts: opts, log: log,
	}
}

// Result: итог запуска плана.
type Result struct {
	Plan  Plan
	Saved SaveResult
}

// analyze считает прогнозы спроса и ритм поставщиков в памяти, ничего не пишет.
func (s *Service) analyze(ctx context.Context) (History, error) {
	txs, err := s.sales.ListTransactions(ctx, s.opts.SalesWindowDays)
	if err != nil {
		return History{}, fmt.Errorf("load transactions: %w", err)
	}
	forecasts := sales.Analyze(txs, sales.Options{WindowDays: s.opts.SalesWindowDays, Location: s.opts.Location})

	orders, err := s.suppliers.ListOrders(ctx)
	if err != nil {
		return History{}, fmt.Errorf("load supplier orders: %w", err)
	}
	// в базе могут быть более свежие отметки о заказах из дашборда
	stored, err := s.suppliers.ListCadences(ctx)
	if err != nil {
		return History{}, fmt.Errorf("load cadences: %w", err)
	}
	cadences := suppliers.Merge(stored, suppliers.Analyze(orders, s.opts.ReliableFrom, s.opts.ReliableTo))

	s.log.Info("history analyzed", "transactions", len(txs), "products", len(forecasts),
		"supplier_orders", len(orders), "suppliers", len(cadences))
	return History{Forecasts: forecasts, Cadences: cadences}, nil
}

// Refresh пересчитывает прогнозы спроса и ритм поставщиков и сохраняет их.
func (s *Service) Refresh(ctx context.Context) (map[string]sales.Forecast, map[string]suppliers.Cadence, error) {
	h, err := s.analyze(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := s.repo.SaveHistory(ctx, h); err != nil {
		return nil, nil, err
	}
	return h.Forecasts, h.Cadences, nil
}

func (s *Service) inputs(ctx context.Context) (Inputs, error) {
	h, err := s.analyze(ctx)
	if err != nil {
		return Inputs{}, err
	}
	forecasts, cadences := h.Forecasts, h.Cadences

	lines, err := s.catalog.ListInvoiceLines(ctx)
	if err != nil {
		return Inputs{}, fmt.Errorf("load invoices: %w", err)
	}
	aliases, err := s.catalog.ListAliases(ctx)
	if err != nil {
		return Inputs{}, fmt.Errorf("load aliases: %w", err)
	}
	posNames, err := s.catalog.ListPOSNames(ctx)
	if err != nil {
		return Inputs{}, fmt.Errorf("load pos names: %w", err)
	}
	costs, err := s.catalog.ListCatalogCosts(ctx)
	if err != nil {
		return Inputs{}, fmt.Errorf("load catalog costs: %w", err)
	}
	stock, err := s.inventory.ListStock(ctx)
	if err != nil {
		return Inputs{}, fmt.Errorf("load stock: %w", err)
	}

	th := s.opts.Thresholds
	return Inputs{
		Forecasts:  forecasts,
		Reconciler: catalog.NewReconciler(aliases, lines, posNames, th),
		Costs:      catalog.NewCostIndex(costs, th.Cost),
		Stock:      inventory.NewStockIndex(stock, th.POSInvoice),
		Cadences:   cadences,
	}, nil
}

// Generate строит план на месяц и заменяет им pending-заказы этого месяца.
func (s *Service) Generate(ctx context.Context, month string) (Result, error) {
	m, err := ParseMonth(month)
	if err != nil {
		return Result{}, err
	}
	in, err := s.inputs(ctx)
	if err != nil {
		return Result{}, err
	}

	plan, err := s.planner.Plan(m, in)
	if err != nil {
		return Result{}, err
	}
	for _, name := range plan.Unmatched {
		s.log.Debug("item dropped from plan", "product", name)
	}

	saved, err := s.repo.ReplacePending(ctx, &plan, History{Forecasts: in.Forecasts, Cadences: in.Cadences})
	if err != nil {
		return Result{}, fmt.Errorf("save plan: %w", err)
	}
	s.log.Info("plan generated",
		"month", month,
		"run_id", plan.RunID.String(),
		"weeks", len(plan.Weeks),
		"weekly_budget", plan.WeeklyBudget,
		"orders", saved.Orders,
		"total", plan.Total(),
		"unmatched", len(plan.Unmatched),
		"price_changes", saved.PriceChanges,
		"replaced", saved.Replaced,
		"skipped", saved.Skipped,
	)
	return Result{Plan: plan, Saved: saved}, nil
}

// Recommend: дневные рекомендации начиная с date на days дней.
func (s *Service) Recommend(ctx context.Context, date time.Time, days int) ([]DaySchedule, []SupplierRecommendation, error) {
	in, err := s.inputs(ctx)
	if err != nil {
		return nil, nil, err
	}
	daily := s.recommender.Daily(date, in)
	var schedule []DaySchedule
	if days > 1 {
		schedule = s.recommender.Schedule(date, days, in)
	}
	return schedule, daily, nil
}

func (s *Service) ListOrders(ctx context.Context, f Filter) ([]WeeklyOrder, error) {
	return s.repo.ListOrders(ctx, f)
}

func (s *Service) ListSuppliers(ctx context.Context) ([]string, error) {
	return s.repo.ListSuppliers(ctx)
}

func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) error {
	st, err := ParseStatus(status)
	if err != nil {
		return err
	}
	return s.repo.UpdateStatus(ctx, id, st)
}
