package planning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Spok95/order-planner/internal/domain/catalog"
	"github.com/Spok95/order-planner/internal/domain/inventory"
	"github.com/Spok95/order-planner/internal/domain/sales"
	"github.com/Spok95/order-planner/internal/domain/suppliers"
	"github.com/Spok95/order-planner/internal/infra/logger"
	"github.com/Spok95/order-planner/internal/testhelpers"
)

func TestServiceLeavesHistoryOnFailedPlan(t *testing.T) {
	pool := testhelpers.SkipIfNoDatabase(t)
	ctx := context.Background()

	salesRepo := sales.NewRepo(pool)
	repo := NewRepo(pool)
	svc := NewService(catalog.NewRepo(pool), salesRepo, suppliers.NewRepo(pool), inventory.NewRepo(pool), repo,
		testPlanner(12000, 10), Recommender{Reorder: inventory.Calculator{SafetyDays: 3}},
		Options{SalesWindowDays: 90, Location: time.UTC, Thresholds: catalog.DefaultThresholds()}, logger.Discard())

	if err := repo.SaveHistory(ctx, History{Forecasts: map[string]sales.Forecast{
		"Old Bread": {ProductName: "Old Bread", AvgDailyQty: 2, Trend: sales.TrendStable, ComputedAt: time.Now()},
	}}); err != nil {
		t.Fatal(err)
	}
	if _, err := salesRepo.InsertTransactions(ctx, []sales.Transaction{
		{ProductName: "Coke 320ml", SoldAt: time.Date(2025, 5, 30, 10, 0, 0, 0, time.UTC), Quantity: 3, LineAmount: 4.5},
	}); err != nil {
		t.Fatal(err)
	}

	// накладных нет: поставщиков нет, план не строится
	if _, err := svc.Generate(ctx, "2025-06"); !errors.Is(err, ErrNoSuppliers) {
		t.Fatalf("err = %v, want ErrNoSuppliers", err)
	}
	if _, _, err := svc.Recommend(ctx, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), 3); err != nil {
		t.Fatal(err)
	}

	stored, err := salesRepo.ListForecasts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := stored["Old Bread"]; !ok || len(stored) != 1 {
		t.Fatalf("forecasts rewritten: %v", stored)
	}

	forecasts, _, err := svc.Refresh(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := forecasts["Coke 320ml"]; !ok {
		t.Fatalf("refresh forecasts = %v", forecasts)
	}
	if stored, _ = salesRepo.ListForecasts(ctx); len(stored) != 1 || stored["Coke 320ml"].ProductName == "" {
		t.Errorf("forecasts after refresh = %v", stored)
	}
}
