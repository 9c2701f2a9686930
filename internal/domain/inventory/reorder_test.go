package inventory

import (
	"math"
	"testing"

	"github.com/Spok95/order-planner/internal/domain/sales"
	"github.com/Spok95/order-planner/internal/domain/suppliers"
)

func TestReorderExample(t *testing.T) {
	f := &sales.Forecast{AvgDailyQty: 3, Trend: sales.TrendIncreasing, SalesFrequency: 0.5}
	cad := suppliers.Cadence{BufferDays: 4}

	got := Calculator{SafetyDays: 3}.Reorder(f, cad, 10)

	if math.Abs(got.PredictedNeed-25.2) > 1e-9 {
		t.Errorf("need = %v, want 25.2", got.PredictedNeed)
	}
	if got.RecommendedQty != 16 {
		t.Errorf("qty = %d, want 16", got.RecommendedQty)
	}
	if math.Abs(got.DaysOfStock-10/3.6) > 1e-9 {
		t.Errorf("days of stock = %v, want %v", got.DaysOfStock, 10/3.6)
	}
	if got.Urgency != UrgencyMedium {
		t.Errorf("urgency = %s, want medium", got.Urgency)
	}
	if got.LeadTimeDays != 4 {
		t.Errorf("lead = %d", got.LeadTimeDays)
	}
}

func TestReorderRules(t *testing.T) {
	calc := Calculator{SafetyDays: 3}
	steady := &sales.Forecast{AvgDailyQty: 1, Trend: sales.TrendStable, SalesFrequency: 1}
	cad := suppliers.Cadence{BufferDays: 4} // горизонт 7 дней, спрос 7

	cases := []struct {
		name    string
		f       *sales.Forecast
		stock   float64
		qty     int
		urgency Urgency
	}{
		{"empty shelf is critical", steady, 0, 7, UrgencyCritical},
		{"negative stock is critical", steady, -3, 10, UrgencyCritical},
		{"small gap raised to minimum", steady, 5, 5, UrgencyMedium},
		{"covered demand", steady, 7, 0, UrgencyLow},
		{"high urgency", steady, 2, 5, UrgencyHigh},
		{"plenty of stock", steady, 50, 0, UrgencyLow},
		{"no sales no need", nil, 1, 0, UrgencyLow},
		{"no sales empty shelf", nil, 0, 0, UrgencyCritical},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := calc.Reorder(c.f, cad, c.stock)
			if got.RecommendedQty != c.qty || got.Urgency != c.urgency {
				t.Errorf("got qty=%d urgency=%s, want %d/%s", got.RecommendedQty, got.Urgency, c.qty, c.urgency)
			}
		})
	}
}

func TestReorderNoDemandInfiniteCover(t *testing.T) {
	got := Calculator{SafetyDays: 3}.Reorder(nil, suppliers.Default("x"), 4)
	if !math.IsInf(got.DaysOfStock, 1) {
		t.Fatalf("days of stock = %v, want +Inf", got.DaysOfStock)
	}
}

func TestStockIndex(t *testing.T) {
	ix := NewStockIndex([]Level{
		{ProductName: "Coke 320ml", Qty: 12},
		{ProductName: "Gardenia White Bread 400G", Qty: 3},
	}, 0.7)

	if got := ix.Lookup("COKE 320ML"); got != 12 {
		t.Errorf("exact = %v", got)
	}
	if got := ix.Lookup("White Gardenia Bread 400g"); got != 3 {
		t.Errorf("fuzzy = %v", got)
	}
	if got := ix.Lookup("Durian"); got != 0 {
		t.Errorf("unknown = %v", got)
	}
}
