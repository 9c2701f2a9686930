package planning

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/order-planner/internal/domain/catalog"
	"github.com/Spok95/order-planner/internal/domain/inventory"
	"github.com/Spok95/order-planner/internal/domain/sales"
	"github.com/Spok95/order-planner/internal/domain/suppliers"
)

func june() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }

func fixtureInputs() Inputs {
	d := time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)
	lines := []catalog.InvoiceLine{
		{Supplier: "Drinks Co", ItemName: "COKE CAN 320ML", InvoiceDate: d, UnitPrice: 18, IsCarton: true, ItemsPerCarton: 24},
		{Supplier: "Drinks Co", ItemName: "Heineken Beer 490ml", InvoiceDate: d, UnitPrice: 3.2, UnitPriceItem: 3.2},
		{Supplier: "Farm", ItemName: "Eggs 10s", InvoiceDate: d, UnitPrice: 2.5, UnitPriceItem: 2.5},
	}
	costs := []catalog.CatalogCost{
		{ProductName: "Coke Can 320ml", UnitCost: 0.70, Category: "Drinks"},
		{ProductName: "Heineken Beer 490ml", UnitCost: 2.80, Category: "Beer"},
		{ProductName: "Eggs 10s", UnitCost: 2.00, Category: "Dairy"},
	}
	th := catalog.DefaultThresholds()
	return Inputs{
		Forecasts: map[string]sales.Forecast{
			"Coke Can 320ml":      {ProductName: "Coke Can 320ml", WeeklyQty: 30, WeeklyValue: 45},
			"Heineken Beer 490ml": {ProductName: "Heineken Beer 490ml", WeeklyQty: 10.4, WeeklyValue: 40},
			"Eggs 10s":            {ProductName: "Eggs 10s", WeeklyQty: 20, WeeklyValue: 60},
			"Mystery Snack":       {ProductName: "Mystery Snack", WeeklyQty: 5, WeeklyValue: 10},
			"Dead Stock":          {ProductName: "Dead Stock", WeeklyQty: 0, WeeklyValue: 0},
		},
		Reconciler: catalog.NewReconciler(nil, lines, nil, th),
		Costs:      catalog.NewCostIndex(costs, th.Cost),
		Cadences:   map[string]suppliers.Cadence{},
	}
}

func testPlanner(monthly, minOrder float64) Planner {
	return Planner{
		MonthlyBudget:  monthly,
		MinOrderValue:  minOrder,
		PriceTolerance: 0.10,
		Reorder:        inventory.Calculator{SafetyDays: 3},
	}
}

func TestWeeks(t *testing.T) {
	feb := Weeks(time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC))
	if len(feb) != 4 || feb[0].Label != "Week 1 (Feb 01 - Feb 07)" || feb[3].Label != "Week 4 (Feb 22 - Feb 28)" {
		t.Fatalf("february weeks = %+v", feb)
	}
	jun := Weeks(june())
	if len(jun) != 5 {
		t.Fatalf("june weeks = %d, want 5", len(jun))
	}
	if last := jun[4]; last.Label != "Week 5 (Jun 29 - Jun 30)" || last.End.Day() != 30 {
		t.Fatalf("last week = %+v", last)
	}
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2025-06")
	if err != nil || !m.Equal(june()) {
		t.Fatalf("ParseMonth = %v, %v", m, err)
	}
	for _, bad := range []string{"", "2025-13", "June", "2025/06"} {
		if _, err := ParseMonth(bad); !errors.Is(err, ErrInvalidMonth) {
			t.Errorf("ParseMonth(%q) err = %v, want ErrInvalidMonth", bad, err)
		}
	}
}

func TestPlanFullBudget(t *testing.T) {
	plan, err := testPlanner(12000, 10).Plan(june(), fixtureInputs())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.WeeklyBudget != 2400 {
		t.Errorf("weekly budget = %v, want 2400", plan.WeeklyBudget)
	}
	if len(plan.Orders) != 10 {
		t.Fatalf("orders = %d, want 2 suppliers x 5 weeks", len(plan.Orders))
	}

	first := plan.Orders[0]
	if first.Supplier != "Drinks Co" || first.Total != 64 || first.Status != StatusPending {
		t.Fatalf("first order = %+v", first)
	}
	if first.Notes != "Week 1 (Jun 01 - Jun 07) - 2 items (Min: 10.00)" {
		t.Errorf("notes = %q", first.Notes)
	}
	coke, beer := first.Lines[0], first.Lines[1]
	if coke.ProductName != "Coke Can 320ml" || coke.OrderUnit != UnitCarton || coke.Quantity != 2 ||
		coke.ItemsPerCarton != 24 || coke.UnitPrice != 18 || coke.Subtotal != 36 {
		t.Errorf("carton line = %+v", coke)
	}
	if beer.OrderUnit != UnitLoose || beer.Quantity != 10 || beer.Subtotal != 28 {
		t.Errorf("loose line = %+v", beer)
	}

	if len(plan.Unmatched) != 1 || plan.Unmatched[0] != "Mystery Snack" {
		t.Errorf("unmatched = %v", plan.Unmatched)
	}
	if len(plan.PriceChanges) != 2 || plan.PriceChanges[0].ItemName != "Eggs 10s" || plan.PriceChanges[0].PercentageHike != 25 {
		t.Errorf("price changes = %+v", plan.PriceChanges)
	}
	if math.Abs(plan.Total()-5*104) > 1e-9 {
		t.Errorf("total = %v", plan.Total())
	}
}

func TestPlanRespectsWeeklyBudget(t *testing.T) {
	plan, err := testPlanner(500, 10).Plan(june(), fixtureInputs())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	budget := decimal.NewFromFloat(500).Div(decimal.NewFromInt(5))

	perWeek := map[time.Time]decimal.Decimal{}
	seen := map[[2]string]bool{}
	for _, o := range plan.Orders {
		perWeek[o.WeekStart] = perWeek[o.WeekStart].Add(decimal.NewFromFloat(o.Total))
		k := [2]string{o.WeekStart.String(), o.Supplier}
		if seen[k] {
			t.Fatalf("supplier %s appears twice in week %s", o.Supplier, o.WeekLabel)
		}
		seen[k] = true

		sum := decimal.Zero
		for _, l := range o.Lines {
			want := decimal.NewFromInt(int64(l.Quantity)).Mul(decimal.NewFromFloat(l.UnitPrice)).Round(2)
			if !decimal.NewFromFloat(l.Subtotal).Equal(want) {
				t.Errorf("subtotal %v != %v", l.Subtotal, want)
			}
			sum = sum.Add(decimal.NewFromFloat(l.Subtotal))
		}
		if !sum.Equal(decimal.NewFromFloat(o.Total)) {
			t.Errorf("order total %v != sum of lines %v", o.Total, sum)
		}
	}
	for week, spent := range perWeek {
		if spent.GreaterThan(budget) {
			t.Errorf("week %s spends %s over budget %s", week, spent, budget)
		}
	}
	// 64 + 40 > 100: второй поставщик не влезает
	if len(plan.Orders) != 5 || plan.Orders[0].Supplier != "Drinks Co" {
		t.Fatalf("orders = %+v", plan.Orders)
	}
}

func TestPlanSkipsSmallOrders(t *testing.T) {
	plan, err := testPlanner(12000, 50).Plan(june(), fixtureInputs())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	for _, o := range plan.Orders {
		if o.Supplier == "Farm" {
			t.Fatal("order of 40 is below the 50 minimum")
		}
	}
}

func TestPlanExcludedCategories(t *testing.T) {
	p := testPlanner(12000, 10)
	p.ExcludedCategories = []string{"DAIRY"}
	plan, err := p.Plan(june(), fixtureInputs())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	for _, o := range plan.Orders {
		if o.Supplier == "Farm" {
			t.Fatal("excluded category still ordered")
		}
	}
	for _, n := range plan.Unmatched {
		if n == "Eggs 10s" {
			t.Fatal("excluded item reported as unmatched")
		}
	}
}

func TestPlanNoSuppliers(t *testing.T) {
	in := fixtureInputs()
	in.Reconciler = catalog.NewReconciler(nil, nil, nil, catalog.DefaultThresholds())
	if _, err := testPlanner(12000, 10).Plan(june(), in); !errors.Is(err, ErrNoSuppliers) {
		t.Fatalf("err = %v, want ErrNoSuppliers", err)
	}
}

func TestPlanUrgencyFromStock(t *testing.T) {
	in := fixtureInputs()
	in.Stock = inventory.NewStockIndex([]inventory.Level{{ProductName: "Eggs 10s", Qty: 500}}, 0.7)
	plan, err := testPlanner(12000, 10).Plan(june(), in)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	for _, o := range plan.Orders {
		for _, l := range o.Lines {
			want := inventory.UrgencyCritical
			if l.ProductName == "Eggs 10s" {
				want = inventory.UrgencyLow
			}
			if l.Urgency != want {
				t.Errorf("%s urgency = %s, want %s", l.ProductName, l.Urgency, want)
			}
		}
	}
}

func TestQuantizeCartonFallbackPrice(t *testing.T) {
	c := candidate{
		forecast: sales.Forecast{ProductName: "Tissue", WeeklyQty: 0.3},
		cost:     catalog.CatalogCost{UnitCost: 1.5},
		carton:   &catalog.InvoiceLine{IsCarton: true, ItemsPerCarton: 12},
	}
	l := testPlanner(1, 1).quantize(c)
	if l.OrderUnit != UnitCarton || l.Quantity != 1 || l.UnitPrice != 18 || l.Subtotal != 18 {
		t.Fatalf("line = %+v", l)
	}

	loose := testPlanner(1, 1).quantize(candidate{
		forecast: sales.Forecast{ProductName: "Gum", WeeklyQty: 2.5},
		cost:     catalog.CatalogCost{UnitCost: 0.333},
	})
	if loose.Quantity != 3 || loose.Subtotal != 1 {
		t.Fatalf("loose = %+v", loose)
	}
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusOrdered, true},
		{StatusPending, StatusDelivered, true},
		{StatusOrdered, StatusDelivered, true},
		{StatusOrdered, StatusPending, false},
		{StatusDelivered, StatusOrdered, false},
		{StatusOrdered, StatusOrdered, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransition(c.to); got != c.ok {
			t.Errorf("%s -> %s = %v, want %v", c.from, c.to, got, c.ok)
		}
	}
	if _, err := ParseStatus("cancelled"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("ParseStatus err = %v", err)
	}
}

func TestFitCommitted(t *testing.T) {
	weeks := Weeks(june())
	w1, w2 := weeks[0].Start, weeks[1].Start
	order := func(supplier string, week time.Time, total float64) WeeklyOrder {
		return WeeklyOrder{Supplier: supplier, WeekStart: week, Total: total}
	}
	planned := []WeeklyOrder{
		order("A", w1, 60), order("B", w1, 30), order("C", w1, 10),
		order("A", w2, 60), order("B", w2, 40),
	}
	load := func(total float64, names ...string) weekLoad {
		l := weekLoad{suppliers: map[string]struct{}{}, total: decimal.NewFromFloat(total)}
		for _, s := range names {
			l.suppliers[s] = struct{}{}
		}
		return l
	}

	tests := []struct {
		name      string
		committed map[string]weekLoad
		want      []string
		skipped   int
	}{
		{"nothing committed", nil, []string{"A1", "B1", "C1", "A2", "B2"}, 0},
		{"supplier already ordered", map[string]weekLoad{w1.Format(time.DateOnly): load(50, "A")},
			[]string{"B1", "C1", "A2", "B2"}, 1},
		{"committed total eats budget", map[string]weekLoad{w1.Format(time.DateOnly): load(80, "D")},
			[]string{"C1", "A2", "B2"}, 2},
		{"week full", map[string]weekLoad{w2.Format(time.DateOnly): load(100, "D")},
			[]string{"A1", "B1", "C1"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept, skipped := fitCommitted(planned, 100, tt.committed)
			var got []string
			for _, o := range kept {
				n := "1"
				if o.WeekStart.Equal(w2) {
					n = "2"
				}
				got = append(got, o.Supplier+n)
			}
			if skipped != tt.skipped || len(got) != len(tt.want) {
				t.Fatalf("kept = %v, skipped = %d; want %v, %d", got, skipped, tt.want, tt.skipped)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("kept = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}
