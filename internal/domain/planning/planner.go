package planning

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Spok95/order-planner/internal/domain/catalog"
	"github.com/Spok95/order-planner/internal/domain/inventory"
	"github.com/Spok95/order-planner/internal/domain/pricechanges"
	"github.com/Spok95/order-planner/internal/domain/sales"
	"github.com/Spok95/order-planner/internal/domain/suppliers"
)

type Planner struct {
	MonthlyBudget      float64
	MinOrderValue      float64
	PriceTolerance     float64
	ExcludedCategories []string
	Reorder            inventory.Calculator
}

// candidate: товар, для которого нашлись и себестоимость, и поставщик.
type candidate struct {
	forecast sales.Forecast
	cost     catalog.CatalogCost
	supplier string
	carton   *catalog.InvoiceLine
}

type supplierOrder struct {
	supplier string
	lines    []Line
	total    decimal.Decimal
}

// Plan строит месячный план закупок. Без ввода-вывода.
func (p Planner) Plan(month time.Time, in Inputs) (Plan, error) {
	if in.Reconciler == nil || len(in.Reconciler.Suppliers()) == 0 {
		return Plan{}, ErrNoSuppliers
	}
	if in.Costs == nil {
		return Plan{}, fmt.Errorf("cost index is required")
	}

	weeks := Weeks(month)
	weeklyBudget := decimal.NewFromFloat(p.MonthlyBudget).Div(decimal.NewFromInt(int64(len(weeks))))

	plan := Plan{
		Month:        weeks[0].Start,
		RunID:        uuid.New(),
		Weeks:        weeks,
		WeeklyBudget: weeklyBudget.Round(2).InexactFloat64(),
	}

	candidates, changes, unmatched := p.match(in)
	plan.PriceChanges = pricechanges.Dedupe(changes)
	plan.Unmatched = unmatched

	orders := p.consolidate(candidates, in)
	selected := p.selectWithinBudget(orders, weeklyBudget)

	minValue := decimal.NewFromFloat(p.MinOrderValue).StringFixed(2)
	for _, w := range weeks {
		for _, o := range selected {
			lines := make([]Line, len(o.lines))
			copy(lines, o.lines)
			plan.Orders = append(plan.Orders, WeeklyOrder{
				RunID:     plan.RunID,
				Supplier:  o.supplier,
				WeekStart: w.Start,
				WeekLabel: w.Label,
				Total:     o.total.InexactFloat64(),
				Status:    StatusPending,
				Notes:     fmt.Sprintf("%s - %d items (Min: %s)", w.Label, len(lines), minValue),
				Lines:     lines,
			})
		}
	}
	return plan, nil
}

func (p Planner) excluded(category string) bool {
	c := catalog.Normalize(category)
	if c == "" {
		return false
	}
	for _, e := range p.ExcludedCategories {
		if catalog.Normalize(e) == c {
			return true
		}
	}
	return false
}

// match: себестоимость, поставщик, упаковка; попутно сравнение цен по точному совпадению.
func (p Planner) match(in Inputs) ([]candidate, []pricechanges.Change, []string) {
	names := make([]string, 0, len(in.Forecasts))
	for name, f := range in.Forecasts {
		if f.WeeklyValue > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var (
		out       []candidate
		changes   []pricechanges.Change
		unmatched []string
	)
	for _, name := range names {
		f := in.Forecasts[name]
		cost, ok := in.Costs.Lookup(name, f.Barcode)
		if !ok {
			unmatched = append(unmatched, name)
			continue
		}
		if p.excluded(cost.Category) {
			continue
		}
		supplier, ok := in.Reconciler.AssignSupplier(name)
		if !ok {
			unmatched = append(unmatched, name)
			continue
		}

		c := candidate{forecast: f, cost: cost, supplier: supplier}
		if inv, ok := in.Reconciler.ExactInvoice(name); ok {
			if ch, ok := pricechanges.Compare(name, supplier, inv.PiecePrice(), cost.UnitCost, p.PriceTolerance); ok {
				changes = append(changes, ch)
			}
			c.carton = &inv
		} else if inv, ok := in.Reconciler.CartonInvoice(name); ok {
			c.carton = &inv
		}
		out = append(out, c)
	}
	return out, changes, unmatched
}

// consolidate: одна строка на товар, один заказ на поставщика.
func (p Planner) consolidate(candidates []candidate, in Inputs) []supplierOrder {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].forecast, candidates[j].forecast
		if a.WeeklyValue != b.WeeklyValue {
			return a.WeeklyValue > b.WeeklyValue
		}
		return a.ProductName < b.ProductName
	})

	bySupplier := map[string]*supplierOrder{}
	var order []string
	for _, c := range candidates {
		line := p.quantize(c)
		line.Urgency = p.urgency(c, in)

		so, ok := bySupplier[c.supplier]
		if !ok {
			so = &supplierOrder{supplier: c.supplier, total: decimal.Zero}
			bySupplier[c.supplier] = so
			order = append(order, c.supplier)
		}
		line.Position = len(so.lines) + 1
		so.lines = append(so.lines, line)
		so.total = so.total.Add(decimal.NewFromFloat(line.Subtotal))
	}

	out := make([]supplierOrder, 0, len(order))
	for _, s := range order {
		out = append(out, *bySupplier[s])
	}
	return out
}

// quantize: штуки округляются до целого (минимум 1), коробки вверх.
func (p Planner) quantize(c candidate) Line {
	pieces := int64(decimal.NewFromFloat(c.forecast.WeeklyQty).Round(0).IntPart())
	if pieces < 1 {
		pieces = 1
	}
	line := Line{
		ProductName:    c.forecast.ProductName,
		OrderUnit:      UnitLoose,
		Quantity:       int(pieces),
		ItemsPerCarton: 1,
		UnitCost:       c.cost.UnitCost,
		UnitPrice:      c.cost.UnitCost,
		WeeklyValue:    c.forecast.WeeklyValue,
	}
	if c.carton != nil && c.carton.IsCarton && c.carton.ItemsPerCarton > 1 {
		ipc := int64(c.carton.ItemsPerCarton)
		cartonPrice := c.carton.CartonPrice()
		if cartonPrice <= 0 {
			cartonPrice = c.cost.UnitCost * float64(ipc)
		}
		line.OrderUnit = UnitCarton
		line.Quantity = int((pieces + ipc - 1) / ipc)
		line.ItemsPerCarton = int(ipc)
		line.UnitPrice = cartonPrice
	}
	line.Subtotal = decimal.NewFromInt(int64(line.Quantity)).
		Mul(decimal.NewFromFloat(line.UnitPrice)).
		Round(2).InexactFloat64()
	return line
}

func (p Planner) urgency(c candidate, in Inputs) inventory.Urgency {
	stock := 0.0
	if in.Stock != nil {
		stock = in.Stock.Lookup(c.forecast.ProductName)
	}
	f := c.forecast
	return p.Reorder.Reorder(&f, suppliers.Lookup(in.Cadences, c.supplier), stock).Urgency
}

// selectWithinBudget: жадно: дорогие заказы первыми, мелкие ниже минимума пропускаем.
func (p Planner) selectWithinBudget(orders []supplierOrder, budget decimal.Decimal) []supplierOrder {
	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].total.Equal(orders[j].total) {
			return orders[i].total.GreaterThan(orders[j].total)
		}
		return orders[i].supplier < orders[j].supplier
	})

	minValue := decimal.NewFromFloat(p.MinOrderValue)
	running := decimal.Zero
	var out []supplierOrder
	for _, o := range orders {
		if o.total.LessThan(minValue) {
			continue
		}
		if running.Add(o.total).GreaterThan(budget) {
			continue
		}
		running = running.Add(o.total)
		out = append(out, o)
	}
	return out
}

// weekLoad: уже оформленные (не pending) заказы одной недели.
type weekLoad struct {
	suppliers map[string]struct{}
	total     decimal.Decimal
}

// fitCommitted убирает из плана заказы, которые конфликтуют с уже оформленными:
// поставщик, которому на этой неделе уже заказано, выпадает, а остальные
// проходят в порядке плана, пока неделя укладывается в бюджет вместе с оформленным.
func fitCommitted(orders []WeeklyOrder, weeklyBudget float64, committed map[string]weekLoad) ([]WeeklyOrder, int) {
	budget := decimal.NewFromFloat(weeklyBudget)
	running := map[string]decimal.Decimal{}
	kept := make([]WeeklyOrder, 0, len(orders))
	skipped := 0
	for _, o := range orders {
		k := o.WeekStart.Format(time.DateOnly)
		load, busy := committed[k]
		if !busy {
			kept = append(kept, o)
			continue
		}
		if _, dup := load.suppliers[o.Supplier]; dup {
			skipped++
			continue
		}
		next := running[k].Add(decimal.NewFromFloat(o.Total))
		if load.total.Add(next).GreaterThan(budget) {
			skipped++
			continue
		}
		running[k] = next
		kept = append(kept, o)
	}
	return kept, skipped
}
