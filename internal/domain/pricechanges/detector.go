package pricechanges

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Spok95/order-planner/internal/domain/catalog"
)

const DefaultTolerance = 0.10

var hundred = decimal.NewFromInt(100)

// Compare фиксирует рост, только если он строго больше tolerance.
// Процент считается по точным ценам, до центов округляется только то, что сохраняется.
func Compare(item, supplier string, invoicePrice, catalogCost, tolerance float64) (Change, bool) {
	inv := decimal.NewFromFloat(invoicePrice)
	cost := decimal.NewFromFloat(catalogCost)
	if !inv.IsPositive() || !cost.IsPositive() {
		return Change{}, false
	}

	diff := inv.Sub(cost)
	pct := diff.Div(cost).Mul(hundred)
	if !pct.GreaterThan(decimal.NewFromFloat(tolerance).Mul(hundred)) {
		return Change{}, false
	}
	return Change{
		ItemName:        item,
		Supplier:        supplier,
		InventoryPrice:  cost.Round(2).InexactFloat64(),
		InvoicePrice:    inv.Round(2).InexactFloat64(),
		PriceDifference: diff.Round(2).InexactFloat64(),
		PercentageHike:  pct.Round(2).InexactFloat64(),
	}, true
}

// Detect сравнивает последние накладные со справочником, только точное совпадение названия.
func Detect(latest map[string]catalog.InvoiceLine, costs *catalog.CostIndex, tolerance float64) []Change {
	keys := make([]string, 0, len(latest))
	for k := range latest {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Change
	for _, k := range keys {
		line := latest[k]
		cost, ok := costs.Exact(line.ItemName)
		if !ok {
			continue
		}
		if c, ok := Compare(line.ItemName, line.Supplier, line.PiecePrice(), cost.UnitCost, tolerance); ok {
			out = append(out, c)
		}
	}
	return Dedupe(out)
}

// Dedupe убирает повторы по естественному ключу и упорядочивает: рост по убыванию, затем название.
func Dedupe(changes []Change) []Change {
	seen := make(map[key]struct{}, len(changes))
	out := make([]Change, 0, len(changes))
	for _, c := range changes {
		if _, ok := seen[c.key()]; ok {
			continue
		}
		seen[c.key()] = struct{}{}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PercentageHike != out[j].PercentageHike {
			return out[i].PercentageHike > out[j].PercentageHike
		}
		return out[i].ItemName < out[j].ItemName
	})
	return out
}
