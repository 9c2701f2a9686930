package inventory

import (
	"sort"

	"github.com/Spok95/order-planner/internal/domain/catalog"
)

// StockIndex: остатки по названию: точно, иначе самое похожее, иначе 0.
type StockIndex struct {
	byKey     map[string]float64
	keys      []string
	threshold float64
}

func NewStockIndex(levels []Level, threshold float64) *StockIndex {
	ix := &StockIndex{byKey: map[string]float64{}, threshold: threshold}
	for _, l := range levels {
		k := catalog.Normalize(l.ProductName)
		if _, ok := ix.byKey[k]; !ok {
			ix.keys = append(ix.keys, k)
		}
		ix.byKey[k] = l.Qty
	}
	sort.Strings(ix.keys)
	return ix
}

func (ix *StockIndex) Lookup(name string) float64 {
	key := catalog.Normalize(name)
	if q, ok := ix.byKey[key]; ok {
		return q
	}
	if m := catalog.Best(key, ix.keys, catalog.TokenSortRatio, ix.threshold, 1); len(m) > 0 {
		return ix.byKey[m[0].Name]
	}
	return 0
}
