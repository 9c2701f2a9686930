package catalog

import "sort"

// CostIndex ищет себестоимость: штрихкод, точное название, пересечение слов.
type CostIndex struct {
	byName    map[string]CatalogCost
	byBarcode map[string]CatalogCost
	keys      []string
	threshold float64
}

// NewCostIndex пропускает записи без положительной себестоимости.
func NewCostIndex(costs []CatalogCost, threshold float64) *CostIndex {
	ix := &CostIndex{
		byName:    map[string]CatalogCost{},
		byBarcode: map[string]CatalogCost{},
		threshold: threshold,
	}
	for _, c := range costs {
		if c.UnitCost <= 0 || c.ProductName == "" {
			continue
		}
		k := Normalize(c.ProductName)
		if _, ok := ix.byName[k]; !ok {
			ix.keys = append(ix.keys, k)
		}
		ix.byName[k] = c
		if c.Barcode != "" {
			ix.byBarcode[c.Barcode] = c
		}
	}
	sort.Strings(ix.keys)
	return ix
}

func (ix *CostIndex) Len() int { return len(ix.byName) }

// Lookup: первая сработавшая стратегия выигрывает.
func (ix *CostIndex) Lookup(name, barcode string) (CatalogCost, bool) {
	if barcode != "" {
		if c, ok := ix.byBarcode[barcode]; ok {
			return c, true
		}
	}
	if c, ok := ix.Exact(name); ok {
		return c, true
	}

	key := Normalize(name)
	var (
		best      CatalogCost
		bestScore float64
		found     bool
	)
	for _, k := range ix.keys {
		if score := WordOverlap(key, k); score > bestScore && score >= ix.threshold {
			best, bestScore, found = ix.byName[k], score, true
		}
	}
	return best, found
}

// Exact: только точное совпадение названия (для сравнения цен).
func (ix *CostIndex) Exact(name string) (CatalogCost, bool) {
	c, ok := ix.byName[Normalize(name)]
	return c, ok
}
