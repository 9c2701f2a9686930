package pricechanges

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("price change not found")

// Change: рост закупочной цены относительно справочной себестоимости.
// (ItemName, Supplier, InventoryPrice, InvoicePrice): естественный ключ.
type Change struct {
	ID              int64
	ItemName        string
	Supplier        string
	InventoryPrice  float64
	InvoicePrice    float64
	PriceDifference float64
	PercentageHike  float64
	Reviewed        bool
	DetectedAt      time.Time
}

type key struct {
	item, supplier    string
	inventory, invoice float64
}

func (c Change) key() key {
	return key{c.ItemName, c.Supplier, c.InventoryPrice, c.InvoicePrice}
}
