package catalog

import "time"

// InvoiceLine: строка накладной поставщика.
type InvoiceLine struct {
	ID             int64
	Supplier       string
	ItemName       string
	Barcode        string
	InvoiceDate    time.Time
	UnitPrice      float64 // цена за единицу накладной (за коробку, если IsCarton)
	UnitPriceItem  float64 // цена за штуку, как записана в накладной (может быть 0)
	IsCarton       bool
	ItemsPerCarton int
	TotalLinePrice float64
}

// PiecePrice: цена одной штуки по накладной.
// Для коробок пересчитываем из цены коробки: unit_price_item в накладных бывает неверным.
func (l InvoiceLine) PiecePrice() float64 {
	if l.IsCarton && l.ItemsPerCarton > 1 {
		if l.UnitPrice > 0 {
			return l.UnitPrice / float64(l.ItemsPerCarton)
		}
		return l.UnitPriceItem / float64(l.ItemsPerCarton)
	}
	if l.UnitPriceItem > 0 {
		return l.UnitPriceItem
	}
	return l.UnitPrice
}

// CartonPrice: цена коробки; 0 если в накладной её нет.
func (l InvoiceLine) CartonPrice() float64 {
	if l.IsCarton {
		return l.UnitPrice
	}
	return 0
}

// CatalogCost: справочная себестоимость из мастер-списка товаров.
type CatalogCost struct {
	ProductName string
	UnitCost    float64
	Barcode     string
	Category    string
}

// Alias: ручное сопоставление названия в кассе с названием в накладных.
type Alias struct {
	POSName     string
	InvoiceName string
}

// Match: кандидат сопоставления со степенью похожести.
type Match struct {
	Name  string
	Score float64
}
