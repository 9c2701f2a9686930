package catalog

import (
	"sort"
)

// Thresholds: пороги похожести для разных потребителей.
// Ложное совпадение стоит по-разному, поэтому пороги разные.
type Thresholds struct {
	POSInvoice    float64 // касса <-> накладные
	Cost          float64 // поиск себестоимости
	Supplier      float64 // определение поставщика
	Carton        float64 // выбор упаковки
	MaxCandidates int
}

func DefaultThresholds() Thresholds {
	return Thresholds{POSInvoice: 0.70, Cost: 0.80, Supplier: 0.50, Carton: 0.70, MaxCandidates: 3}
}

// Reconciler сопоставляет названия кассы, накладных и поставщиков в обе стороны.
type Reconciler struct {
	th        Thresholds
	toInvoice Chain
	toPOS     map[string][]string
	posExact  *ExactStrategy

	latest     map[string]InvoiceLine // Normalize(item) -> последняя накладная
	latestKeys []string

	supplierItems map[string]map[string]struct{}
	suppliers     []string
}

func NewReconciler(aliases []Alias, lines []InvoiceLine, posNames []string, th Thresholds) *Reconciler {
	r := &Reconciler{
		th:            th,
		toPOS:         map[string][]string{},
		posExact:      NewExactStrategy(posNames),
		latest:        LatestInvoices(lines),
		supplierItems: map[string]map[string]struct{}{},
	}

	for k := range r.latest {
		r.latestKeys = append(r.latestKeys, k)
	}
	sort.Strings(r.latestKeys)

	itemNames := make([]string, 0, len(r.latestKeys))
	for _, k := range r.latestKeys {
		itemNames = append(itemNames, r.latest[k].ItemName)
	}

	for _, l := range lines {
		if l.Supplier == "" || l.ItemName == "" {
			continue
		}
		items, ok := r.supplierItems[l.Supplier]
		if !ok {
			items = map[string]struct{}{}
			r.supplierItems[l.Supplier] = items
			r.suppliers = append(r.suppliers, l.Supplier)
		}
		items[Normalize(l.ItemName)] = struct{}{}
	}
	sort.Strings(r.suppliers)

	manual := NewManualStrategy(aliases)
	r.toInvoice = Chain{
		manual,
		NewExactStrategy(itemNames),
		NewFuzzyStrategy(itemNames, TokenSortRatio, th.POSInvoice, th.MaxCandidates),
	}

	// обратный индекс: ручные сопоставления + автоматические для остальных названий кассы
	for _, a := range aliases {
		r.addReverse(a.InvoiceName, a.POSName)
	}
	auto := NewFuzzyStrategy(itemNames, TokenSortRatio, th.POSInvoice, th.MaxCandidates)
	for _, pos := range posNames {
		if len(manual.Lookup(pos)) > 0 {
			continue
		}
		for _, inv := range auto.Lookup(pos) {
			r.addReverse(inv, pos)
		}
	}
	return r
}

func (r *Reconciler) addReverse(invoiceName, posName string) {
	k := Normalize(invoiceName)
	for _, existing := range r.toPOS[k] {
		if existing == posName {
			return
		}
	}
	r.toPOS[k] = append(r.toPOS[k], posName)
}

// InvoiceNamesFor: названия в накладных для названия из кассы.
// Пустой результат не ошибка: вызывающий откатывается на свои эвристики.
func (r *Reconciler) InvoiceNamesFor(posName string) []string {
	_, names := r.toInvoice.Lookup(posName)
	return names
}

// POSNamesFor: названия кассы для названия из накладной.
func (r *Reconciler) POSNamesFor(invoiceName string) []string {
	if names := r.toPOS[Normalize(invoiceName)]; len(names) > 0 {
		return names
	}
	return r.posExact.Lookup(invoiceName)
}

// SupplierOf: поставщик из самой свежей накладной по этому товару.
func (r *Reconciler) SupplierOf(invoiceItem string) (string, bool) {
	l, ok := r.latest[Normalize(invoiceItem)]
	if !ok {
		return "", false
	}
	return l.Supplier, true
}

// AssignSupplier ищет поставщика товара: точное совпадение, затем пересечение слов.
func (r *Reconciler) AssignSupplier(productName string) (string, bool) {
	key := Normalize(productName)
	for _, s := range r.suppliers {
		if _, ok := r.supplierItems[s][key]; ok {
			return s, true
		}
	}

	best, bestScore := "", 0.0
	for _, s := range r.suppliers {
		items := make([]string, 0, len(r.supplierItems[s]))
		for it := range r.supplierItems[s] {
			items = append(items, it)
		}
		sort.Strings(items)
		for _, it := range items {
			if score := WordOverlap(key, it); score > bestScore && score >= r.th.Supplier {
				best, bestScore = s, score
			}
		}
	}
	return best, best != ""
}

// ExactInvoice: только точное совпадение. Для сравнения цен нечёткий поиск запрещён:
// "JW Black 700ml" и "JW Black 200ml" дают мусорное сравнение.
func (r *Reconciler) ExactInvoice(productName string) (InvoiceLine, bool) {
	l, ok := r.latest[Normalize(productName)]
	return l, ok
}

// CartonInvoice: накладная для выбора упаковки: точно, иначе по пересечению слов.
func (r *Reconciler) CartonInvoice(productName string) (InvoiceLine, bool) {
	if l, ok := r.ExactInvoice(productName); ok {
		return l, true
	}
	key := Normalize(productName)
	var (
		best      InvoiceLine
		bestScore float64
		found     bool
	)
	for _, k := range r.latestKeys {
		if score := WordOverlap(key, k); score > bestScore && score >= r.th.Carton {
			best, bestScore, found = r.latest[k], score, true
		}
	}
	return best, found
}

func (r *Reconciler) Suppliers() []string { return r.suppliers }

// Latest: самые свежие накладные по товарам.
func (r *Reconciler) Latest() map[string]InvoiceLine { return r.latest }

// LatestInvoices оставляет по одной, самой свежей, строке на товар.
// При равной дате побеждает строка, идущая позже.
func LatestInvoices(lines []InvoiceLine) map[string]InvoiceLine {
	out := make(map[string]InvoiceLine, len(lines))
	for _, l := range lines {
		if l.Supplier == "" || l.ItemName == "" {
			continue
		}
		k := Normalize(l.ItemName)
		if cur, ok := out[k]; ok && cur.InvoiceDate.After(l.InvoiceDate) {
			continue
		}
		out[k] = l
	}
	return out
}
