package suppliers

import (
	"sort"
	"time"
)

// Analyze считает ритм по заказам внутри надёжного окна [from, to] включительно.
// Данные вне окна считаются непроверенными. Нужно минимум два заказа.
func Analyze(orders []Order, from, to time.Time) map[string]Cadence {
	bySupplier := map[string][]Order{}
	for _, o := range orders {
		if o.Supplier == "" || DaysBetween(from, o.OrderDate) < 0 || DaysBetween(o.OrderDate, to) < 0 {
			continue
		}
		bySupplier[o.Supplier] = append(bySupplier[o.Supplier], o)
	}

	out := make(map[string]Cadence, len(bySupplier))
	for supplier, list := range bySupplier {
		if len(list) < 2 {
			continue
		}
		sort.SliceStable(list, func(i, j int) bool { return list[i].OrderDate.Before(list[j].OrderDate) })

		gaps := 0
		sum, minA, maxA := 0.0, list[0].Amount, list[0].Amount
		for i, o := range list {
			if i > 0 {
				gaps += DaysBetween(list[i-1].OrderDate, o.OrderDate)
			}
			sum += o.Amount
			if o.Amount < minA {
				minA = o.Amount
			}
			if o.Amount > maxA {
				maxA = o.Amount
			}
		}

		avg := float64(gaps) / float64(len(list)-1)
		freq, buf := Classify(avg)
		out[supplier] = Cadence{
			Supplier:       supplier,
			AvgDaysBetween: avg,
			Frequency:      freq,
			BufferDays:     buf,
			OrderCount:     len(list),
			AvgAmount:      sum / float64(len(list)),
			MinAmount:      minA,
			MaxAmount:      maxA,
			LastOrderDate:  list[len(list)-1].OrderDate,
		}
	}
	return out
}

// Lookup: ритм поставщика или значение по умолчанию.
func Lookup(cadences map[string]Cadence, supplier string) Cadence {
	if c, ok := cadences[supplier]; ok {
		return c
	}
	return Default(supplier)
}

// Merge накладывает пересчитанный ритм на сохранённый, как это делает WriteCadences:
// поставщики без свежей истории остаются, last_order_date берётся более поздний.
func Merge(stored, computed map[string]Cadence) map[string]Cadence {
	out := make(map[string]Cadence, len(stored)+len(computed))
	for k, c := range stored {
		out[k] = c
	}
	for k, c := range computed {
		if st, ok := stored[k]; ok && st.LastOrderDate.After(c.LastOrderDate) {
			c.LastOrderDate = st.LastOrderDate
		}
		out[k] = c
	}
	return out
}
