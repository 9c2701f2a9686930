package inventory

import (
	"math"

	"github.com/Spok95/order-planner/internal/domain/sales"
	"github.com/Spok95/order-planner/internal/domain/suppliers"
)

const (
	DefaultSafetyDays = 3
	minOrderUnits     = 5
)

type Calculator struct {
	SafetyDays int
}

// Reorder сравнивает прогноз спроса на срок поставки + страховой запас с остатком.
// f == nil: продаж в окне не было.
func (c Calculator) Reorder(f *sales.Forecast, cad suppliers.Cadence, stock float64) Recommendation {
	lead := cad.BufferDays
	horizon := float64(lead + c.SafetyDays)

	need := 0.0
	if f != nil {
		need = f.Project(horizon)
	}

	rec := Recommendation{
		CurrentStock:  stock,
		PredictedNeed: need,
		LeadTimeDays:  lead,
	}

	if gap := need - stock; gap > 0 {
		qty := int(math.Ceil(gap - 1e-9))
		if qty < minOrderUnits {
			qty = minOrderUnits
		}
		rec.RecommendedQty = qty
	}

	switch {
	case need <= 0 || horizon <= 0:
		rec.DaysOfStock = math.Inf(1)
	default:
		// дневной расход: need на весь горизонт (lead + safety), а не на lead
		rec.DaysOfStock = stock / (need / horizon)
	}
	rec.Urgency = classify(stock, rec.DaysOfStock)
	return rec
}

func classify(stock, daysOfStock float64) Urgency {
	switch {
	case stock <= 0:
		return UrgencyCritical
	case daysOfStock <= 2:
		return UrgencyHigh
	case daysOfStock <= 5:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}
