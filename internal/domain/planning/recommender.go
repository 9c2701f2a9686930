package planning

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/order-planner/internal/domain/inventory"
	"github.com/Spok95/order-planner/internal/domain/sales"
	"github.com/Spok95/order-planner/internal/domain/suppliers"
)

const DefaultTopProducts = 100

// DailyLine: товар к дозаказу на конкретный день.
type DailyLine struct {
	ProductName   string
	InvoiceName   string
	Quantity      int
	CurrentStock  float64
	PredictedNeed float64
	DaysOfStock   float64
	Urgency       inventory.Urgency
	Priority      float64
}

// SupplierRecommendation: что заказать у поставщика и пора ли это делать сегодня.
type SupplierRecommendation struct {
	Supplier         string
	Cadence          suppliers.Cadence
	DaysSinceLast    int
	ShouldOrderToday bool
	EstimatedAmount  float64 // по себестоимости, если она известна
	Lines            []DailyLine
}

func (s SupplierRecommendation) urgentCount() int {
	n := 0
	for _, l := range s.Lines {
		if l.Urgency == inventory.UrgencyCritical || l.Urgency == inventory.UrgencyHigh {
			n++
		}
	}
	return n
}

// DaySchedule: поставщики, которым пора заказывать в этот день.
type DaySchedule struct {
	Date      time.Time
	Suppliers []SupplierRecommendation
	Critical  int
	High      int
}

type Recommender struct {
	Reorder     inventory.Calculator
	TopProducts int
}

func trendScore(t sales.Trend) float64 {
	switch t {
	case sales.TrendIncreasing:
		return 20
	case sales.TrendDecreasing:
		return 0
	default:
		return 10
	}
}

// Priority: срочность + объём продаж (не больше 50) + тренд.
func Priority(u inventory.Urgency, f sales.Forecast) float64 {
	return u.Score() + math.Min(f.TotalQty/10, 50) + trendScore(f.Trend)
}

// Daily: рекомендации на дату по самым продаваемым товарам.
// Учитываются только поставщики с известным ритмом заказов.
func (r Recommender) Daily(date time.Time, in Inputs) []SupplierRecommendation {
	top := r.TopProducts
	if top <= 0 {
		top = DefaultTopProducts
	}
	ranked := sales.Ranked(in.Forecasts)
	if len(ranked) > top {
		ranked = ranked[:top]
	}

	bySupplier := map[string]*SupplierRecommendation{}
	seen := map[[2]string]struct{}{}
	for _, f := range ranked {
		if in.Reconciler == nil {
			break
		}
		for _, invName := range in.Reconciler.InvoiceNamesFor(f.ProductName) {
			supplier, ok := in.Reconciler.SupplierOf(invName)
			if !ok {
				continue
			}
			cad, ok := in.Cadences[supplier]
			if !ok {
				continue
			}
			k := [2]string{supplier, f.ProductName}
			if _, dup := seen[k]; dup {
				continue
			}

			stock := 0.0
			if in.Stock != nil {
				stock = in.Stock.Lookup(f.ProductName)
			}
			rec := r.Reorder.Reorder(&f, cad, stock)
			if rec.RecommendedQty <= 0 {
				continue
			}
			seen[k] = struct{}{}

			sr, ok := bySupplier[supplier]
			if !ok {
				sr = &SupplierRecommendation{
					Supplier:         supplier,
					Cadence:          cad,
					ShouldOrderToday: cad.ShouldOrder(date),
				}
				// без истории заказов считать не от чего
				if !cad.LastOrderDate.IsZero() {
					sr.DaysSinceLast = suppliers.DaysBetween(cad.LastOrderDate, date)
				}
				bySupplier[supplier] = sr
			}
			sr.Lines = append(sr.Lines, DailyLine{
				ProductName:   f.ProductName,
				InvoiceName:   invName,
				Quantity:      rec.RecommendedQty,
				CurrentStock:  stock,
				PredictedNeed: math.Round(rec.PredictedNeed*10) / 10,
				DaysOfStock:   rec.DaysOfStock,
				Urgency:       rec.Urgency,
				Priority:      Priority(rec.Urgency, f),
			})
			if in.Costs != nil {
				if c, ok := in.Costs.Lookup(f.ProductName, f.Barcode); ok {
					sr.EstimatedAmount = decimal.NewFromFloat(sr.EstimatedAmount).
						Add(decimal.NewFromFloat(c.UnitCost).Mul(decimal.NewFromInt(int64(rec.RecommendedQty)))).
						Round(2).InexactFloat64()
				}
			}
		}
	}

	out := make([]SupplierRecommendation, 0, len(bySupplier))
	for _, sr := range bySupplier {
		sort.SliceStable(sr.Lines, func(i, j int) bool {
			if sr.Lines[i].Priority != sr.Lines[j].Priority {
				return sr.Lines[i].Priority > sr.Lines[j].Priority
			}
			return sr.Lines[i].ProductName < sr.Lines[j].ProductName
		})
		out = append(out, *sr)
	}
	sort.Slice(out, func(i, j int) bool {
		ui, uj := out[i].urgentCount(), out[j].urgentCount()
		if ui != uj {
			return ui > uj
		}
		if len(out[i].Lines) != len(out[j].Lines) {
			return len(out[i].Lines) > len(out[j].Lines)
		}
		return out[i].Supplier < out[j].Supplier
	})
	return out
}

// Schedule: расписание на days дней: только поставщики, которым пора заказывать.
func (r Recommender) Schedule(start time.Time, days int, in Inputs) []DaySchedule {
	out := make([]DaySchedule, 0, days)
	for d := 0; d < days; d++ {
		date := start.AddDate(0, 0, d)
		day := DaySchedule{Date: date}
		for _, sr := range r.Daily(date, in) {
			if !sr.ShouldOrderToday {
				continue
			}
			day.Suppliers = append(day.Suppliers, sr)
			for _, l := range sr.Lines {
				switch l.Urgency {
				case inventory.UrgencyCritical:
					day.Critical++
				case inventory.UrgencyHigh:
					day.High++
				}
			}
		}
		out = append(out, day)
	}
	return out
}
