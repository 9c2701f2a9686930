package sales

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultWindowDays = 90

	minTrendObservations = 10
	trendSlopeThreshold  = 0.1
)

type Options struct {
	WindowDays int
	Location   *time.Location
}

func (o Options) normalized() Options {
	if o.WindowDays <= 0 {
		o.WindowDays = DefaultWindowDays
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	return o
}

type productAcc struct {
	barcode    string
	barcodeAt  time.Time
	days       map[string]float64
	totalQty   float64
	totalValue float64
}

// Analyze считает прогноз по каждому товару, проданному в окне.
// Окно скользящее: заканчивается на последней транзакции, а не на «сегодня».
// Строки с неположительным количеством (возвраты, сторно) не учитываются.
func Analyze(txs []Transaction, opts Options) map[string]Forecast {
	opts = opts.normalized()
	out := map[string]Forecast{}

	var latest time.Time
	for _, tx := range txs {
		if tx.SoldAt.After(latest) {
			latest = tx.SoldAt
		}
	}
	if latest.IsZero() {
		return out
	}
	start := latest.Add(-time.Duration(opts.WindowDays) * 24 * time.Hour)

	acc := map[string]*productAcc{}
	for _, tx := range txs {
		if tx.ProductName == "" || tx.Quantity <= 0 || tx.SoldAt.Before(start) {
			continue
		}
		a, ok := acc[tx.ProductName]
		if !ok {
			a = &productAcc{days: map[string]float64{}}
			acc[tx.ProductName] = a
		}
		a.days[tx.SoldAt.In(opts.Location).Format(time.DateOnly)] += tx.Quantity
		a.totalQty += tx.Quantity
		a.totalValue += tx.LineAmount
		if tx.Barcode != "" && !tx.SoldAt.Before(a.barcodeAt) {
			a.barcode, a.barcodeAt = tx.Barcode, tx.SoldAt
		}
	}

	for name, a := range acc {
		keys := make([]string, 0, len(a.days))
		for k := range a.days {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		daily := make([]float64, len(keys))
		maxDaily := 0.0
		for i, k := range keys {
			daily[i] = a.days[k]
			if daily[i] > maxDaily {
				maxDaily = daily[i]
			}
		}

		f := Forecast{
			ProductName:    name,
			Barcode:        a.barcode,
			AvgDailyQty:    mean(daily),
			Trend:          trendOf(daily),
			SalesFrequency: math.Min(float64(len(daily))/float64(opts.WindowDays), 1),
			Volatility:     stddev(daily),
			TotalQty:       a.totalQty,
			MaxDailyQty:    maxDaily,
			ComputedAt:     latest,
		}
		f.WeeklyQty = f.Project(7)
		if a.totalQty > 0 {
			avgPrice := a.totalValue / a.totalQty
			f.WeeklyValue = decimal.NewFromFloat(f.WeeklyQty * avgPrice).Round(2).InexactFloat64()
		}
		out[name] = f
	}
	return out
}

// Ranked: прогнозы по убыванию продаж за окно, затем по названию.
func Ranked(forecasts map[string]Forecast) []Forecast {
	out := make([]Forecast, 0, len(forecasts))
	for _, f := range forecasts {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalQty != out[j].TotalQty {
			return out[i].TotalQty > out[j].TotalQty
		}
		return out[i].ProductName < out[j].ProductName
	})
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

// stddev: выборочное отклонение (n-1).
func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	ss := 0.0
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// trendOf: наклон МНК по порядковому номеру наблюдения.
func trendOf(daily []float64) Trend {
	n := len(daily)
	if n < minTrendObservations {
		return TrendStable
	}
	xm := float64(n-1) / 2
	ym := mean(daily)
	var num, den float64
	for i, y := range daily {
		dx := float64(i) - xm
		num += dx * (y - ym)
		den += dx * dx
	}
	if den == 0 {
		return TrendStable
	}
	switch slope := num / den; {
	case slope > trendSlopeThreshold:
		return TrendIncreasing
	case slope < -trendSlopeThreshold:
		return TrendDecreasing
	default:
		return TrendStable
	}
}
