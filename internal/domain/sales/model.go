package sales

import "time"

type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendStable     Trend = "stable"
	TrendDecreasing Trend = "decreasing"
)

// Multiplier: поправка прогноза на направление тренда.
func (t Trend) Multiplier() float64 {
	switch t {
	case TrendIncreasing:
		return 1.2
	case TrendDecreasing:
		return 0.8
	default:
		return 1.0
	}
}

// Transaction: строка чека из кассы.
type Transaction struct {
	ID          int64
	ProductName string
	Barcode     string
	SoldAt      time.Time
	Quantity    float64
	LineAmount  float64
}

// Forecast: статистика спроса по товару за скользящее окно.
type Forecast struct {
	ProductName    string
	Barcode        string
	AvgDailyQty    float64
	Trend          Trend
	SalesFrequency float64 // доля дней окна с продажами, [0,1]
	Volatility     float64
	TotalQty       float64
	MaxDailyQty    float64
	WeeklyQty      float64
	WeeklyValue    float64
	ComputedAt     time.Time
}

// Project: ожидаемый спрос на days дней вперёд, не меньше 0.
func (f Forecast) Project(days float64) float64 {
	freq := f.SalesFrequency * 2
	if freq > 1 {
		freq = 1
	}
	v := f.AvgDailyQty * days * f.Trend.Multiplier() * freq
	if v < 0 {
		return 0
	}
	return v
}
