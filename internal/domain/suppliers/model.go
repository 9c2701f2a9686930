package suppliers

import "time"

type Frequency string

const (
	FrequencyHigh   Frequency = "high"
	FrequencyMedium Frequency = "medium"
	FrequencyLow    Frequency = "low"
)

// Order: факт заказа у поставщика (только сумма, без позиций).
type Order struct {
	ID        int64
	Supplier  string
	OrderDate time.Time
	Amount    float64
}

// Cadence: ритм заказов поставщика.
type Cadence struct {
	Supplier       string
	AvgDaysBetween float64
	Frequency      Frequency
	BufferDays     int // recommended_buffer_days, он же срок поставки для расчёта дозаказа
	OrderCount     int
	AvgAmount      float64
	MinAmount      float64
	MaxAmount      float64
	LastOrderDate  time.Time // нулевое значение: заказов не было
}

// Classify: ступенчатая функция от среднего интервала: <=4 дн, <=7 дн, дальше.
func Classify(avgDays float64) (Frequency, int) {
	switch {
	case avgDays <= 4:
		return FrequencyHigh, 2
	case avgDays <= 7:
		return FrequencyMedium, 4
	default:
		return FrequencyLow, 7
	}
}

// Default: ритм для поставщика без надёжной истории заказов.
func Default(supplier string) Cadence {
	freq, buf := Classify(7)
	return Cadence{Supplier: supplier, AvgDaysBetween: 7, Frequency: freq, BufferDays: buf}
}

// ShouldOrder: прошло ли с последнего заказа не меньше среднего интервала.
func (c Cadence) ShouldOrder(target time.Time) bool {
	if c.LastOrderDate.IsZero() {
		return false
	}
	return float64(DaysBetween(c.LastOrderDate, target)) >= c.AvgDaysBetween
}

// DaysBetween: разница в целых календарных днях (b - a).
func DaysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
