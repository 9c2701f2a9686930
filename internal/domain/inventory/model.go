package inventory

import "time"

type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"
	UrgencyLow      Urgency = "low"
)

// Score: вес срочности в приоритете дневных рекомендаций.
func (u Urgency) Score() float64 {
	switch u {
	case UrgencyCritical:
		return 100
	case UrgencyHigh:
		return 80
	case UrgencyMedium:
		return 50
	default:
		return 20
	}
}

// Level: текущий остаток товара.
type Level struct {
	ProductName string
	Qty         float64
	UpdatedAt   time.Time
}

// Recommendation: сколько дозаказать и насколько срочно.
type Recommendation struct {
	CurrentStock   float64
	PredictedNeed  float64
	RecommendedQty int
	LeadTimeDays   int
	DaysOfStock    float64 // +Inf, если спроса нет
	Urgency        Urgency
}
