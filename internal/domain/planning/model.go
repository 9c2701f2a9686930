package planning

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Spok95/order-planner/internal/domain/catalog"
	"github.com/Spok95/order-planner/internal/domain/inventory"
	"github.com/Spok95/order-planner/internal/domain/pricechanges"
	"github.com/Spok95/order-planner/internal/domain/sales"
	"github.com/Spok95/order-planner/internal/domain/suppliers"
)

var (
	ErrInvalidMonth      = errors.New("invalid month, want YYYY-MM")
	ErrNoSuppliers       = errors.New("no supplier data available")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotFound          = errors.New("order not found")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusOrdered   Status = "ordered"
	StatusDelivered Status = "delivered"
)

var statusRank = map[Status]int{StatusPending: 0, StatusOrdered: 1, StatusDelivered: 2}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := statusRank[st]; !ok {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, s)
	}
	return st, nil
}

// CanTransition: только вперёд: pending -> ordered -> delivered, перескок разрешён.
func (s Status) CanTransition(to Status) bool {
	from, ok1 := statusRank[s]
	next, ok2 := statusRank[to]
	return ok1 && ok2 && next > from
}

type OrderUnit string

const (
	UnitCarton OrderUnit = "carton"
	UnitLoose  OrderUnit = "loose"
)

// Line: позиция заказа. Subtotal = Quantity × UnitPrice, округлено до центов.
type Line struct {
	Position       int
	ProductName    string
	OrderUnit      OrderUnit
	Quantity       int // коробки или штуки
	ItemsPerCarton int
	UnitCost       float64 // себестоимость штуки
	UnitPrice      float64 // цена коробки или штуки
	Subtotal       float64
	WeeklyValue    float64
	Urgency        inventory.Urgency
}

// WeeklyOrder: один заказ у поставщика на неделю.
type WeeklyOrder struct {
	ID          int64
	RunID       uuid.UUID
	Supplier    string
	WeekStart   time.Time
	WeekLabel   string
	Total       float64
	Status      Status
	Notes       string
	Lines       []Line
	CreatedAt   time.Time
	OrderedAt   *time.Time
	DeliveredAt *time.Time
}

// Inputs: всё, что нужно планировщику; загружается сервисом.
type Inputs struct {
	Forecasts  map[string]sales.Forecast
	Reconciler *catalog.Reconciler
	Costs      *catalog.CostIndex
	Stock      *inventory.StockIndex
	Cadences   map[string]suppliers.Cadence
}

type Plan struct {
	Month        time.Time
	RunID        uuid.UUID
	Weeks        []Week
	WeeklyBudget float64
	Orders       []WeeklyOrder
	PriceChanges []pricechanges.Change
	Unmatched    []string
}

func (p Plan) Total() float64 {
	sum := decimal.Zero
	for _, o := range p.Orders {
		sum = sum.Add(decimal.NewFromFloat(o.Total))
	}
	return sum.Round(2).InexactFloat64()
}

// Filter: выборка заказов для дашборда; пустые поля не фильтруют.
type Filter struct {
	Month    *time.Time
	Supplier string
	Status   Status
}
