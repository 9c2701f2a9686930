package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Spok95/order-planner/internal/domain/planning"
	"github.com/Spok95/order-planner/internal/domain/pricechanges"
	"github.com/Spok95/order-planner/internal/infra/metrics"
)

type OrderService interface {
	Generate(ctx context.Context, month string) (planning.Result, error)
	ListOrders(ctx context.Context, f planning.Filter) ([]planning.WeeklyOrder, error)
	ListSuppliers(ctx context.Context) ([]string, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

type PriceService interface {
	Refresh(ctx context.Context) ([]pricechanges.Change, int, error)
	List(ctx context.Context, reviewed *bool) ([]pricechanges.Change, error)
	MarkReviewed(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// Handler: JSON API дашборда заказов и изменений цен.
type Handler struct {
	log    *slog.Logger
	orders OrderService
	prices PriceService
}

func NewHandler(log *slog.Logger, orders OrderService, prices PriceService) *Handler {
	return &Handler{log: log, orders: orders, prices: prices}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/orders", h.listOrders)
	mux.HandleFunc("GET /api/orders/suppliers", h.listSuppliers)
	mux.HandleFunc("POST /api/orders/{id}/status", h.updateStatus)
	mux.HandleFunc("POST /api/plan", h.generatePlan)
	mux.HandleFunc("GET /api/price-changes", h.listPriceChanges)
	mux.HandleFunc("POST /api/price-changes/refresh", h.refreshPriceChanges)
	mux.HandleFunc("POST /api/price-changes/{id}/review", h.reviewPriceChange)
	mux.HandleFunc("DELETE /api/price-changes/{id}", h.deletePriceChange)
}

type lineDTO struct {
	Position       int     `json:"position"`
	ProductName    string  `json:"product_name"`
	OrderUnit      string  `json:"order_unit"`
	Quantity       int     `json:"quantity"`
	ItemsPerCarton int     `json:"items_per_carton"`
	UnitCost       float64 `json:"unit_cost"`
	UnitPrice      float64 `json:"unit_price"`
	Subtotal       float64 `json:"subtotal"`
	Urgency        string  `json:"urgency"`
}

type orderDTO struct {
	ID          int64      `json:"id"`
	RunID       string     `json:"run_id"`
	Supplier    string     `json:"supplier_name"`
	WeekStart   string     `json:"week_start"`
	WeekLabel   string     `json:"week_label"`
	Total       float64    `json:"total_amount"`
	Status      string     `json:"status"`
	Notes       string     `json:"notes"`
	Lines       []lineDTO  `json:"items"`
	CreatedAt   time.Time  `json:"created_at"`
	OrderedAt   *time.Time `json:"ordered_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

type priceChangeDTO struct {
	ID              int64     `json:"id"`
	ItemName        string    `json:"item_name"`
	Supplier        string    `json:"supplier"`
	InventoryPrice  float64   `json:"inventory_price"`
	InvoicePrice    float64   `json:"invoice_price"`
	PriceDifference float64   `json:"price_difference"`
	PercentageHike  float64   `json:"percentage_hike"`
	Reviewed        bool      `json:"reviewed"`
	DetectedAt      time.Time `json:"detected_at"`
}

func toOrderDTO(o planning.WeeklyOrder) orderDTO {
	d := orderDTO{
		ID:          o.ID,
		RunID:       o.RunID.String(),
		Supplier:    o.Supplier,
		WeekStart:   o.WeekStart.Format(time.DateOnly),
		WeekLabel:   o.WeekLabel,
		Total:       o.Total,
		Status:      string(o.Status),
		Notes:       o.Notes,
		Lines:       make([]lineDTO, 0, len(o.Lines)),
		CreatedAt:   o.CreatedAt,
		OrderedAt:   o.OrderedAt,
		DeliveredAt: o.DeliveredAt,
	}
	for _, l := range o.Lines {
		d.Lines = append(d.Lines, lineDTO{
			Position:       l.Position,
			ProductName:    l.ProductName,
			OrderUnit:      string(l.OrderUnit),
			Quantity:       l.Quantity,
			ItemsPerCarton: l.ItemsPerCarton,
			UnitCost:       l.UnitCost,
			UnitPrice:      l.UnitPrice,
			Subtotal:       l.Subtotal,
			Urgency:        string(l.Urgency),
		})
	}
	return d
}

func toPriceChangeDTO(c pricechanges.Change) priceChangeDTO {
	return priceChangeDTO{
		ID:              c.ID,
		ItemName:        c.ItemName,
		Supplier:        c.Supplier,
		InventoryPrice:  c.InventoryPrice,
		InvoicePrice:    c.InvoicePrice,
		PriceDifference: c.PriceDifference,
		PercentageHike:  c.PercentageHike,
		Reviewed:        c.Reviewed,
		DetectedAt:      c.DetectedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail переводит доменную ошибку в HTTP-статус.
func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, planning.ErrInvalidMonth), errors.Is(err, planning.ErrInvalidTransition):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, planning.ErrNotFound), errors.Is(err, pricechanges.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, planning.ErrNoSuppliers):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.log.Error("api request failed", "op", op, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f planning.Filter
	if m := q.Get("month"); m != "" {
		month, err := planning.ParseMonth(m)
		if err != nil {
			h.fail(w, "list orders", err)
			return
		}
		f.Month = &month
	}
	f.Supplier = q.Get("supplier")
	if s := q.Get("status"); s != "" {
		st, err := planning.ParseStatus(s)
		if err != nil {
			h.fail(w, "list orders", err)
			return
		}
		f.Status = st
	}

	orders, err := h.orders.ListOrders(r.Context(), f)
	if err != nil {
		h.fail(w, "list orders", err)
		return
	}
	out := make([]orderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderDTO(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	list, err := h.orders.ListSuppliers(r.Context())
	if err != nil {
		h.fail(w, "list suppliers", err)
		return
	}
	if list == nil {
		list = []string{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}
	if err := h.orders.UpdateStatus(r.Context(), id, body.Status); err != nil {
		h.fail(w, "update status", err)
		return
	}
	h.log.Info("order status updated", "order_id", id, "status", body.Status)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": body.Status})
}

func (h *Handler) generatePlan(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	var res planning.Result
	err := metrics.Observe("plan", func() error {
		var err error
		res, err = h.orders.Generate(r.Context(), month)
		return err
	})
	if err != nil {
		h.fail(w, "generate plan", err)
		return
	}
	metrics.PlannedOrders.Set(float64(res.Saved.Orders))
	metrics.PlannedSpend.Set(res.Plan.Total())
	metrics.UnmatchedItems.Set(float64(len(res.Plan.Unmatched)))

	writeJSON(w, http.StatusOK, map[string]any{
		"month":         res.Plan.Month.Format("2006-01"),
		"run_id":        res.Plan.RunID.String(),
		"weeks":         len(res.Plan.Weeks),
		"weekly_budget": res.Plan.WeeklyBudget,
		"orders":        res.Saved.Orders,
		"total":         res.Plan.Total(),
		"unmatched":     len(res.Plan.Unmatched),
		"price_changes": res.Saved.PriceChanges,
		"skipped":       res.Saved.Skipped,
	})
}

func (h *Handler) listPriceChanges(w http.ResponseWriter, r *http.Request) {
	var reviewed *bool
	if s := r.URL.Query().Get("reviewed"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "reviewed must be true or false")
			return
		}
		reviewed = &b
	}
	list, err := h.prices.List(r.Context(), reviewed)
	if err != nil {
		h.fail(w, "list price changes", err)
		return
	}
	out := make([]priceChangeDTO, 0, len(list))
	for _, c := range list {
		out = append(out, toPriceChangeDTO(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) refreshPriceChanges(w http.ResponseWriter, r *http.Request) {
	var (
		changes []pricechanges.Change
		stored  int
	)
	err := metrics.Observe("prices", func() error {
		var err error
		changes, stored, err = h.prices.Refresh(r.Context())
		return err
	})
	if err != nil {
		h.fail(w, "refresh price changes", err)
		return
	}
	metrics.PriceChanges.Set(float64(len(changes)))
	writeJSON(w, http.StatusOK, map[string]int{"detected": len(changes), "stored": stored})
}

func (h *Handler) reviewPriceChange(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid price change id")
		return
	}
	if err := h.prices.MarkReviewed(r.Context(), id); err != nil {
		h.fail(w, "review price change", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "reviewed": true})
}

func (h *Handler) deletePriceChange(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid price change id")
		return
	}
	if err := h.prices.Delete(r.Context(), id); err != nil {
		h.fail(w, "delete price change", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
