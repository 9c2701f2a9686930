package planning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Spok95/order-planner/internal/domain/inventory"
	"github.com/Spok95/order-planner/internal/domain/pricechanges"
	"github.com/Spok95/order-planner/internal/domain/sales"
	"github.com/Spok95/order-planner/internal/domain/suppliers"
)

// planLockKey: ключ advisory lock: два запуска плана не пишут одновременно.
const planLockKey int64 = 0x6f72646572706c6e

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// SaveResult: сколько записано за один запуск.
type SaveResult struct {
	Orders       int
	Lines        int
	PriceChanges int
	Replaced     int64
	Skipped      int // заказы плана, не поместившиеся рядом с уже оформленными
}

// History: прогнозы спроса и ритм поставщиков, из которых построен план.
// nil-карта не записывается.
type History struct {
	Forecasts map[string]sales.Forecast
	Cadences  map[string]suppliers.Cadence
}

func writeHistory(ctx context.Context, tx pgx.Tx, h History) error {
	if h.Forecasts != nil {
		if err := sales.WriteForecasts(ctx, tx, h.Forecasts); err != nil {
			return fmt.Errorf("save forecasts: %w", err)
		}
	}
	if h.Cadences != nil {
		if err := suppliers.WriteCadences(ctx, tx, h.Cadences); err != nil {
			return fmt.Errorf("save cadences: %w", err)
		}
	}
	return nil
}

// SaveHistory сохраняет прогнозы и ритм одним снимком.
func (r *Repo) SaveHistory(ctx context.Context, h History) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err = writeHistory(ctx, tx, h); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// committedWeeks: заказы месяца, которые уже не pending, по неделям.
func committedWeeks(ctx context.Context, tx pgx.Tx, from, to time.Time) (map[string]weekLoad, error) {
	rows, err := tx.Query(ctx, `
		SELECT week_start, supplier_name, total_amount
		FROM weekly_orders
		WHERE status <> 'pending' AND week_start >= $1 AND week_start < $2
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]weekLoad{}
	for rows.Next() {
		var (
			week     time.Time
			supplier string
			total    float64
		)
		if err := rows.Scan(&week, &supplier, &total); err != nil {
			return nil, err
		}
		k := week.Format(time.DateOnly)
		load, ok := out[k]
		if !ok {
			load = weekLoad{suppliers: map[string]struct{}{}, total: decimal.Zero}
		}
		load.suppliers[supplier] = struct{}{}
		load.total = load.total.Add(decimal.NewFromFloat(total))
		out[k] = load
	}
	return out, rows.Err()
}

// ReplacePending заменяет pending-заказы месяца новым планом одной транзакцией
// и в ней же сохраняет историю, из которой план построен.
// Заказы в статусах ordered/delivered не трогаем: их поставщики на эту неделю
// из плана выпадают, а их сумма уменьшает бюджет недели.
// После успешной записи plan.Orders содержит только записанные заказы.
func (r *Repo) ReplacePending(ctx context.Context, plan *Plan, h History) (SaveResult, error) {
	var res SaveResult

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return res, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, planLockKey); err != nil {
		return res, fmt.Errorf("plan lock: %w", err)
	}
	if err = writeHistory(ctx, tx, h); err != nil {
		return res, err
	}

	from, to := MonthBounds(plan.Month)
	tag, err := tx.Exec(ctx, `
		DELETE FROM weekly_orders
		WHERE status = 'pending' AND week_start >= $1 AND week_start < $2
	`, from, to)
	if err != nil {
		return res, fmt.Errorf("delete pending orders: %w", err)
	}
	res.Replaced = tag.RowsAffected()

	committed, err := committedWeeks(ctx, tx, from, to)
	if err != nil {
		return res, fmt.Errorf("load committed orders: %w", err)
	}
	kept, skipped := fitCommitted(plan.Orders, plan.WeeklyBudget, committed)
	res.Skipped = skipped

	for _, o := range kept {
		var id int64
		if err = tx.QueryRow(ctx, `
			INSERT INTO weekly_orders (run_id, supplier_name, week_start, week_label, total_amount, status, notes)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			RETURNING id
		`, o.RunID, o.Supplier, o.WeekStart, o.WeekLabel, o.Total, string(StatusPending), o.Notes).Scan(&id); err != nil {
			return res, fmt.Errorf("insert order %s/%s: %w", o.Supplier, o.WeekLabel, err)
		}
		for _, l := range o.Lines {
			if _, err = tx.Exec(ctx, `
				INSERT INTO weekly_order_lines (order_id, position, product_name, order_unit, quantity,
					items_per_carton, unit_cost, unit_price, subtotal, urgency)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			`, id, l.Position, l.ProductName, string(l.OrderUnit), l.Quantity, l.ItemsPerCarton,
				l.UnitCost, l.UnitPrice, l.Subtotal, string(l.Urgency)); err != nil {
				return res, fmt.Errorf("insert line %q: %w", l.ProductName, err)
			}
			res.Lines++
		}
		res.Orders++
	}

	if res.PriceChanges, err = pricechanges.Insert(ctx, tx, plan.PriceChanges); err != nil {
		return res, err
	}
	if err = tx.Commit(ctx); err != nil {
		return res, err
	}
	plan.Orders = kept
	return res, nil
}

// UpdateStatus двигает заказ вперёд и отмечает дату заказа у поставщика.
func (r *Repo) UpdateStatus(ctx context.Context, id int64, to Status) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		supplier string
		current  string
	)
	err = tx.QueryRow(ctx, `SELECT supplier_name, status FROM weekly_orders WHERE id = $1 FOR UPDATE`, id).
		Scan(&supplier, &current)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if !Status(current).CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, to)
	}

	if _, err = tx.Exec(ctx, `
		UPDATE weekly_orders SET
			status       = $2,
			ordered_at   = COALESCE(ordered_at, now()),
			delivered_at = CASE WHEN $2 = 'delivered' THEN now() ELSE delivered_at END
		WHERE id = $1
	`, id, string(to)); err != nil {
		return err
	}
	if err = suppliers.TouchLastOrder(ctx, tx, supplier); err != nil {
		return fmt.Errorf("stamp last order: %w", err)
	}
	return tx.Commit(ctx)
}

// ListOrders: заказы с позициями, по неделе и сумме.
func (r *Repo) ListOrders(ctx context.Context, f Filter) ([]WeeklyOrder, error) {
	var from, to *time.Time
	if f.Month != nil {
		a, b := MonthBounds(*f.Month)
		from, to = &a, &b
	}
	var supplier, status *string
	if f.Supplier != "" {
		supplier = &f.Supplier
	}
	if f.Status != "" {
		s := string(f.Status)
		status = &s
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, run_id, supplier_name, week_start, week_label, total_amount, status, notes,
			created_at, ordered_at, delivered_at
		FROM weekly_orders
		WHERE ($1::date IS NULL OR (week_start >= $1 AND week_start < $2::date))
		  AND ($3::text IS NULL OR supplier_name = $3)
		  AND ($4::text IS NULL OR status = $4)
		ORDER BY week_start, total_amount DESC, supplier_name
	`, from, to, supplier, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		out   []WeeklyOrder
		ids   []int64
		index = map[int64]int{}
	)
	for rows.Next() {
		var (
			o  WeeklyOrder
			st string
		)
		if err := rows.Scan(&o.ID, &o.RunID, &o.Supplier, &o.WeekStart, &o.WeekLabel, &o.Total, &st, &o.Notes,
			&o.CreatedAt, &o.OrderedAt, &o.DeliveredAt); err != nil {
			return nil, err
		}
		o.Status = Status(st)
		index[o.ID] = len(out)
		ids = append(ids, o.ID)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	lrows, err := r.pool.Query(ctx, `
		SELECT order_id, position, product_name, order_unit, quantity, items_per_carton,
			unit_cost, unit_price, subtotal, urgency
		FROM weekly_order_lines
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`, ids)
	if err != nil {
		return nil, err
	}
	defer lrows.Close()
	for lrows.Next() {
		var (
			orderID       int64
			l             Line
			unit, urgency string
		)
		if err := lrows.Scan(&orderID, &l.Position, &l.ProductName, &unit, &l.Quantity, &l.ItemsPerCarton,
			&l.UnitCost, &l.UnitPrice, &l.Subtotal, &urgency); err != nil {
			return nil, err
		}
		l.OrderUnit = OrderUnit(unit)
		l.Urgency = inventory.Urgency(urgency)
		i := index[orderID]
		out[i].Lines = append(out[i].Lines, l)
	}
	return out, lrows.Err()
}

// ListSuppliers: поставщики, у которых есть заказы в плане.
func (r *Repo) ListSuppliers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT supplier_name FROM weekly_orders ORDER BY supplier_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
