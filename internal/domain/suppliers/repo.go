package suppliers

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, supplier_name, order_date, amount
		FROM supplier_orders
		ORDER BY order_date, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.Supplier, &o.OrderDate, &o.Amount); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// InsertOrders: пакетная вставка (импорт из xlsx).
func (r *Repo) InsertOrders(ctx context.Context, orders []Order) (int, error) {
	if len(orders) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, o := range orders {
		batch.Queue(`
			INSERT INTO supplier_orders (supplier_name, order_date, amount)
			VALUES ($1,$2,$3)
		`, o.Supplier, o.OrderDate, o.Amount)
	}
	br := r.pool.SendBatch(ctx, batch)
	defer func() { _ = br.Close() }()
	for i := range orders {
		if _, err := br.Exec(); err != nil {
			return i, fmt.Errorf("insert supplier order %d: %w", i, err)
		}
	}
	return len(orders), nil
}

// WriteCadences: upsert в рамках внешней транзакции. last_order_date не откатывается
// назад: отметка о заказе из дашборда переживает пересчёт.
func WriteCadences(ctx context.Context, tx pgx.Tx, cadences map[string]Cadence) error {
	for _, c := range cadences {
		var last *time.Time
		if !c.LastOrderDate.IsZero() {
			last = &c.LastOrderDate
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO supplier_cadences (supplier_name, avg_days_between_orders, delivery_frequency,
				recommended_buffer_days, order_count, avg_amount, min_amount, max_amount, last_order_date, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, now())
			ON CONFLICT (supplier_name) DO UPDATE SET
				avg_days_between_orders = EXCLUDED.avg_days_between_orders,
				delivery_frequency      = EXCLUDED.delivery_frequency,
				recommended_buffer_days = EXCLUDED.recommended_buffer_days,
				order_count             = EXCLUDED.order_count,
				avg_amount              = EXCLUDED.avg_amount,
				min_amount              = EXCLUDED.min_amount,
				max_amount              = EXCLUDED.max_amount,
				last_order_date         = GREATEST(supplier_cadences.last_order_date, EXCLUDED.last_order_date),
				updated_at              = now()
		`, c.Supplier, c.AvgDaysBetween, string(c.Frequency), c.BufferDays, c.OrderCount,
			c.AvgAmount, c.MinAmount, c.MaxAmount, last); err != nil {
			return fmt.Errorf("save cadence %q: %w", c.Supplier, err)
		}
	}
	return nil
}

func (r *Repo) ListCadences(ctx context.Context) (map[string]Cadence, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT supplier_name, avg_days_between_orders, delivery_frequency, recommended_buffer_days,
			order_count, avg_amount, min_amount, max_amount, last_order_date
		FROM supplier_cadences
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]Cadence{}
	for rows.Next() {
		var (
			c    Cadence
			freq string
			last *time.Time
		)
		if err := rows.Scan(&c.Supplier, &c.AvgDaysBetween, &freq, &c.BufferDays,
			&c.OrderCount, &c.AvgAmount, &c.MinAmount, &c.MaxAmount, &last); err != nil {
			return nil, err
		}
		c.Frequency = Frequency(freq)
		if last != nil {
			c.LastOrderDate = *last
		}
		out[c.Supplier] = c
	}
	return out, rows.Err()
}

// TouchLastOrder отмечает заказ в рамках внешней транзакции.
// Поставщик без истории получает ритм по умолчанию.
func TouchLastOrder(ctx context.Context, tx pgx.Tx, supplier string) error {
	d := Default(supplier)
	_, err := tx.Exec(ctx, `
		INSERT INTO supplier_cadences (supplier_name, avg_days_between_orders, delivery_frequency,
			recommended_buffer_days, last_order_date, updated_at)
		VALUES ($1,$2,$3,$4, CURRENT_DATE, now())
		ON CONFLICT (supplier_name) DO UPDATE SET
			last_order_date = GREATEST(supplier_cadences.last_order_date, CURRENT_DATE),
			updated_at      = now()
	`, supplier, d.AvgDaysBetween, string(d.Frequency), d.BufferDays)
	return err
}
